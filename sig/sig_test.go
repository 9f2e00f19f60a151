package sig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/errs"
	"github.com/clrmeta/clrmeta/schema"
	"github.com/clrmeta/clrmeta/table"
)

func roundTrip(t *testing.T, s *Signature) *Signature {
	t.Helper()
	w := bin.NewWriter()
	require.NoError(t, s.Encode(w))
	require.Equal(t, s.PhysicalLength(), len(w.Bytes()))

	r := bin.NewReader(w.Bytes())
	got, err := DecodeType(r, NewRecursionGuard(0))
	require.NoError(t, err)
	return got
}

func TestPrimitiveRoundTrip(t *testing.T) {
	s := &Signature{Kind: KindPrimitive, Primitive: PrimI4}
	got := roundTrip(t, s)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSZArrayOfClassRoundTrip(t *testing.T) {
	tok, err := table.NewToken(schema.TypeDef, 3)
	require.NoError(t, err)
	s := &Signature{
		Kind: KindSZArray,
		Inner: &Signature{
			Kind:      KindClassOrValueType,
			TypeToken: tok,
		},
	}
	got := roundTrip(t, s)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGenericInstRoundTrip(t *testing.T) {
	baseTok, err := table.NewToken(schema.TypeDef, 9)
	require.NoError(t, err)
	argTok, err := table.NewToken(schema.TypeRef, 4)
	require.NoError(t, err)
	s := &Signature{
		Kind: KindGenericInst,
		Inner: &Signature{
			Kind:        KindClassOrValueType,
			IsValueType: true,
			TypeToken:   baseTok,
		},
		GenericArgs: []*Signature{
			{Kind: KindPrimitive, Primitive: PrimI4},
			{Kind: KindClassOrValueType, TypeToken: argTok},
		},
	}
	got := roundTrip(t, s)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayRoundTripWithBounds(t *testing.T) {
	s := &Signature{
		Kind:  KindArray,
		Inner: &Signature{Kind: KindPrimitive, Primitive: PrimR8},
		Array: &ArrayShape{
			Rank:      2,
			Sizes:     []uint32{10, 20},
			LowBounds: []int32{0, -5},
		},
	}
	got := roundTrip(t, s)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStackedCModRoundTrip(t *testing.T) {
	modTok, err := table.NewToken(schema.TypeRef, 1)
	require.NoError(t, err)
	s := &Signature{
		Kind:        KindCMod,
		ModRequired: true,
		TypeToken:   modTok,
		Inner: &Signature{
			Kind:        KindCMod,
			ModRequired: false,
			TypeToken:   modTok,
			Inner:       &Signature{Kind: KindPrimitive, Primitive: PrimVoid},
		},
	}
	got := roundTrip(t, s)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestDeepCModNestingFailsRecursionGuard builds 200 stacked CMOD_REQD nodes
// over void and expects the decoder to fail once the guard's depth limit is
// exceeded, rather than overflow the Go call stack.
func TestDeepCModNestingFailsRecursionGuard(t *testing.T) {
	modTok, err := table.NewToken(schema.TypeRef, 1)
	require.NoError(t, err)

	w := bin.NewWriter()
	const depth = 200
	for i := 0; i < depth; i++ {
		require.NoError(t, w.WriteByte(byte(ElementCModReqd)))
		info := schema.Info(schema.TypeDefOrRef)
		tag, ok := schema.TagFor(schema.TypeDefOrRef, modTok.TableIndex())
		require.True(t, ok)
		require.NoError(t, w.WriteCompressedUint(schema.Encode(modTok.RowNumber(), tag, info.TagBits)))
	}
	require.NoError(t, w.WriteByte(byte(ElementVoid)))

	r := bin.NewReader(w.Bytes())
	_, err = DecodeType(r, NewRecursionGuard(0))
	require.ErrorIs(t, err, errs.ErrMalformedSignature)
}

func TestMethodSignatureRoundTripWithVarArgs(t *testing.T) {
	ms := &MethodSignature{
		CallingConvention: ConvVarArg,
		HasThis:           true,
		ReturnType:        &Signature{Kind: KindPrimitive, Primitive: PrimI4},
		Params: []*Signature{
			{Kind: KindPrimitive, Primitive: PrimI4},
		},
		VarArgParams: []*Signature{
			{Kind: KindString},
		},
	}
	w := bin.NewWriter()
	require.NoError(t, ms.Encode(w))
	require.Equal(t, ms.PhysicalLength(), len(w.Bytes()))

	r := bin.NewReader(w.Bytes())
	got, err := DecodeMethodSignature(r, NewRecursionGuard(0))
	require.NoError(t, err)
	if diff := cmp.Diff(ms, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldSignatureRoundTrip(t *testing.T) {
	fs := &FieldSignature{Type: &Signature{Kind: KindObject}}
	w := bin.NewWriter()
	require.NoError(t, fs.Encode(w))

	r := bin.NewReader(w.Bytes())
	got, err := DecodeFieldSignature(r, NewRecursionGuard(0))
	require.NoError(t, err)
	if diff := cmp.Diff(fs, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestCustomMarshalDescriptorRoundTrip is scenario 4: a CustomMarshalDescriptor
// carrying a fixed GUID, unmanaged type "u", managed type "m", and cookie "c"
// round-trips exactly and its physical length matches the closed-form
// 1 (tag) + 38 (GUID serialised string) + one serialised-string size per
// remaining field.
func TestCustomMarshalDescriptorRoundTrip(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	d := &CustomMarshalDescriptor{GUID: id, Unmanaged: "u", Managed: "m", Cookie: "c"}

	want := 1 + 38 + bin.SerStringSize("u", false) + bin.SerStringSize("m", false) + bin.SerStringSize("c", false)
	require.Equal(t, want, d.PhysicalLength())

	w := bin.NewWriter()
	require.NoError(t, d.Encode(w))
	require.Equal(t, want, len(w.Bytes()))

	r := bin.NewReader(w.Bytes())
	got, err := DecodeCustomMarshalDescriptor(r)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestCustomMarshalDescriptorUnparsableGUIDFallsBackToNil(t *testing.T) {
	w := bin.NewWriter()
	require.NoError(t, w.WriteByte(NativeTypeCustomMarshal))
	require.NoError(t, w.WriteSerString("not-a-guid\x00", false))
	require.NoError(t, w.WriteSerString("u", false))
	require.NoError(t, w.WriteSerString("m", false))
	require.NoError(t, w.WriteSerString("c", false))

	r := bin.NewReader(w.Bytes())
	got, err := DecodeCustomMarshalDescriptor(r)
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, got.GUID)
}

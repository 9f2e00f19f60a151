package sig

import (
	"fmt"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/errs"
	"github.com/clrmeta/clrmeta/schema"
	"github.com/clrmeta/clrmeta/table"
)

// DefaultRecursionLimit is the depth a signature tree may nest before
// decoding fails with errs.ErrMalformedSignature, matching the CLR's own
// defence against maliciously self-referential CMOD chains.
const DefaultRecursionLimit = 100

// RecursionGuard is shared by every recursive call within one top-level
// decode, incrementing on entry and decrementing on exit so sibling
// subtrees don't inherit an exhausted budget from an unrelated branch.
type RecursionGuard struct {
	depth int
	max   int
}

// NewRecursionGuard returns a guard capped at max. A max of 0 selects
// DefaultRecursionLimit.
func NewRecursionGuard(max int) *RecursionGuard {
	if max <= 0 {
		max = DefaultRecursionLimit
	}
	return &RecursionGuard{max: max}
}

// enter counts one more node on the current path. The top-level type sits at
// nesting depth 0, so a chain of max wrappers (e.g. CMOD_REQD prefixes) over
// a leaf is the deepest tree accepted.
func (g *RecursionGuard) enter() error {
	g.depth++
	if nesting := g.depth - 1; nesting > g.max {
		return fmt.Errorf("sig: nesting depth %d exceeds limit %d: %w", nesting, g.max, errs.ErrMalformedSignature)
	}
	return nil
}

func (g *RecursionGuard) exit() { g.depth-- }

var primitiveByTag = map[ElementType]PrimitiveKind{
	ElementVoid:       PrimVoid,
	ElementBoolean:    PrimBoolean,
	ElementChar:       PrimChar,
	ElementI1:         PrimI1,
	ElementU1:         PrimU1,
	ElementI2:         PrimI2,
	ElementU2:         PrimU2,
	ElementI4:         PrimI4,
	ElementU4:         PrimU4,
	ElementI8:         PrimI8,
	ElementU8:         PrimU8,
	ElementR4:         PrimR4,
	ElementR8:         PrimR8,
	ElementTypedByRef: PrimTypedReference,
	ElementI:          PrimIntPtr,
	ElementU:          PrimUIntPtr,
}

// DecodeType decodes one type-signature node, recursing through g for every
// nested subtree.
func DecodeType(r *bin.Reader, g *RecursionGuard) (*Signature, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	defer g.exit()

	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	tag := ElementType(tagByte)

	if prim, ok := primitiveByTag[tag]; ok {
		return &Signature{Kind: KindPrimitive, Primitive: prim}, nil
	}

	switch tag {
	case ElementString:
		return &Signature{Kind: KindString}, nil
	case ElementObject:
		return &Signature{Kind: KindObject}, nil
	case ElementSentinel:
		return &Signature{Kind: KindSentinel}, nil
	case ElementClass, ElementValueType:
		tok, err := decodeTypeDefOrRef(r)
		if err != nil {
			return nil, err
		}
		return &Signature{Kind: KindClassOrValueType, IsValueType: tag == ElementValueType, TypeToken: tok}, nil
	case ElementPtr:
		inner, err := DecodeType(r, g)
		if err != nil {
			return nil, err
		}
		return &Signature{Kind: KindPtr, Inner: inner}, nil
	case ElementByRef:
		inner, err := DecodeType(r, g)
		if err != nil {
			return nil, err
		}
		return &Signature{Kind: KindByRef, Inner: inner}, nil
	case ElementSZArray:
		inner, err := DecodeType(r, g)
		if err != nil {
			return nil, err
		}
		return &Signature{Kind: KindSZArray, Inner: inner}, nil
	case ElementPinned:
		inner, err := DecodeType(r, g)
		if err != nil {
			return nil, err
		}
		return &Signature{Kind: KindPinned, Inner: inner}, nil
	case ElementArray:
		return decodeArray(r, g)
	case ElementGenericInst:
		return decodeGenericInst(r, g)
	case ElementVar, ElementMVar:
		idx, err := r.ReadCompressedUint()
		if err != nil {
			return nil, err
		}
		return &Signature{Kind: KindGenericParam, GenericIndex: idx, IsMethodGenericParam: tag == ElementMVar}, nil
	case ElementFnPtr:
		ms, err := decodeMethodSignature(r, g)
		if err != nil {
			return nil, err
		}
		return &Signature{Kind: KindFnPtr, FnPtr: ms}, nil
	case ElementCModReqd, ElementCModOpt:
		tok, err := decodeTypeDefOrRef(r)
		if err != nil {
			return nil, err
		}
		inner, err := DecodeType(r, g)
		if err != nil {
			return nil, err
		}
		return &Signature{Kind: KindCMod, ModRequired: tag == ElementCModReqd, TypeToken: tok, Inner: inner}, nil
	default:
		return nil, fmt.Errorf("sig: unrecognised element type 0x%02x: %w", tagByte, errs.ErrMalformedSignature)
	}
}

func decodeTypeDefOrRef(r *bin.Reader) (table.Token, error) {
	coded, err := r.ReadCompressedUint()
	if err != nil {
		return 0, err
	}
	info := schema.Info(schema.TypeDefOrRef)
	rowNumber, tag := schema.Decode(coded, info.TagBits)
	tgt, ok := schema.TableFor(schema.TypeDefOrRef, tag)
	if !ok {
		return 0, fmt.Errorf("sig: coded index tag %d has no TypeDefOrRef candidate: %w", tag, errs.ErrMalformedSignature)
	}
	return table.NewToken(tgt, rowNumber)
}

func decodeArray(r *bin.Reader, g *RecursionGuard) (*Signature, error) {
	elem, err := DecodeType(r, g)
	if err != nil {
		return nil, err
	}
	rank, err := r.ReadCompressedUint()
	if err != nil {
		return nil, err
	}
	numSizes, err := r.ReadCompressedUint()
	if err != nil {
		return nil, err
	}
	sizes := make([]uint32, numSizes)
	for i := range sizes {
		sizes[i], err = r.ReadCompressedUint()
		if err != nil {
			return nil, err
		}
	}
	numLowBounds, err := r.ReadCompressedUint()
	if err != nil {
		return nil, err
	}
	lowBounds := make([]int32, numLowBounds)
	for i := range lowBounds {
		lb, err := r.ReadCompressedInt()
		if err != nil {
			return nil, err
		}
		lowBounds[i] = lb
	}
	return &Signature{
		Kind:  KindArray,
		Inner: elem,
		Array: &ArrayShape{Rank: rank, Sizes: sizes, LowBounds: lowBounds},
	}, nil
}

func decodeGenericInst(r *bin.Reader, g *RecursionGuard) (*Signature, error) {
	base, err := DecodeType(r, g)
	if err != nil {
		return nil, err
	}
	if base.Kind != KindClassOrValueType {
		return nil, fmt.Errorf("sig: GENERICINST base must be CLASS or VALUETYPE: %w", errs.ErrMalformedSignature)
	}
	argCount, err := r.ReadCompressedUint()
	if err != nil {
		return nil, err
	}
	args := make([]*Signature, argCount)
	for i := range args {
		args[i], err = DecodeType(r, g)
		if err != nil {
			return nil, err
		}
	}
	return &Signature{Kind: KindGenericInst, Inner: base, GenericArgs: args}, nil
}

// DecodeMethodSignature decodes a standalone method or MethodDef/MemberRef
// signature blob.
func DecodeMethodSignature(r *bin.Reader, g *RecursionGuard) (*MethodSignature, error) {
	return decodeMethodSignature(r, g)
}

func decodeMethodSignature(r *bin.Reader, g *RecursionGuard) (*MethodSignature, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	ms := &MethodSignature{
		HasThis:           flags&flagHasThis != 0,
		ExplicitThis:      flags&flagExplicitThis != 0,
		CallingConvention: CallingConvention(flags & callConvMask),
	}
	isGeneric := flags&flagGeneric != 0
	if isGeneric {
		ms.GenericParamCount, err = r.ReadCompressedUint()
		if err != nil {
			return nil, err
		}
	}
	paramCount, err := r.ReadCompressedUint()
	if err != nil {
		return nil, err
	}
	ms.ReturnType, err = DecodeType(r, g)
	if err != nil {
		return nil, err
	}
	inVarArgs := false
	for i := uint32(0); i < paramCount; i++ {
		peekPos := r.Pos()
		tagByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if ElementType(tagByte) == ElementSentinel {
			inVarArgs = true
			i--
			continue
		}
		if err := r.Seek(peekPos); err != nil {
			return nil, err
		}
		p, err := DecodeType(r, g)
		if err != nil {
			return nil, err
		}
		if inVarArgs {
			ms.VarArgParams = append(ms.VarArgParams, p)
		} else {
			ms.Params = append(ms.Params, p)
		}
	}
	return ms, nil
}

// DecodeFieldSignature decodes a Field table row's signature blob, expecting
// the leading FIELD calling-convention byte.
func DecodeFieldSignature(r *bin.Reader, g *RecursionGuard) (*FieldSignature, error) {
	conv, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if CallingConvention(conv&callConvMask) != ConvField {
		return nil, fmt.Errorf("sig: field signature missing FIELD calling convention byte (got 0x%02x): %w", conv, errs.ErrMalformedSignature)
	}
	typ, err := DecodeType(r, g)
	if err != nil {
		return nil, err
	}
	return &FieldSignature{Type: typ}, nil
}

// Package sig implements the recursive ECMA-335 §II.23.2 signature codec:
// type signatures, method signatures, field signatures, and the
// CustomMarshalDescriptor native-interop subtree.
package sig

import "github.com/clrmeta/clrmeta/table"

// ElementType is the one-byte tag opening a type-signature node.
type ElementType byte

const (
	ElementEnd         ElementType = 0x00
	ElementVoid        ElementType = 0x01
	ElementBoolean     ElementType = 0x02
	ElementChar        ElementType = 0x03
	ElementI1          ElementType = 0x04
	ElementU1          ElementType = 0x05
	ElementI2          ElementType = 0x06
	ElementU2          ElementType = 0x07
	ElementI4          ElementType = 0x08
	ElementU4          ElementType = 0x09
	ElementI8          ElementType = 0x0A
	ElementU8          ElementType = 0x0B
	ElementR4          ElementType = 0x0C
	ElementR8          ElementType = 0x0D
	ElementString      ElementType = 0x0E
	ElementPtr         ElementType = 0x0F
	ElementByRef       ElementType = 0x10
	ElementValueType   ElementType = 0x11
	ElementClass       ElementType = 0x12
	ElementVar         ElementType = 0x13
	ElementArray       ElementType = 0x14
	ElementGenericInst ElementType = 0x15
	ElementTypedByRef  ElementType = 0x16
	ElementI           ElementType = 0x18
	ElementU           ElementType = 0x19
	ElementFnPtr       ElementType = 0x1B
	ElementObject      ElementType = 0x1C
	ElementSZArray     ElementType = 0x1D
	ElementMVar        ElementType = 0x1E
	ElementCModReqd    ElementType = 0x1F
	ElementCModOpt     ElementType = 0x20
	ElementSentinel    ElementType = 0x41
	ElementPinned      ElementType = 0x45
)

// NativeTypeCustomMarshal is the FieldMarshal native-type tag identifying a
// CustomMarshalDescriptor subtree.
const NativeTypeCustomMarshal byte = 0x2C

// Kind discriminates the tagged-sum of signature variants.
type Kind int

const (
	KindPrimitive Kind = iota
	KindString
	KindObject
	KindClassOrValueType
	KindPtr
	KindByRef
	KindArray
	KindSZArray
	KindGenericInst
	KindGenericParam
	KindFnPtr
	KindCMod
	KindPinned
	KindSentinel
)

// PrimitiveKind names one of the leaf primitive element types (including
// typed-reference and the two pointer-sized integers, grouped with the
// primitives per §4.E's decode dispatch).
type PrimitiveKind int

const (
	PrimVoid PrimitiveKind = iota
	PrimBoolean
	PrimChar
	PrimI1
	PrimU1
	PrimI2
	PrimU2
	PrimI4
	PrimU4
	PrimI8
	PrimU8
	PrimR4
	PrimR8
	PrimTypedReference
	PrimIntPtr
	PrimUIntPtr
)

var primitiveNames = map[PrimitiveKind]string{
	PrimVoid: "void", PrimBoolean: "bool", PrimChar: "char",
	PrimI1: "sbyte", PrimU1: "byte", PrimI2: "short", PrimU2: "ushort",
	PrimI4: "int", PrimU4: "uint", PrimI8: "long", PrimU8: "ulong",
	PrimR4: "float", PrimR8: "double", PrimTypedReference: "typedref",
	PrimIntPtr: "intptr", PrimUIntPtr: "uintptr",
}

// ArrayShape holds the rank, per-dimension sizes, and per-dimension lower
// bounds of a multi-dimensional ARRAY signature.
type ArrayShape struct {
	Rank      uint32
	Sizes     []uint32
	LowBounds []int32
}

// Signature is the recursive value tree the codec decodes into and encodes
// from. Only the fields relevant to Kind are populated.
type Signature struct {
	Kind Kind

	Primitive PrimitiveKind // KindPrimitive

	IsValueType bool        // KindClassOrValueType
	TypeToken   table.Token // KindClassOrValueType, KindCMod (the modifier type)

	Inner *Signature // KindPtr, KindByRef, KindSZArray, KindArray (element type), KindPinned, KindCMod (annotated type)

	Array *ArrayShape // KindArray

	GenericArgs []*Signature // KindGenericInst

	GenericIndex         uint32 // KindGenericParam
	IsMethodGenericParam bool   // KindGenericParam: true for MVAR, false for VAR

	FnPtr *MethodSignature // KindFnPtr

	ModRequired bool // KindCMod: true for CMOD_REQD, false for CMOD_OPT
}

// CallingConvention is the low nibble of a method signature's flags byte.
type CallingConvention byte

const (
	ConvDefault  CallingConvention = 0x0
	ConvC        CallingConvention = 0x1
	ConvStdCall  CallingConvention = 0x2
	ConvThisCall CallingConvention = 0x3
	ConvFastCall CallingConvention = 0x4
	ConvVarArg   CallingConvention = 0x5
	ConvField    CallingConvention = 0x6
	ConvProperty CallingConvention = 0x8
)

const (
	flagHasThis      = 0x20
	flagExplicitThis = 0x40
	flagGeneric      = 0x10
	callConvMask     = 0x0F
)

// MethodSignature is the calling-convention-qualified signature attached to
// MethodDef/MemberRef rows and FNPTR type nodes.
type MethodSignature struct {
	HasThis           bool
	ExplicitThis      bool
	CallingConvention CallingConvention
	GenericParamCount uint32
	ReturnType        *Signature
	Params            []*Signature
	VarArgParams      []*Signature
}

// FieldSignature wraps the single type of a Field table row.
type FieldSignature struct {
	Type *Signature
}

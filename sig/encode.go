package sig

import (
	"fmt"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/errs"
	"github.com/clrmeta/clrmeta/schema"
)

var tagByPrimitive = map[PrimitiveKind]ElementType{
	PrimVoid: ElementVoid, PrimBoolean: ElementBoolean, PrimChar: ElementChar,
	PrimI1: ElementI1, PrimU1: ElementU1, PrimI2: ElementI2, PrimU2: ElementU2,
	PrimI4: ElementI4, PrimU4: ElementU4, PrimI8: ElementI8, PrimU8: ElementU8,
	PrimR4: ElementR4, PrimR8: ElementR8, PrimTypedReference: ElementTypedByRef,
	PrimIntPtr: ElementI, PrimUIntPtr: ElementU,
}

// Encode writes the signature node and every subtree to w.
func (s *Signature) Encode(w *bin.Writer) error {
	switch s.Kind {
	case KindPrimitive:
		return w.WriteByte(byte(tagByPrimitive[s.Primitive]))
	case KindString:
		return w.WriteByte(byte(ElementString))
	case KindObject:
		return w.WriteByte(byte(ElementObject))
	case KindSentinel:
		return w.WriteByte(byte(ElementSentinel))
	case KindClassOrValueType:
		tag := ElementClass
		if s.IsValueType {
			tag = ElementValueType
		}
		if err := w.WriteByte(byte(tag)); err != nil {
			return err
		}
		return encodeTypeDefOrRef(w, s.TypeToken)
	case KindPtr:
		return encodeWrapped(w, ElementPtr, s.Inner)
	case KindByRef:
		return encodeWrapped(w, ElementByRef, s.Inner)
	case KindSZArray:
		return encodeWrapped(w, ElementSZArray, s.Inner)
	case KindPinned:
		return encodeWrapped(w, ElementPinned, s.Inner)
	case KindArray:
		return s.encodeArray(w)
	case KindGenericInst:
		return s.encodeGenericInst(w)
	case KindGenericParam:
		tag := ElementVar
		if s.IsMethodGenericParam {
			tag = ElementMVar
		}
		if err := w.WriteByte(byte(tag)); err != nil {
			return err
		}
		return w.WriteCompressedUint(s.GenericIndex)
	case KindFnPtr:
		if err := w.WriteByte(byte(ElementFnPtr)); err != nil {
			return err
		}
		return s.FnPtr.Encode(w)
	case KindCMod:
		tag := ElementCModOpt
		if s.ModRequired {
			tag = ElementCModReqd
		}
		if err := w.WriteByte(byte(tag)); err != nil {
			return err
		}
		if err := encodeTypeDefOrRef(w, s.TypeToken); err != nil {
			return err
		}
		return s.Inner.Encode(w)
	default:
		return fmt.Errorf("sig: unencodable signature kind %d: %w", s.Kind, errs.ErrMalformedSignature)
	}
}

func encodeWrapped(w *bin.Writer, tag ElementType, inner *Signature) error {
	if err := w.WriteByte(byte(tag)); err != nil {
		return err
	}
	return inner.Encode(w)
}

func encodeTypeDefOrRef(w *bin.Writer, tok interface {
	TableIndex() schema.TableIndex
	RowNumber() uint32
}) error {
	tag, ok := schema.TagFor(schema.TypeDefOrRef, tok.TableIndex())
	if !ok {
		return fmt.Errorf("sig: table %v is not a TypeDefOrRef candidate: %w", tok.TableIndex(), errs.ErrMalformedSignature)
	}
	info := schema.Info(schema.TypeDefOrRef)
	return w.WriteCompressedUint(schema.Encode(tok.RowNumber(), tag, info.TagBits))
}

func (s *Signature) encodeArray(w *bin.Writer) error {
	if err := w.WriteByte(byte(ElementArray)); err != nil {
		return err
	}
	if err := s.Inner.Encode(w); err != nil {
		return err
	}
	if err := w.WriteCompressedUint(s.Array.Rank); err != nil {
		return err
	}
	if err := w.WriteCompressedUint(uint32(len(s.Array.Sizes))); err != nil {
		return err
	}
	for _, sz := range s.Array.Sizes {
		if err := w.WriteCompressedUint(sz); err != nil {
			return err
		}
	}
	if err := w.WriteCompressedUint(uint32(len(s.Array.LowBounds))); err != nil {
		return err
	}
	for _, lb := range s.Array.LowBounds {
		if err := w.WriteCompressedInt(lb); err != nil {
			return err
		}
	}
	return nil
}

func (s *Signature) encodeGenericInst(w *bin.Writer) error {
	if err := w.WriteByte(byte(ElementGenericInst)); err != nil {
		return err
	}
	if err := s.Inner.Encode(w); err != nil {
		return err
	}
	if err := w.WriteCompressedUint(uint32(len(s.GenericArgs))); err != nil {
		return err
	}
	for _, a := range s.GenericArgs {
		if err := a.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// PhysicalLength returns the byte length s would occupy when encoded,
// computed without writing so the builder can size a blob heap entry first.
func (s *Signature) PhysicalLength() int {
	switch s.Kind {
	case KindPrimitive, KindString, KindObject, KindSentinel:
		return 1
	case KindClassOrValueType:
		return 1 + typeDefOrRefSize(s.TypeToken)
	case KindPtr, KindByRef, KindSZArray, KindPinned:
		return 1 + s.Inner.PhysicalLength()
	case KindArray:
		n := 1 + s.Inner.PhysicalLength()
		n += bin.CompressedUintSize(s.Array.Rank)
		n += bin.CompressedUintSize(uint32(len(s.Array.Sizes)))
		for _, sz := range s.Array.Sizes {
			n += bin.CompressedUintSize(sz)
		}
		n += bin.CompressedUintSize(uint32(len(s.Array.LowBounds)))
		for _, lb := range s.Array.LowBounds {
			n += bin.CompressedIntSize(lb)
		}
		return n
	case KindGenericInst:
		n := 1 + s.Inner.PhysicalLength() + bin.CompressedUintSize(uint32(len(s.GenericArgs)))
		for _, a := range s.GenericArgs {
			n += a.PhysicalLength()
		}
		return n
	case KindGenericParam:
		return 1 + bin.CompressedUintSize(s.GenericIndex)
	case KindFnPtr:
		return 1 + s.FnPtr.PhysicalLength()
	case KindCMod:
		return 1 + typeDefOrRefSize(s.TypeToken) + s.Inner.PhysicalLength()
	default:
		return 0
	}
}

func typeDefOrRefSize(tok interface {
	TableIndex() schema.TableIndex
	RowNumber() uint32
}) int {
	tag, _ := schema.TagFor(schema.TypeDefOrRef, tok.TableIndex())
	info := schema.Info(schema.TypeDefOrRef)
	return bin.CompressedUintSize(schema.Encode(tok.RowNumber(), tag, info.TagBits))
}

// Encode writes the method signature's flags byte, generic param count,
// parameter count, return type, fixed parameters, and (if present) the
// SENTINEL-delimited vararg tail.
func (ms *MethodSignature) Encode(w *bin.Writer) error {
	flags := byte(ms.CallingConvention)
	if ms.HasThis {
		flags |= flagHasThis
	}
	if ms.ExplicitThis {
		flags |= flagExplicitThis
	}
	isGeneric := ms.GenericParamCount > 0
	if isGeneric {
		flags |= flagGeneric
	}
	if err := w.WriteByte(flags); err != nil {
		return err
	}
	if isGeneric {
		if err := w.WriteCompressedUint(ms.GenericParamCount); err != nil {
			return err
		}
	}
	total := uint32(len(ms.Params) + len(ms.VarArgParams))
	if err := w.WriteCompressedUint(total); err != nil {
		return err
	}
	if err := ms.ReturnType.Encode(w); err != nil {
		return err
	}
	for _, p := range ms.Params {
		if err := p.Encode(w); err != nil {
			return err
		}
	}
	if len(ms.VarArgParams) > 0 {
		if err := w.WriteByte(byte(ElementSentinel)); err != nil {
			return err
		}
		for _, p := range ms.VarArgParams {
			if err := p.Encode(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// PhysicalLength returns the byte length Encode would emit for ms.
func (ms *MethodSignature) PhysicalLength() int {
	total := len(ms.Params) + len(ms.VarArgParams)
	n := 1 + bin.CompressedUintSize(uint32(total)) + ms.ReturnType.PhysicalLength()
	if ms.GenericParamCount > 0 {
		n += bin.CompressedUintSize(ms.GenericParamCount)
	}
	for _, p := range ms.Params {
		n += p.PhysicalLength()
	}
	if len(ms.VarArgParams) > 0 {
		n++
		for _, p := range ms.VarArgParams {
			n += p.PhysicalLength()
		}
	}
	return n
}

// Encode writes the FIELD calling-convention byte and the field's type.
func (fs *FieldSignature) Encode(w *bin.Writer) error {
	if err := w.WriteByte(byte(ConvField)); err != nil {
		return err
	}
	return fs.Type.Encode(w)
}

// PhysicalLength returns the byte length Encode would emit for fs.
func (fs *FieldSignature) PhysicalLength() int {
	return 1 + fs.Type.PhysicalLength()
}

package sig

import (
	"fmt"
	"strings"

	"github.com/clrmeta/clrmeta/table"
)

// TypeResolver looks up the display name of a TypeDef/TypeRef/TypeSpec row a
// signature references by token. The object model implements this over its
// row store and heaps; the signature codec stays independent of it so it can
// be unit tested without a full metadata image.
type TypeResolver interface {
	TypeName(tok table.Token) (name string, fullName string, err error)
}

// Name composes the short display name of a signature node, resolving any
// referenced type tokens through resolver.
func (s *Signature) Name(resolver TypeResolver) (string, error) {
	switch s.Kind {
	case KindPrimitive:
		return primitiveNames[s.Primitive], nil
	case KindString:
		return "string", nil
	case KindObject:
		return "object", nil
	case KindSentinel:
		return "...", nil
	case KindClassOrValueType:
		name, _, err := resolver.TypeName(s.TypeToken)
		return name, err
	case KindPtr:
		inner, err := s.Inner.Name(resolver)
		return inner + "*", err
	case KindByRef:
		inner, err := s.Inner.Name(resolver)
		return inner + "&", err
	case KindPinned:
		return s.Inner.Name(resolver)
	case KindSZArray:
		inner, err := s.Inner.Name(resolver)
		return inner + "[]", err
	case KindArray:
		inner, err := s.Inner.Name(resolver)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", inner, strings.Repeat(",", int(s.Array.Rank)-1)), nil
	case KindGenericInst:
		base, err := s.Inner.Name(resolver)
		if err != nil {
			return "", err
		}
		args := make([]string, len(s.GenericArgs))
		for i, a := range s.GenericArgs {
			args[i], err = a.Name(resolver)
			if err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%s<%s>", base, strings.Join(args, ",")), nil
	case KindGenericParam:
		if s.IsMethodGenericParam {
			return fmt.Sprintf("!!%d", s.GenericIndex), nil
		}
		return fmt.Sprintf("!%d", s.GenericIndex), nil
	case KindFnPtr:
		return "method ptr", nil
	case KindCMod:
		_, modName, err := resolver.TypeName(s.TypeToken)
		if err != nil {
			return "", err
		}
		inner, err := s.Inner.Name(resolver)
		if err != nil {
			return "", err
		}
		kw := "modopt"
		if s.ModRequired {
			kw = "modreq"
		}
		return fmt.Sprintf("%s %s(%s)", inner, kw, modName), nil
	default:
		return "", fmt.Errorf("sig: name: unhandled kind %d", s.Kind)
	}
}

// FullName is Name qualified with resolved full type names for
// class/valuetype and modifier references, rather than short names. Only
// references reached through pointer, by-ref, pinned, single-dimension array
// and modifier wrappers are qualified; arrays, generic instantiations and
// function pointers are rendered by Name.
func (s *Signature) FullName(resolver TypeResolver) (string, error) {
	switch s.Kind {
	case KindClassOrValueType:
		_, full, err := resolver.TypeName(s.TypeToken)
		return full, err
	case KindPtr:
		inner, err := s.Inner.FullName(resolver)
		return inner + "*", err
	case KindByRef:
		inner, err := s.Inner.FullName(resolver)
		return inner + "&", err
	case KindPinned:
		return s.Inner.FullName(resolver)
	case KindSZArray:
		inner, err := s.Inner.FullName(resolver)
		return inner + "[]", err
	case KindCMod:
		_, modFull, err := resolver.TypeName(s.TypeToken)
		if err != nil {
			return "", err
		}
		inner, err := s.Inner.FullName(resolver)
		if err != nil {
			return "", err
		}
		kw := "modopt"
		if s.ModRequired {
			kw = "modreq"
		}
		return fmt.Sprintf("%s %s(%s)", inner, kw, modFull), nil
	default:
		return s.Name(resolver)
	}
}

// Package model provides the polymorphic object-model layer bridging raw
// table rows and tokens to resolved, named descriptors: assemblies, modules,
// types, and members. Descriptors are read-only views over an Image's
// row store and heaps; they have no setters. Edits are made on the Image's
// rows and heaps, which the builder re-emits when handed the Image.
package model

import (
	"fmt"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/errs"
	"github.com/clrmeta/clrmeta/heap"
	"github.com/clrmeta/clrmeta/schema"
	"github.com/clrmeta/clrmeta/sig"
	"github.com/clrmeta/clrmeta/table"
)

// Image owns one metadata image's row store and heaps, and is the shared
// context every descriptor resolves references through.
type Image struct {
	Rows        *table.RowStore
	Strings     *heap.StringHeap
	UserStrings *heap.UserStringHeap
	Blobs       *heap.BlobHeap
	GUIDs       *heap.GUIDHeap
}

// NewImage returns an empty image, ready for either lazy materialisation
// from raw table/heap bytes or direct construction via the object model.
func NewImage() *Image {
	return &Image{
		Rows:        table.NewRowStore(schema.Tables()),
		Strings:     heap.NewStringHeap(),
		UserStrings: heap.NewUserStringHeap(),
		Blobs:       heap.NewBlobHeap(),
		GUIDs:       heap.NewGUIDHeap(),
	}
}

// TypeName implements sig.TypeResolver: it resolves a TypeDef/TypeRef/
// TypeSpec token to a short name and a namespace-qualified full name.
func (img *Image) TypeName(tok table.Token) (name string, fullName string, err error) {
	if tok.IsNull() {
		return "", "", nil
	}
	switch tok.TableIndex() {
	case schema.TypeDef:
		row, err := img.Rows.Get(schema.TypeDef, tok.RowNumber())
		if err != nil {
			return "", "", err
		}
		name, err = img.Strings.Get(row.Get("TypeName"))
		if err != nil {
			return "", "", err
		}
		ns, err := img.Strings.Get(row.Get("TypeNamespace"))
		if err != nil {
			return "", "", err
		}
		return name, qualify(ns, name), nil
	case schema.TypeRef:
		row, err := img.Rows.Get(schema.TypeRef, tok.RowNumber())
		if err != nil {
			return "", "", err
		}
		name, err = img.Strings.Get(row.Get("TypeName"))
		if err != nil {
			return "", "", err
		}
		ns, err := img.Strings.Get(row.Get("TypeNamespace"))
		if err != nil {
			return "", "", err
		}
		return name, qualify(ns, name), nil
	case schema.TypeSpec:
		row, err := img.Rows.Get(schema.TypeSpec, tok.RowNumber())
		if err != nil {
			return "", "", err
		}
		blob, err := img.Blobs.Get(row.Get("Signature"))
		if err != nil {
			return "", "", err
		}
		typ, err := sig.DecodeType(bin.NewReader(blob), sig.NewRecursionGuard(0))
		if err != nil {
			return "", "", err
		}
		n, err := typ.Name(img)
		if err != nil {
			return "", "", err
		}
		f, err := typ.FullName(img)
		if err != nil {
			return "", "", err
		}
		return n, f, nil
	default:
		return "", "", fmt.Errorf("model: token %#x is not a TypeDefOrRef target: %w", uint32(tok), errs.ErrUnresolvableToken)
	}
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

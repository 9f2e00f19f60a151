package model

import (
	"github.com/google/uuid"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/cryptoutil"
	"github.com/clrmeta/clrmeta/schema"
	"github.com/clrmeta/clrmeta/sig"
	"github.com/clrmeta/clrmeta/table"
)

// Descriptor is the capability set every object-model wrapper offers:
// resolving its own identity within an image. Not every descriptor has a
// meaningful DeclaringType, so that capability lives on the narrower
// interfaces below rather than here.
type Descriptor interface {
	Token() table.Token
	Name() (string, error)
	FullName() (string, error)
}

// ModuleDefinition wraps the single row of the Module table.
type ModuleDefinition struct {
	img  *Image
	tok  table.Token
	row  *table.Row
	name lazyCell[string]
}

// NewModuleDefinition wraps the Module table's row (there is exactly one per
// image) for name and MVID access.
func NewModuleDefinition(img *Image) (*ModuleDefinition, error) {
	tok, err := table.NewToken(schema.Module, 1)
	if err != nil {
		return nil, err
	}
	row, err := img.Rows.Get(schema.Module, 1)
	if err != nil {
		return nil, err
	}
	return &ModuleDefinition{img: img, tok: tok, row: row}, nil
}

func (m *ModuleDefinition) Token() table.Token { return m.tok }

// Name returns the module's file name (e.g. "MyAssembly.dll"), computed
// once and cached behind the lazy cell.
func (m *ModuleDefinition) Name() (string, error) {
	return m.name.Get(func() string {
		n, _ := m.img.Strings.Get(m.row.Get("Name"))
		return n
	}), nil
}

// FullName for a module is its Name; modules have no enclosing namespace.
func (m *ModuleDefinition) FullName() (string, error) { return m.Name() }

// MVID returns the module version identifier GUID.
func (m *ModuleDefinition) MVID() (uuid.UUID, error) {
	return m.img.GUIDs.Get(m.row.Get("Mvid"))
}

// AssemblyDefinition wraps the single row of the Assembly table (present
// only in assemblies that are themselves a manifest module).
type AssemblyDefinition struct {
	img            *Image
	tok            table.Token
	row            *table.Row
	name           lazyCell[string]
	publicKeyToken lazyCell[[]byte]
}

// NewAssemblyDefinition wraps the Assembly table's row.
func NewAssemblyDefinition(img *Image) (*AssemblyDefinition, error) {
	tok, err := table.NewToken(schema.Assembly, 1)
	if err != nil {
		return nil, err
	}
	row, err := img.Rows.Get(schema.Assembly, 1)
	if err != nil {
		return nil, err
	}
	return &AssemblyDefinition{img: img, tok: tok, row: row}, nil
}

func (a *AssemblyDefinition) Token() table.Token { return a.tok }

func (a *AssemblyDefinition) Name() (string, error) {
	return a.name.Get(func() string {
		n, _ := a.img.Strings.Get(a.row.Get("Name"))
		return n
	}), nil
}

func (a *AssemblyDefinition) FullName() (string, error) { return a.Name() }

// PublicKeyToken derives the assembly's 8-byte strong-name token from its
// full public key blob, cached after first computation.
func (a *AssemblyDefinition) PublicKeyToken() ([]byte, error) {
	key, err := a.img.Blobs.Get(a.row.Get("PublicKey"))
	if err != nil {
		return nil, err
	}
	return a.publicKeyToken.Get(func() []byte { return cryptoutil.PublicKeyToken(key) }), nil
}

// AssemblyReference wraps one row of the AssemblyRef table.
type AssemblyReference struct {
	img            *Image
	tok            table.Token
	row            *table.Row
	name           lazyCell[string]
	publicKeyToken lazyCell[[]byte]
}

// NewAssemblyReference wraps AssemblyRef row rowNumber.
func NewAssemblyReference(img *Image, rowNumber uint32) (*AssemblyReference, error) {
	tok, err := table.NewToken(schema.AssemblyRef, rowNumber)
	if err != nil {
		return nil, err
	}
	row, err := img.Rows.Get(schema.AssemblyRef, rowNumber)
	if err != nil {
		return nil, err
	}
	return &AssemblyReference{img: img, tok: tok, row: row}, nil
}

func (a *AssemblyReference) Token() table.Token { return a.tok }

func (a *AssemblyReference) Name() (string, error) {
	return a.name.Get(func() string {
		n, _ := a.img.Strings.Get(a.row.Get("Name"))
		return n
	}), nil
}

func (a *AssemblyReference) FullName() (string, error) { return a.Name() }

// PublicKeyToken returns the AssemblyRef's PublicKeyOrToken blob, deriving
// the 8-byte token from a full public key if that is what is stored. The
// stored blob is taken as a pre-derived token when it is 8 bytes or shorter
// and as a full key otherwise; the row's flags are not consulted.
func (a *AssemblyReference) PublicKeyToken() ([]byte, error) {
	blob, err := a.img.Blobs.Get(a.row.Get("PublicKeyOrToken"))
	if err != nil {
		return nil, err
	}
	if len(blob) <= 8 {
		return blob, nil
	}
	return a.publicKeyToken.Get(func() []byte { return cryptoutil.PublicKeyToken(blob) }), nil
}

// TypeDefOrRef is the resolved form of a TypeDefOrRef coded index: exactly
// one of Definition, Reference, or Specification is non-nil.
type TypeDefOrRef struct {
	Definition    *TypeDefinition
	Reference     *TypeReference
	Specification *TypeSpecification
}

// ResolveTypeDefOrRef dispatches tok to the matching descriptor kind.
func ResolveTypeDefOrRef(img *Image, tok table.Token) (*TypeDefOrRef, error) {
	switch tok.TableIndex() {
	case schema.TypeDef:
		d, err := NewTypeDefinition(img, tok.RowNumber())
		if err != nil {
			return nil, err
		}
		return &TypeDefOrRef{Definition: d}, nil
	case schema.TypeRef:
		r, err := NewTypeReference(img, tok.RowNumber())
		if err != nil {
			return nil, err
		}
		return &TypeDefOrRef{Reference: r}, nil
	case schema.TypeSpec:
		s, err := NewTypeSpecification(img, tok.RowNumber())
		if err != nil {
			return nil, err
		}
		return &TypeDefOrRef{Specification: s}, nil
	default:
		_, _, err := img.TypeName(tok)
		return nil, err
	}
}

// TypeDefinition wraps one TypeDef row.
type TypeDefinition struct {
	img       *Image
	tok       table.Token
	row       *table.Row
	name      lazyCell[string]
	namespace lazyCell[string]
}

// NewTypeDefinition wraps TypeDef row rowNumber.
func NewTypeDefinition(img *Image, rowNumber uint32) (*TypeDefinition, error) {
	tok, err := table.NewToken(schema.TypeDef, rowNumber)
	if err != nil {
		return nil, err
	}
	row, err := img.Rows.Get(schema.TypeDef, rowNumber)
	if err != nil {
		return nil, err
	}
	return &TypeDefinition{img: img, tok: tok, row: row}, nil
}

func (t *TypeDefinition) Token() table.Token { return t.tok }

func (t *TypeDefinition) Name() (string, error) {
	return t.name.Get(func() string {
		n, _ := t.img.Strings.Get(t.row.Get("TypeName"))
		return n
	}), nil
}

// Namespace returns the type's declared namespace, empty for nested or
// global types.
func (t *TypeDefinition) Namespace() (string, error) {
	return t.namespace.Get(func() string {
		n, _ := t.img.Strings.Get(t.row.Get("TypeNamespace"))
		return n
	}), nil
}

func (t *TypeDefinition) FullName() (string, error) {
	name, err := t.Name()
	if err != nil {
		return "", err
	}
	ns, err := t.Namespace()
	if err != nil {
		return "", err
	}
	return qualify(ns, name), nil
}

// DeclaringType looks up the enclosing type via the NestedClass table, or
// returns nil if this type is not nested.
func (t *TypeDefinition) DeclaringType() (*TypeDefinition, error) {
	rows, err := t.img.Rows.Rows(schema.NestedClass)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.Get("NestedClass") == t.tok.RowNumber() {
			return NewTypeDefinition(t.img, r.Get("EnclosingClass"))
		}
	}
	return nil, nil
}

// Module returns the owning module descriptor (a TypeDef always belongs to
// the single manifest module of its image).
func (t *TypeDefinition) Module() (*ModuleDefinition, error) {
	return NewModuleDefinition(t.img)
}

// TypeReference wraps one TypeRef row.
type TypeReference struct {
	img       *Image
	tok       table.Token
	row       *table.Row
	name      lazyCell[string]
	namespace lazyCell[string]
}

// NewTypeReference wraps TypeRef row rowNumber.
func NewTypeReference(img *Image, rowNumber uint32) (*TypeReference, error) {
	tok, err := table.NewToken(schema.TypeRef, rowNumber)
	if err != nil {
		return nil, err
	}
	row, err := img.Rows.Get(schema.TypeRef, rowNumber)
	if err != nil {
		return nil, err
	}
	return &TypeReference{img: img, tok: tok, row: row}, nil
}

func (t *TypeReference) Token() table.Token { return t.tok }

func (t *TypeReference) Name() (string, error) {
	return t.name.Get(func() string {
		n, _ := t.img.Strings.Get(t.row.Get("TypeName"))
		return n
	}), nil
}

func (t *TypeReference) Namespace() (string, error) {
	return t.namespace.Get(func() string {
		n, _ := t.img.Strings.Get(t.row.Get("TypeNamespace"))
		return n
	}), nil
}

func (t *TypeReference) FullName() (string, error) {
	name, err := t.Name()
	if err != nil {
		return "", err
	}
	ns, err := t.Namespace()
	if err != nil {
		return "", err
	}
	return qualify(ns, name), nil
}

// ResolutionScope returns the raw coded-index value naming where this type
// reference resolves from (a Module, ModuleRef, AssemblyRef, or enclosing
// TypeRef row).
func (t *TypeReference) ResolutionScope() (rowNumber uint32, tag uint32) {
	info := schema.Info(schema.ResolutionScope)
	return schema.Decode(t.row.Get("ResolutionScope"), info.TagBits)
}

// TypeSpecification wraps one TypeSpec row: an anonymous type built from a
// signature (an instantiated generic, an array, a pointer, ...), with no
// name of its own beyond its decoded signature tree's composed name.
type TypeSpecification struct {
	img *Image
	tok table.Token
	row *table.Row
	sig lazyCell[*sig.Signature]
}

// NewTypeSpecification wraps TypeSpec row rowNumber.
func NewTypeSpecification(img *Image, rowNumber uint32) (*TypeSpecification, error) {
	tok, err := table.NewToken(schema.TypeSpec, rowNumber)
	if err != nil {
		return nil, err
	}
	row, err := img.Rows.Get(schema.TypeSpec, rowNumber)
	if err != nil {
		return nil, err
	}
	return &TypeSpecification{img: img, tok: tok, row: row}, nil
}

func (t *TypeSpecification) Token() table.Token { return t.tok }

// Signature decodes and caches the TypeSpec's signature blob.
func (t *TypeSpecification) Signature() (*sig.Signature, error) {
	blob, err := t.img.Blobs.Get(t.row.Get("Signature"))
	if err != nil {
		return nil, err
	}
	var decodeErr error
	s := t.sig.Get(func() *sig.Signature {
		v, err := sig.DecodeType(bin.NewReader(blob), sig.NewRecursionGuard(0))
		decodeErr = err
		return v
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return s, nil
}

func (t *TypeSpecification) Name() (string, error) {
	s, err := t.Signature()
	if err != nil {
		return "", err
	}
	return s.Name(t.img)
}

func (t *TypeSpecification) FullName() (string, error) {
	s, err := t.Signature()
	if err != nil {
		return "", err
	}
	return s.FullName(t.img)
}

// MemberReference wraps one MemberRef row: a reference to a field or method
// on a type resolved elsewhere, carrying its own signature blob since the
// referenced member may not be locally defined.
type MemberReference struct {
	img       *Image
	tok       table.Token
	row       *table.Row
	name      lazyCell[string]
	fieldSig  lazyCell[*sig.FieldSignature]
	methodSig lazyCell[*sig.MethodSignature]
}

// NewMemberReference wraps MemberRef row rowNumber.
func NewMemberReference(img *Image, rowNumber uint32) (*MemberReference, error) {
	tok, err := table.NewToken(schema.MemberRef, rowNumber)
	if err != nil {
		return nil, err
	}
	row, err := img.Rows.Get(schema.MemberRef, rowNumber)
	if err != nil {
		return nil, err
	}
	return &MemberReference{img: img, tok: tok, row: row}, nil
}

func (m *MemberReference) Token() table.Token { return m.tok }

func (m *MemberReference) Name() (string, error) {
	return m.name.Get(func() string {
		n, _ := m.img.Strings.Get(m.row.Get("Name"))
		return n
	}), nil
}

// FullName for a member reference qualifies its Name with its parent's
// FullName (declaring-type-qualified member name).
func (m *MemberReference) FullName() (string, error) {
	name, err := m.Name()
	if err != nil {
		return "", err
	}
	parent, err := m.Parent()
	if err != nil || parent == nil {
		return name, err
	}
	parentFull, err := parent.FullName()
	if err != nil {
		return "", err
	}
	return parentFull + "::" + name, nil
}

// Parent resolves the MemberRefParent coded index to whichever descriptor
// kind it names, when that kind is a TypeDefOrRef candidate. Returns nil,
// nil for MethodDef/ModuleRef parents, which this package does not yet
// model as full descriptors.
func (m *MemberReference) Parent() (Descriptor, error) {
	info := schema.Info(schema.MemberRefParent)
	rowNumber, tag := schema.Decode(m.row.Get("Class"), info.TagBits)
	target, ok := schema.TableFor(schema.MemberRefParent, tag)
	if !ok {
		return nil, nil
	}
	tok, err := table.NewToken(target, rowNumber)
	if err != nil {
		return nil, err
	}
	switch target {
	case schema.TypeDef:
		return NewTypeDefinition(m.img, tok.RowNumber())
	case schema.TypeRef:
		return NewTypeReference(m.img, tok.RowNumber())
	case schema.TypeSpec:
		return NewTypeSpecification(m.img, tok.RowNumber())
	default:
		return nil, nil
	}
}

// blobKind returns the calling-convention kind (the low nibble of the
// signature blob's leading byte) together with the blob itself.
func (m *MemberReference) blobKind() (byte, []byte, error) {
	blob, err := m.img.Blobs.Get(m.row.Get("Signature"))
	if err != nil {
		return 0, nil, err
	}
	if len(blob) == 0 {
		return 0, blob, nil
	}
	return blob[0] & 0x0F, blob, nil
}

// FieldSignature decodes the reference's signature as a field signature.
// Callers should check the leading calling-convention byte (via
// MethodSignature's error) before assuming which decode applies.
func (m *MemberReference) FieldSignature() (*sig.FieldSignature, error) {
	_, blob, err := m.blobKind()
	if err != nil {
		return nil, err
	}
	var decodeErr error
	fs := m.fieldSig.Get(func() *sig.FieldSignature {
		v, err := sig.DecodeFieldSignature(bin.NewReader(blob), sig.NewRecursionGuard(0))
		decodeErr = err
		return v
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return fs, nil
}

// MethodSignature decodes the reference's signature as a method signature.
func (m *MemberReference) MethodSignature() (*sig.MethodSignature, error) {
	_, blob, err := m.blobKind()
	if err != nil {
		return nil, err
	}
	var decodeErr error
	ms := m.methodSig.Get(func() *sig.MethodSignature {
		v, err := sig.DecodeMethodSignature(bin.NewReader(blob), sig.NewRecursionGuard(0))
		decodeErr = err
		return v
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return ms, nil
}

package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clrmeta/clrmeta/schema"
	"github.com/clrmeta/clrmeta/table"
)

func buildTestImage(t *testing.T) *Image {
	t.Helper()
	img := NewImage()

	moduleName := img.Strings.GetOrAdd("TestModule.dll")
	_, err := img.Rows.Append(schema.Module, map[string]uint32{"Name": moduleName})
	require.NoError(t, err)

	asmName := img.Strings.GetOrAdd("TestAssembly")
	pubKey := img.Blobs.GetOrAdd([]byte{0x01, 0x02, 0x03, 0x04})
	_, err = img.Rows.Append(schema.Assembly, map[string]uint32{"Name": asmName, "PublicKey": pubKey})
	require.NoError(t, err)

	outerName := img.Strings.GetOrAdd("Outer")
	outerNs := img.Strings.GetOrAdd("Acme")
	_, err = img.Rows.Append(schema.TypeDef, map[string]uint32{"TypeName": outerName, "TypeNamespace": outerNs})
	require.NoError(t, err)

	innerName := img.Strings.GetOrAdd("Inner")
	emptyNs := img.Strings.GetOrAdd("")
	_, err = img.Rows.Append(schema.TypeDef, map[string]uint32{"TypeName": innerName, "TypeNamespace": emptyNs})
	require.NoError(t, err)

	_, err = img.Rows.Append(schema.NestedClass, map[string]uint32{"NestedClass": 2, "EnclosingClass": 1})
	require.NoError(t, err)

	return img
}

func TestModuleDefinitionName(t *testing.T) {
	img := buildTestImage(t)
	mod, err := NewModuleDefinition(img)
	require.NoError(t, err)
	name, err := mod.Name()
	require.NoError(t, err)
	require.Equal(t, "TestModule.dll", name)
}

func TestAssemblyDefinitionPublicKeyToken(t *testing.T) {
	img := buildTestImage(t)
	asm, err := NewAssemblyDefinition(img)
	require.NoError(t, err)
	name, err := asm.Name()
	require.NoError(t, err)
	require.Equal(t, "TestAssembly", name)

	token, err := asm.PublicKeyToken()
	require.NoError(t, err)
	require.Len(t, token, 8)

	token2, err := asm.PublicKeyToken()
	require.NoError(t, err)
	require.Equal(t, token, token2)
}

func TestTypeDefinitionFullNameAndDeclaringType(t *testing.T) {
	img := buildTestImage(t)

	outer, err := NewTypeDefinition(img, 1)
	require.NoError(t, err)
	fullName, err := outer.FullName()
	require.NoError(t, err)
	require.Equal(t, "Acme.Outer", fullName)

	inner, err := NewTypeDefinition(img, 2)
	require.NoError(t, err)
	innerFull, err := inner.FullName()
	require.NoError(t, err)
	require.Equal(t, "Inner", innerFull)

	declaring, err := inner.DeclaringType()
	require.NoError(t, err)
	require.NotNil(t, declaring)
	declaringName, err := declaring.Name()
	require.NoError(t, err)
	require.Equal(t, "Outer", declaringName)

	noParent, err := outer.DeclaringType()
	require.NoError(t, err)
	require.Nil(t, noParent)
}

func TestResolveTypeDefOrRefDispatchesToDefinition(t *testing.T) {
	img := buildTestImage(t)
	tok, err := table.NewToken(schema.TypeDef, 1)
	require.NoError(t, err)

	resolved, err := ResolveTypeDefOrRef(img, tok)
	require.NoError(t, err)
	require.NotNil(t, resolved.Definition)
	require.Nil(t, resolved.Reference)
	require.Nil(t, resolved.Specification)
}

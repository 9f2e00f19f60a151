package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clrmeta/clrmeta/builder"
	"github.com/clrmeta/clrmeta/model"
	"github.com/clrmeta/clrmeta/schema"
)

func buildRoundTripImage(t *testing.T) *model.Image {
	t.Helper()
	img := model.NewImage()

	moduleName := img.Strings.GetOrAdd("Rebuilt.dll")
	_, err := img.Rows.Append(schema.Module, map[string]uint32{"Name": moduleName})
	require.NoError(t, err)

	ns := img.Strings.GetOrAdd("Acme")
	aName := img.Strings.GetOrAdd("AType")
	bName := img.Strings.GetOrAdd("BType")
	_, err = img.Rows.Append(schema.TypeDef, map[string]uint32{"TypeName": aName, "TypeNamespace": ns})
	require.NoError(t, err)
	_, err = img.Rows.Append(schema.TypeDef, map[string]uint32{"TypeName": bName, "TypeNamespace": ns})
	require.NoError(t, err)

	return img
}

func TestLoadRoundTripsBuilderOutput(t *testing.T) {
	original := buildRoundTripImage(t)
	out, err := builder.New(original, nil).Write()
	require.NoError(t, err)

	loaded, err := Load(out)
	require.NoError(t, err)

	require.Equal(t, original.Rows.Count(schema.TypeDef), loaded.Rows.Count(schema.TypeDef))
	require.Equal(t, original.Rows.Count(schema.Module), loaded.Rows.Count(schema.Module))

	origRows, err := original.Rows.Rows(schema.TypeDef)
	require.NoError(t, err)
	loadedRows, err := loaded.Rows.Rows(schema.TypeDef)
	require.NoError(t, err)
	require.Len(t, loadedRows, len(origRows))

	for i, row := range loadedRows {
		name, err := loaded.Strings.Get(row.Get("TypeName"))
		require.NoError(t, err)
		wantName, err := original.Strings.Get(origRows[i].Get("TypeName"))
		require.NoError(t, err)
		require.Equal(t, wantName, name)
	}
}

func TestLoadRejectsBadStorageSignature(t *testing.T) {
	_, err := Load(make([]byte, 32))
	require.Error(t, err)
}

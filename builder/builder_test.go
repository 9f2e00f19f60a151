package builder

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clrmeta/clrmeta/model"
	"github.com/clrmeta/clrmeta/schema"
)

func buildTestImage(t *testing.T) *model.Image {
	t.Helper()
	img := model.NewImage()

	moduleName := img.Strings.GetOrAdd("Rebuilt.dll")
	_, err := img.Rows.Append(schema.Module, map[string]uint32{"Name": moduleName})
	require.NoError(t, err)

	// Append two TypeDefs out of sorted order so Prepare's sort actually moves a row.
	bName := img.Strings.GetOrAdd("BType")
	ns := img.Strings.GetOrAdd("Acme")
	_, err = img.Rows.Append(schema.TypeDef, map[string]uint32{"TypeName": bName, "TypeNamespace": ns})
	require.NoError(t, err)

	aName := img.Strings.GetOrAdd("AType")
	_, err = img.Rows.Append(schema.TypeDef, map[string]uint32{"TypeName": aName, "TypeNamespace": ns})
	require.NoError(t, err)

	return img
}

func TestWriteProducesWellFormedRoot(t *testing.T) {
	img := buildTestImage(t)
	out, err := New(img, nil).Write()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(out), 20)

	require.Equal(t, uint32(storageSignature), binary.LittleEndian.Uint32(out[0:4]))
	require.Equal(t, uint16(rootMajorVersion), binary.LittleEndian.Uint16(out[4:6]))
	require.Equal(t, uint16(rootMinorVersion), binary.LittleEndian.Uint16(out[6:8]))
}

func TestWriteEmitsFiveStreams(t *testing.T) {
	img := buildTestImage(t)
	out, err := New(img, nil).Write()
	require.NoError(t, err)

	pos := 12
	verLen := binary.LittleEndian.Uint32(out[pos:])
	pos += 4 + int(verLen)
	// flags
	pos += 2
	streamCount := binary.LittleEndian.Uint16(out[pos:])
	pos += 2
	require.Equal(t, uint16(5), streamCount)

	names := make([]string, 0, streamCount)
	for i := 0; i < int(streamCount); i++ {
		pos += 8 // offset + size
		start := pos
		for out[pos] != 0x00 {
			pos++
		}
		names = append(names, string(out[start:pos]))
		pos++ // terminating NUL
		for pos%4 != 0 {
			pos++
		}
	}
	require.Equal(t, []string{"#~", "#Strings", "#US", "#GUID", "#Blob"}, names)
}

func TestPrepareLeavesTypeDefInInsertionOrder(t *testing.T) {
	// TypeDef is not one of ECMA-335's mandated sorted tables, so Prepare
	// must not reorder it even though the two rows are inserted "BType"
	// before "AType".
	img := buildTestImage(t)
	b := New(img, nil)
	require.NoError(t, b.Prepare())

	rows, err := img.Rows.Rows(schema.TypeDef)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	first, err := img.Strings.Get(rows[0].Get("TypeName"))
	require.NoError(t, err)
	second, err := img.Strings.Get(rows[1].Get("TypeName"))
	require.NoError(t, err)
	require.Equal(t, "BType", first)
	require.Equal(t, "AType", second)
}

func TestPrepareSortsNestedClassByNestedClassKey(t *testing.T) {
	img := buildTestImage(t)

	// Two TypeDef rows already exist from buildTestImage; append NestedClass
	// rows out of sorted order and confirm Prepare fixes them up.
	_, err := img.Rows.Append(schema.NestedClass, map[string]uint32{"NestedClass": 2, "EnclosingClass": 1})
	require.NoError(t, err)
	_, err = img.Rows.Append(schema.NestedClass, map[string]uint32{"NestedClass": 1, "EnclosingClass": 1})
	require.NoError(t, err)

	b := New(img, nil)
	require.NoError(t, b.Prepare())

	rows, err := img.Rows.Rows(schema.NestedClass)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, uint32(1), rows[0].Get("NestedClass"))
	require.Equal(t, uint32(2), rows[1].Get("NestedClass"))
}

func TestConvergeIsStableOnFirstRound(t *testing.T) {
	img := buildTestImage(t)
	tables := schema.Tables()
	card := img.Rows.Cardinalities()
	heaps := schema.HeapSizes{
		Strings:     img.Strings.Len(),
		UserStrings: img.UserStrings.Len(),
		Blob:        img.Blobs.Len(),
		GUID:        img.GUIDs.Len() * 16,
	}
	widths, err := converge(tables, card, heaps)
	require.NoError(t, err)
	require.NotNil(t, widths.Columns)
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodedIndexEncodeDecodeRoundTrip(t *testing.T) {
	tag, ok := TagFor(TypeDefOrRef, TypeRef)
	require.True(t, ok)
	value := Encode(42, tag, Info(TypeDefOrRef).TagBits)
	row, gotTag := Decode(value, Info(TypeDefOrRef).TagBits)
	require.EqualValues(t, 42, row)
	require.Equal(t, tag, gotTag)
	table, ok := TableFor(TypeDefOrRef, gotTag)
	require.True(t, ok)
	require.Equal(t, TypeRef, table)
}

func TestCodedIndexWidthCrossesThreshold(t *testing.T) {
	// TypeDefOrRef has 2 tag bits; a TypeDef cardinality of 0x4000 rows
	// means max_cardinality * 2^2 == 0x10000 > 0xFFFF, forcing 4-byte width.
	col := Column{Name: "Extends", Kind: CodedIndexColumn, CodedIndex: TypeDefOrRef}
	small := ColumnWidth(col, Cardinalities{TypeDef: 10}, HeapSizes{})
	require.Equal(t, 2, small)

	large := ColumnWidth(col, Cardinalities{TypeDef: 0x4000}, HeapSizes{})
	require.Equal(t, 4, large)
}

func TestHeapIndexWidthCrossesThreshold(t *testing.T) {
	col := Column{Name: "Name", Kind: HeapIndex, Heap: HeapStrings}
	require.Equal(t, 2, ColumnWidth(col, Cardinalities{}, HeapSizes{Strings: 100}))
	require.Equal(t, 4, ColumnWidth(col, Cardinalities{}, HeapSizes{Strings: 0x10000}))
}

func TestComputeHeapSizeFlags(t *testing.T) {
	w := Compute(Tables(), Cardinalities{}, HeapSizes{Strings: 0x10001, Blob: 10, GUID: 10})
	require.Equal(t, byte(0x01), w.HeapSizeFlags)
}

func TestNestedClassIsSorted(t *testing.T) {
	col, sorted := IsSorted(NestedClass)
	require.True(t, sorted)
	require.Equal(t, "NestedClass", col)

	_, sorted = IsSorted(TypeDef)
	require.False(t, sorted)
}

func TestWidthsEqual(t *testing.T) {
	a := Compute(Tables(), Cardinalities{TypeDef: 5}, HeapSizes{Strings: 10})
	b := Compute(Tables(), Cardinalities{TypeDef: 5}, HeapSizes{Strings: 10})
	require.True(t, a.Equal(b))

	c := Compute(Tables(), Cardinalities{TypeDef: 0x4000}, HeapSizes{Strings: 10})
	require.False(t, a.Equal(c))
}

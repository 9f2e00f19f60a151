package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clrmeta/clrmeta/schema"
)

func TestTokenPackUnpack(t *testing.T) {
	tok, err := NewToken(schema.TypeDef, 5)
	require.NoError(t, err)
	require.Equal(t, schema.TypeDef, tok.TableIndex())
	require.EqualValues(t, 5, tok.RowNumber())
	require.False(t, tok.IsNull())

	null, err := NewToken(schema.TypeDef, 0)
	require.NoError(t, err)
	require.True(t, null.IsNull())
}

func TestNestedClassRowEqualityAndHash(t *testing.T) {
	tokA, err := NewToken(schema.TypeDef, 5)
	require.NoError(t, err)
	tokB, err := NewToken(schema.TypeDef, 2)
	require.NoError(t, err)

	a := NestedClassRow{NestedClass: tokA, EnclosingClass: tokB}
	b := NestedClassRow{NestedClass: tokA, EnclosingClass: tokB}
	require.True(t, a.Equal(b))
	require.EqualValues(t, int32(5*397)^2, a.Hash())
}

func TestRowStoreAppendAndGet(t *testing.T) {
	store := NewRowStore(schema.Tables())
	rowNum, err := store.Append(schema.TypeDef, map[string]uint32{"Flags": 0x100000, "TypeName": 7})
	require.NoError(t, err)
	require.EqualValues(t, 1, rowNum)

	row, err := store.Get(schema.TypeDef, rowNum)
	require.NoError(t, err)
	require.EqualValues(t, 0x100000, row.Get("Flags"))
	require.EqualValues(t, 7, row.Get("TypeName"))
	require.Equal(t, 1, store.Count(schema.TypeDef))
}

func TestRowStoreGetOutOfRange(t *testing.T) {
	store := NewRowStore(schema.Tables())
	_, err := store.Get(schema.TypeDef, 1)
	require.Error(t, err)
}

func TestRowStoreSortTable(t *testing.T) {
	store := NewRowStore(schema.Tables())
	_, err := store.Append(schema.NestedClass, map[string]uint32{"NestedClass": 5, "EnclosingClass": 1})
	require.NoError(t, err)
	_, err = store.Append(schema.NestedClass, map[string]uint32{"NestedClass": 2, "EnclosingClass": 1})
	require.NoError(t, err)

	err = store.SortTable(schema.NestedClass, func(a, b *Row) bool {
		return a.Get("NestedClass") < b.Get("NestedClass")
	})
	require.NoError(t, err)

	rows, err := store.Rows(schema.NestedClass)
	require.NoError(t, err)
	require.EqualValues(t, 2, rows[0].Get("NestedClass"))
	require.EqualValues(t, 5, rows[1].Get("NestedClass"))
}

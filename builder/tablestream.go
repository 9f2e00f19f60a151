package builder

import (
	"fmt"
	"sort"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/schema"
	"github.com/clrmeta/clrmeta/table"
)

const (
	tableStreamMajorVersion = 2
	tableStreamMinorVersion = 0
	tableStreamReserved2    = 1 // ECMA-335 §II.24.2.6: always 1
)

// sortedTableIndices lists every TableIndex ECMA-335 requires sorted, in
// ascending numeric order, for a deterministic sorted-tables bitmask.
func sortedTableIndices() []schema.TableIndex {
	all := allTableIndices()
	var out []schema.TableIndex
	for _, idx := range all {
		if _, sorted := schema.IsSorted(idx); sorted {
			out = append(out, idx)
		}
	}
	return out
}

func allTableIndices() []schema.TableIndex {
	tables := schema.Tables()
	out := make([]schema.TableIndex, 0, len(tables))
	for idx := range tables {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sortMandatedTables reorders every table ECMA-335 requires sorted, by the
// raw value of its declared sort-key column. A coded index or table index
// column's raw uint32 already carries the ordering ECMA-335 asks for, so a
// plain numeric comparison on that column suffices.
func sortMandatedTables(rows *table.RowStore) error {
	for _, idx := range sortedTableIndices() {
		column, _ := schema.IsSorted(idx)
		if err := rows.SortTable(idx, func(a, b *table.Row) bool {
			return a.Get(column) < b.Get(column)
		}); err != nil {
			return fmt.Errorf("builder: sorting table 0x%02x by %s: %w", byte(idx), column, err)
		}
	}
	return nil
}

// writeRow emits one row's columns in schema-declared order, using the
// frozen width for every heap/table/coded-index column and the schema's
// fixed byte width for plain fixed-width columns.
func writeRow(w *bin.Writer, sch schema.TableSchema, row *table.Row, widths schema.Widths) error {
	for _, c := range sch.Columns {
		v := row.Get(c.Name)
		if c.Kind == schema.FixedWidth {
			switch c.FixedBytes {
			case 1:
				if err := w.WriteByte(byte(v)); err != nil {
					return err
				}
			case 2:
				w.WriteU16(uint16(v))
			case 4:
				w.WriteU32(v)
			default:
				return fmt.Errorf("builder: unsupported fixed column width %d for %s.%s", c.FixedBytes, sch.Name, c.Name)
			}
			continue
		}
		width := widths.Columns[sch.Index][c.Name]
		if err := w.WriteIndex(v, width); err != nil {
			return fmt.Errorf("builder: writing %s.%s: %w", sch.Name, c.Name, err)
		}
	}
	return nil
}

// writeTableStream emits the `#~` stream: header, row-count vector, then
// every populated table's rows at the widths already frozen in widths.
func writeTableStream(rows *table.RowStore, tables map[schema.TableIndex]schema.TableSchema, widths schema.Widths) ([]byte, error) {
	w := bin.NewWriter()
	w.WriteU32(0) // reserved
	if err := w.WriteByte(tableStreamMajorVersion); err != nil {
		return nil, err
	}
	if err := w.WriteByte(tableStreamMinorVersion); err != nil {
		return nil, err
	}
	if err := w.WriteByte(widths.HeapSizeFlags); err != nil {
		return nil, err
	}
	if err := w.WriteByte(tableStreamReserved2); err != nil {
		return nil, err
	}

	all := allTableIndices()
	var validMask, sortedMask uint64
	var populated []schema.TableIndex
	for _, idx := range all {
		if rows.Count(idx) > 0 {
			validMask |= 1 << uint(idx)
			populated = append(populated, idx)
		}
	}
	for _, idx := range sortedTableIndices() {
		sortedMask |= 1 << uint(idx)
	}
	w.WriteU64(validMask)
	w.WriteU64(sortedMask)

	for _, idx := range populated {
		w.WriteU32(uint32(rows.Count(idx)))
	}

	for _, idx := range populated {
		sch := tables[idx]
		rs, err := rows.Rows(idx)
		if err != nil {
			return nil, err
		}
		for _, r := range rs {
			if err := writeRow(w, sch, r, widths); err != nil {
				return nil, err
			}
		}
	}

	return w.Bytes(), nil
}

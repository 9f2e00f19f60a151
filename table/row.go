package table

import "github.com/clrmeta/clrmeta/schema"

// Row is an immutable-shape tuple of unsigned integer columns for one table.
// Column values are the raw on-disk encoding: a heap-index column holds a
// byte offset, a table-index column holds a 1-based row number, and a
// coded-index column holds the packed (row<<tagBits)|tag value.
type Row struct {
	schema  *schema.TableSchema
	columns []uint32
}

func newRow(sch *schema.TableSchema) *Row {
	return &Row{schema: sch, columns: make([]uint32, len(sch.Columns))}
}

func (r *Row) columnIndex(name string) int {
	for i, c := range r.schema.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Get returns the raw value of the named column, or 0 if the column does
// not exist on this row's table.
func (r *Row) Get(name string) uint32 {
	i := r.columnIndex(name)
	if i < 0 {
		return 0
	}
	return r.columns[i]
}

// Set replaces the raw value of the named column. It is a no-op if the
// column does not exist on this row's table.
func (r *Row) Set(name string, value uint32) {
	if i := r.columnIndex(name); i >= 0 {
		r.columns[i] = value
	}
}

// Column returns the schema.Column declaration for the named column.
func (r *Row) Column(name string) (schema.Column, bool) {
	i := r.columnIndex(name)
	if i < 0 {
		return schema.Column{}, false
	}
	return r.schema.Columns[i], true
}

// Values returns the raw column values in schema-declared order.
func (r *Row) Values() []uint32 {
	return append([]uint32(nil), r.columns...)
}

// Clone returns a deep copy of the row.
func (r *Row) Clone() *Row {
	return &Row{schema: r.schema, columns: append([]uint32(nil), r.columns...)}
}

package table

import (
	"fmt"
	"sort"
	"sync"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/errs"
	"github.com/clrmeta/clrmeta/schema"
)

// rawTable backs a table with an undecoded byte slice plus the column
// widths it was encoded at, so individual rows can be materialised on
// first access rather than all at once.
type rawTable struct {
	data    []byte
	stride  int
	widths  map[string]int
	count   int
}

type tableState struct {
	sch     schema.TableSchema
	raw     *rawTable
	decoded []*Row // decoded[i] is nil until row i+1 has been materialised
}

// RowStore holds every table's rows for one metadata image: lazily
// materialised when backed by raw bytes from a parsed image, or built up
// directly by Append when constructing an image from the object model.
type RowStore struct {
	// SyncRoot lets callers coordinate concurrent mutation from multiple
	// goroutines. Internal code never takes this lock during a builder
	// write.
	SyncRoot sync.Mutex

	tables map[schema.TableIndex]*tableState
}

// NewRowStore returns an empty store shaped by the given schema.
func NewRowStore(tables map[schema.TableIndex]schema.TableSchema) *RowStore {
	s := &RowStore{tables: make(map[schema.TableIndex]*tableState, len(tables))}
	for idx, sch := range tables {
		s.tables[idx] = &tableState{sch: sch}
	}
	return s
}

func (s *RowStore) state(idx schema.TableIndex) (*tableState, error) {
	st, ok := s.tables[idx]
	if !ok {
		return nil, fmt.Errorf("table: unknown table index 0x%02x", byte(idx))
	}
	return st, nil
}

// LoadRaw attaches a raw, undecoded byte region to a table for lazy
// materialisation, as a reader would after locating the table stream.
func (s *RowStore) LoadRaw(idx schema.TableIndex, data []byte, widths map[string]int, count int) error {
	st, err := s.state(idx)
	if err != nil {
		return err
	}
	stride := 0
	for _, c := range st.sch.Columns {
		stride += widths[c.Name]
	}
	if stride*count > len(data) {
		return fmt.Errorf("table: raw region for %s too short for %d rows at stride %d: %w", st.sch.Name, count, stride, errs.ErrBadImageFormat)
	}
	st.raw = &rawTable{data: data, stride: stride, widths: widths, count: count}
	st.decoded = make([]*Row, count)
	return nil
}

func decodeRow(sch *schema.TableSchema, raw *rawTable, rowNumber int) (*Row, error) {
	offset := rowNumber * raw.stride
	r, err := bin.NewReader(raw.data).Slice(offset, raw.stride)
	if err != nil {
		return nil, fmt.Errorf("table: decoding %s row %d: %w", sch.Name, rowNumber+1, err)
	}
	row := newRow(sch)
	for i, c := range sch.Columns {
		width := raw.widths[c.Name]
		var v uint32
		switch width {
		case 1:
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			v = uint32(b)
		case 2:
			u, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			v = uint32(u)
		case 4:
			v, err = r.ReadU32()
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("table: unsupported column width %d for %s.%s", width, sch.Name, c.Name)
		}
		row.columns[i] = v
	}
	return row, nil
}

// Get returns the 1-based row rowNumber from table idx, materialising it
// from raw bytes on first access if the table is raw-backed.
func (s *RowStore) Get(idx schema.TableIndex, rowNumber uint32) (*Row, error) {
	st, err := s.state(idx)
	if err != nil {
		return nil, err
	}
	if rowNumber == 0 || int(rowNumber) > len(st.decoded) {
		return nil, fmt.Errorf("table: %s row %d out of range (%d rows): %w", st.sch.Name, rowNumber, len(st.decoded), errs.ErrUnresolvableToken)
	}
	i := int(rowNumber) - 1
	if st.decoded[i] != nil {
		return st.decoded[i], nil
	}
	if st.raw == nil {
		return nil, fmt.Errorf("table: %s row %d not materialised and has no raw backing", st.sch.Name, rowNumber)
	}
	row, err := decodeRow(&st.sch, st.raw, i)
	if err != nil {
		return nil, err
	}
	st.decoded[i] = row
	return row, nil
}

// Count returns the number of rows currently in table idx.
func (s *RowStore) Count(idx schema.TableIndex) int {
	st, err := s.state(idx)
	if err != nil {
		return 0
	}
	return len(st.decoded)
}

// Append adds a new row built from an in-memory value map (column name ->
// raw value) and returns its dense 1-based row number.
func (s *RowStore) Append(idx schema.TableIndex, values map[string]uint32) (uint32, error) {
	st, err := s.state(idx)
	if err != nil {
		return 0, err
	}
	row := newRow(&st.sch)
	for name, v := range values {
		row.Set(name, v)
	}
	st.decoded = append(st.decoded, row)
	return uint32(len(st.decoded)), nil
}

// Rows materialises and returns every row of table idx in row-number order.
func (s *RowStore) Rows(idx schema.TableIndex) ([]*Row, error) {
	st, err := s.state(idx)
	if err != nil {
		return nil, err
	}
	out := make([]*Row, len(st.decoded))
	for i := range st.decoded {
		if st.decoded[i] == nil {
			row, err := decodeRow(&st.sch, st.raw, i)
			if err != nil {
				return nil, err
			}
			st.decoded[i] = row
		}
		out[i] = st.decoded[i]
	}
	return out, nil
}

// SortTable reorders table idx's rows in place by less, as the builder must
// for any table schema.IsSorted names before layout.
func (s *RowStore) SortTable(idx schema.TableIndex, less func(a, b *Row) bool) error {
	rows, err := s.Rows(idx)
	if err != nil {
		return err
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	st, _ := s.state(idx)
	st.decoded = rows
	return nil
}

// Cardinalities snapshots the current row count of every table, for the
// schema width encoder.
func (s *RowStore) Cardinalities() schema.Cardinalities {
	card := make(schema.Cardinalities, len(s.tables))
	for idx, st := range s.tables {
		card[idx] = len(st.decoded)
	}
	return card
}

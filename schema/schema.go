package schema

// HeapSizes carries the observed byte sizes of the four heaps, used to
// decide whether heap-index columns are 2 or 4 bytes wide.
type HeapSizes struct {
	Strings     int
	UserStrings int
	Blob        int
	GUID        int
}

// Cardinalities maps each populated table to its current row count.
type Cardinalities map[TableIndex]int

// Widths holds the frozen per-column byte widths computed for one image,
// keyed by table then column name.
type Widths struct {
	Columns map[TableIndex]map[string]int
	// HeapSizeFlags mirrors the #~ heap-sizes flag byte: bit 0 set means
	// #Strings is 4 bytes wide, bit 1 means #GUID, bit 2 means #Blob.
	HeapSizeFlags byte
}

const maxConvergenceIterations = 4

// ColumnWidth computes the byte width of a single column given the current
// cardinalities and heap sizes.
func ColumnWidth(c Column, card Cardinalities, heaps HeapSizes) int {
	switch c.Kind {
	case FixedWidth:
		return c.FixedBytes
	case HeapIndex:
		switch c.Heap {
		case HeapStrings:
			if heaps.Strings > 0xFFFF {
				return 4
			}
		case HeapUserStrings:
			if heaps.UserStrings > 0xFFFF {
				return 4
			}
		case HeapBlob:
			if heaps.Blob > 0xFFFF {
				return 4
			}
		case HeapGUID:
			if heaps.GUID > 0xFFFF {
				return 4
			}
		}
		return 2
	case TableIndexColumn:
		if card[c.Table] > 0xFFFF {
			return 4
		}
		return 2
	case CodedIndexColumn:
		info := Info(c.CodedIndex)
		maxCardinality := 0
		for _, t := range info.Tables {
			if t == unused {
				continue
			}
			if n := card[t]; n > maxCardinality {
				maxCardinality = n
			}
		}
		if uint64(maxCardinality)*(uint64(1)<<uint(info.TagBits)) > 0xFFFF {
			return 4
		}
		return 2
	default:
		return 2
	}
}

// Compute freezes column widths for every declared table given the current
// cardinalities and heap sizes. Because builder mutation can push a
// cardinality or heap size across a width threshold after a signature or row
// was already sized against the old width, callers must call Compute again
// after any change and compare against the previous Widths; convergence is
// the caller's loop (see builder.converge), bounded defensively at
// maxConvergenceIterations.
func Compute(tables map[TableIndex]TableSchema, card Cardinalities, heaps HeapSizes) Widths {
	w := Widths{Columns: make(map[TableIndex]map[string]int)}
	for idx, t := range tables {
		cols := make(map[string]int, len(t.Columns))
		for _, c := range t.Columns {
			cols[c.Name] = ColumnWidth(c, card, heaps)
		}
		w.Columns[idx] = cols
	}
	if heaps.Strings > 0xFFFF {
		w.HeapSizeFlags |= 0x01
	}
	if heaps.GUID > 0xFFFF {
		w.HeapSizeFlags |= 0x02
	}
	if heaps.Blob > 0xFFFF {
		w.HeapSizeFlags |= 0x04
	}
	return w
}

// Equal reports whether two frozen widths are identical, used by the
// builder to detect convergence.
func (w Widths) Equal(other Widths) bool {
	if w.HeapSizeFlags != other.HeapSizeFlags {
		return false
	}
	if len(w.Columns) != len(other.Columns) {
		return false
	}
	for idx, cols := range w.Columns {
		otherCols, ok := other.Columns[idx]
		if !ok || len(cols) != len(otherCols) {
			return false
		}
		for name, width := range cols {
			if otherCols[name] != width {
				return false
			}
		}
	}
	return true
}

// MaxConvergenceIterations is the defensive cap on width-recomputation
// rounds during builder write (§9's Open Question resolution): if widths
// have not stabilised after this many rounds, the builder reports
// errs.ErrBadImageFormat rather than looping forever.
func MaxConvergenceIterations() int { return maxConvergenceIterations }

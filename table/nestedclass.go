package table

// NestedClassRow is a lightweight value-type view of one NestedClass table
// row, used where callers want structural equality and a stable hash over
// the pair of tokens rather than a generic Row lookup.
type NestedClassRow struct {
	NestedClass    Token
	EnclosingClass Token
}

// Equal reports whether two NestedClassRow values reference the same pair
// of tokens.
func (r NestedClassRow) Equal(other NestedClassRow) bool {
	return r.NestedClass == other.NestedClass && r.EnclosingClass == other.EnclosingClass
}

// Hash combines the two tokens' row numbers with the classic
// hash = hash*397 ^ next accumulator, matching the fixed-point hash CLR
// tooling uses for row-pair keys.
func (r NestedClassRow) Hash() int32 {
	h := int32(r.NestedClass.RowNumber())
	h = h*397 ^ int32(r.EnclosingClass.RowNumber())
	return h
}

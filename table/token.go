// Package table implements the lazily-materialised, mutable row store
// backing every metadata table, plus the 32-bit token type rows and
// signatures reference each other by.
package table

import (
	"fmt"

	"github.com/clrmeta/clrmeta/schema"
)

// Token is a 32-bit tagged reference to a row: the high byte selects the
// table, the low 24 bits are a 1-based row number. A row number of 0 within
// any table means "null reference".
type Token uint32

// NewToken packs a table index and 1-based row number into a token.
func NewToken(idx schema.TableIndex, rowNumber uint32) (Token, error) {
	if rowNumber > 0x00FFFFFF {
		return 0, fmt.Errorf("table: row number %d does not fit a 24-bit token", rowNumber)
	}
	return Token(uint32(idx)<<24 | rowNumber), nil
}

// TableIndex returns the table this token addresses.
func (t Token) TableIndex() schema.TableIndex {
	return schema.TableIndex(t >> 24)
}

// RowNumber returns the 1-based row number this token addresses.
func (t Token) RowNumber() uint32 {
	return uint32(t) & 0x00FFFFFF
}

// IsNull reports whether this token is a null reference (row number 0).
func (t Token) IsNull() bool {
	return t.RowNumber() == 0
}

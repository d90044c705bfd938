// Package models defines data structures for crosstab comparison.
package models

// TableBounds represents the rectangular extent of the data table on a
// sheet, including the header rows/columns captured by the detection buffer.
type TableBounds struct {
	// MinRow is the first row of the table (1-based, headers included).
	MinRow int `json:"min_row"`
	// MaxRow is the last row of the table (1-based, inclusive).
	MaxRow int `json:"max_row"`
	// MinCol is the first column of the table (1-based, headers included).
	MinCol int `json:"min_col"`
	// MaxCol is the last column of the table (1-based, inclusive).
	MaxCol int `json:"max_col"`
	// DataMinRow is the first row holding data cells, before buffer expansion.
	DataMinRow int `json:"data_min_row"`
	// DataMinCol is the first column holding data cells, before buffer expansion.
	DataMinCol int `json:"data_min_col"`
}

// Contains reports whether the coordinate lies inside the bounds.
func (b TableBounds) Contains(row, col int) bool {
	return row >= b.MinRow && row <= b.MaxRow && col >= b.MinCol && col <= b.MaxCol
}

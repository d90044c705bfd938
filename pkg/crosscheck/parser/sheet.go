// Package parser turns worksheets into in-memory snapshots and derives the
// crosstab structure: table bounds, merged ranges and dimension keys.
package parser

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/normalize"
)

// ErrSheetNotFound indicates a requested sheet name absent from the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// Cell is one snapshotted worksheet cell.
type Cell struct {
	// Raw is the stored cell text, unformatted.
	Raw string
	// Display is the cell text as formatted for presentation.
	Display string
	// Filled reports an explicit background fill, the layout convention's
	// marker for header and label cells.
	Filled bool
	// Decimals is the decimal-place hint from the cell number format,
	// -1 when the format carries none.
	Decimals int
}

// Blank reports whether the cell holds no text.
func (c Cell) Blank() bool { return c.Display == "" && c.Raw == "" }

// Sheet is a fully parsed, immutable snapshot of one worksheet. The source
// file can be closed once the snapshot exists.
type Sheet struct {
	// Name is the sheet name.
	Name string
	// MaxRow is the last populated row (1-based).
	MaxRow int
	// MaxCol is the last populated column (1-based).
	MaxCol int

	cells  map[[2]int]Cell
	merges *MergeResolver
}

// builtinDecimals maps the common builtin number format ids to their
// decimal places. Format 0 is General and carries no hint.
var builtinDecimals = map[int]int{
	1: 0, 2: 2, 3: 0, 4: 2,
	9: 0, 10: 2, 11: 2,
	37: 0, 38: 0, 39: 2, 40: 2,
}

// LoadSheet snapshots one worksheet: raw and formatted cell text, fill
// flags, number-format hints and merged ranges.
func LoadSheet(f *excelize.File, sheetName string) (*Sheet, error) {
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
	}

	formatted, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheetName, err)
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheetName, err)
	}

	merges, err := NewMergeResolver(f, sheetName)
	if err != nil {
		return nil, err
	}

	s := &Sheet{
		Name:   sheetName,
		cells:  make(map[[2]int]Cell),
		merges: merges,
	}

	styleCache := make(map[int]styleInfo)
	rowCount := len(formatted)
	if len(raw) > rowCount {
		rowCount = len(raw)
	}

	for r := 0; r < rowCount; r++ {
		var frow, rrow []string
		if r < len(formatted) {
			frow = formatted[r]
		}
		if r < len(raw) {
			rrow = raw[r]
		}
		colCount := len(frow)
		if len(rrow) > colCount {
			colCount = len(rrow)
		}

		for c := 0; c < colCount; c++ {
			cell := Cell{Decimals: -1}
			if c < len(frow) {
				cell.Display = frow[c]
			}
			if c < len(rrow) {
				cell.Raw = rrow[c]
			}
			if cell.Blank() {
				continue
			}

			info := cellStyle(f, sheetName, r+1, c+1, styleCache)
			cell.Filled = info.filled
			cell.Decimals = info.decimals

			s.cells[[2]int{r + 1, c + 1}] = cell
			if r+1 > s.MaxRow {
				s.MaxRow = r + 1
			}
			if c+1 > s.MaxCol {
				s.MaxCol = c + 1
			}
		}
	}

	return s, nil
}

// Cell returns the snapshotted cell at a coordinate without merge
// resolution. The second return reports presence.
func (s *Sheet) Cell(row, col int) (Cell, bool) {
	c, ok := s.cells[[2]int{row, col}]
	return c, ok
}

// ResolvedCell returns the cell at a coordinate, resolving merged ranges to
// their anchor cell.
func (s *Sheet) ResolvedCell(row, col int) (Cell, bool) {
	if c, ok := s.cells[[2]int{row, col}]; ok {
		return c, true
	}
	ar, ac := s.merges.Anchor(row, col)
	if ar == row && ac == col {
		return Cell{Decimals: -1}, false
	}
	c, ok := s.cells[[2]int{ar, ac}]
	return c, ok
}

// ValueAt returns the displayed text at a coordinate with merged ranges
// resolved to the anchor value. Empty for blank coordinates.
func (s *Sheet) ValueAt(row, col int) string {
	c, ok := s.ResolvedCell(row, col)
	if !ok {
		return ""
	}
	return c.Display
}

type styleInfo struct {
	filled   bool
	decimals int
}

// cellStyle reads fill and number-format information for one cell, caching
// per style id since sheets reuse a handful of styles.
func cellStyle(f *excelize.File, sheetName string, row, col int, cache map[int]styleInfo) styleInfo {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return styleInfo{decimals: -1}
	}
	styleID, err := f.GetCellStyle(sheetName, name)
	if err != nil {
		return styleInfo{decimals: -1}
	}
	if info, ok := cache[styleID]; ok {
		return info
	}

	info := styleInfo{decimals: -1}
	style, err := f.GetStyle(styleID)
	if err == nil && style != nil {
		info.filled = hasBackgroundFill(style.Fill)
		info.decimals = styleDecimals(style)
	}
	cache[styleID] = info
	return info
}

// hasBackgroundFill reports whether the fill marks the cell visually.
// Automatic black/white fills count as unfilled, matching the source layout
// convention where only colored cells are headers.
func hasBackgroundFill(fill excelize.Fill) bool {
	if fill.Type != "pattern" || fill.Pattern == 0 {
		return false
	}
	if len(fill.Color) == 0 {
		return true
	}
	switch fill.Color[0] {
	case "", "FFFFFF", "FFFFFFFF", "000000", "00000000":
		return false
	}
	return true
}

func styleDecimals(style *excelize.Style) int {
	if style.CustomNumFmt != nil {
		return normalize.FormatDecimalPlaces(*style.CustomNumFmt)
	}
	if d, ok := builtinDecimals[style.NumFmt]; ok {
		return d
	}
	if style.DecimalPlaces != nil {
		return *style.DecimalPlaces
	}
	return -1
}

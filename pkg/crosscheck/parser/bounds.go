package parser

import (
	"errors"
	"math"
	"strings"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/normalize"
)

// ErrStructureNotDetected indicates a sheet with no data-cell candidates:
// no crosstab structure could be located.
var ErrStructureNotDetected = errors.New("no crosstab structure detected")

// CandidateFunc decides whether a cell may hold data rather than a header
// label. The default treats explicit background fill as the header marker;
// spreadsheet backends with other conventions inject their own.
type CandidateFunc func(c Cell) bool

// DefaultCandidate accepts unfilled cells.
func DefaultCandidate(c Cell) bool { return !c.Filled }

// DefaultExclusionKeywords mark auxiliary filter/notes sections that must
// not enter the data extent.
func DefaultExclusionKeywords() []string {
	return []string{"filtro", "filter", "nota", "notes", "fonte"}
}

// DetectConfig parameterizes table detection.
type DetectConfig struct {
	// HeaderBuffer is how many rows/columns above and left of the data
	// extent are kept for header capture.
	HeaderBuffer int
	// ExclusionKeywords mark rows/columns of auxiliary sections.
	ExclusionKeywords []string
	// Candidate decides data-cell candidacy. Nil means DefaultCandidate.
	Candidate CandidateFunc
}

// Layout is the detected structure of one sheet: the table bounds plus the
// rows/columns excluded as auxiliary sections.
type Layout struct {
	// Bounds is the detected table extent.
	Bounds models.TableBounds
	// ExcludedRows holds rows belonging to excluded sections.
	ExcludedRows map[int]bool
	// ExcludedCols holds columns belonging to excluded sections.
	ExcludedCols map[int]bool
}

// DetectBounds locates the rectangular data table of a sheet. Candidates
// are numeric, unfilled cells outside excluded sections; when that finds
// nothing the fill criterion is relaxed, mirroring the layouts where every
// cell carries a fill. Zero candidates under both passes means no structure.
func DetectBounds(sheet *Sheet, cfg DetectConfig) (*Layout, error) {
	candidate := cfg.Candidate
	if candidate == nil {
		candidate = DefaultCandidate
	}

	layout := &Layout{
		ExcludedRows: excludedRows(sheet, cfg.ExclusionKeywords),
		ExcludedCols: excludedCols(sheet, cfg.ExclusionKeywords),
	}

	cells := candidateCells(sheet, layout, candidate)
	if len(cells) == 0 {
		cells = candidateCells(sheet, layout, func(Cell) bool { return true })
	}
	if len(cells) == 0 {
		return nil, ErrStructureNotDetected
	}

	b := models.TableBounds{
		MinRow: cells[0][0], MaxRow: cells[0][0],
		MinCol: cells[0][1], MaxCol: cells[0][1],
	}
	for _, rc := range cells[1:] {
		if rc[0] < b.MinRow {
			b.MinRow = rc[0]
		}
		if rc[0] > b.MaxRow {
			b.MaxRow = rc[0]
		}
		if rc[1] < b.MinCol {
			b.MinCol = rc[1]
		}
		if rc[1] > b.MaxCol {
			b.MaxCol = rc[1]
		}
	}
	b.DataMinRow = b.MinRow
	b.DataMinCol = b.MinCol

	// Capture header rows/columns, stopping at sheet edge or at an
	// excluded section boundary.
	b.MinRow = expandEdge(b.DataMinRow, cfg.HeaderBuffer, layout.ExcludedRows)
	b.MinCol = expandEdge(b.DataMinCol, cfg.HeaderBuffer, layout.ExcludedCols)

	layout.Bounds = b
	return layout, nil
}

// expandEdge moves an edge up/left by at most buffer positions without
// entering an excluded row/column.
func expandEdge(from, buffer int, excluded map[int]bool) int {
	edge := from
	for i := 0; i < buffer; i++ {
		next := edge - 1
		if next < 1 || excluded[next] {
			break
		}
		edge = next
	}
	return edge
}

func candidateCells(sheet *Sheet, layout *Layout, candidate CandidateFunc) [][2]int {
	var cells [][2]int
	for r := 1; r <= sheet.MaxRow; r++ {
		if layout.ExcludedRows[r] {
			continue
		}
		for c := 1; c <= sheet.MaxCol; c++ {
			if layout.ExcludedCols[c] {
				continue
			}
			cell, ok := sheet.Cell(r, c)
			if !ok || cell.Blank() || !candidate(cell) {
				continue
			}
			v, err := normalize.ParseNumber(cell.Display)
			if err != nil || yearLike(v) {
				continue
			}
			cells = append(cells, [2]int{r, c})
		}
	}
	return cells
}

// yearLike reports integer values in the calendar-year range. Those label
// time dimensions in the source layouts and never hold measured data.
func yearLike(v float64) bool {
	return v == math.Trunc(v) && v >= 1800 && v <= 2100
}

func excludedRows(sheet *Sheet, keywords []string) map[int]bool {
	out := make(map[int]bool)
	for r := 1; r <= sheet.MaxRow; r++ {
		nonBlank, matched := 0, 0
		for c := 1; c <= sheet.MaxCol; c++ {
			cell, ok := sheet.Cell(r, c)
			if !ok || cell.Blank() {
				continue
			}
			nonBlank++
			if matchesKeyword(cell.Display, keywords) {
				matched++
			}
		}
		if nonBlank > 0 && matched*2 > nonBlank {
			out[r] = true
		}
	}
	return out
}

func excludedCols(sheet *Sheet, keywords []string) map[int]bool {
	out := make(map[int]bool)
	for c := 1; c <= sheet.MaxCol; c++ {
		nonBlank, matched := 0, 0
		for r := 1; r <= sheet.MaxRow; r++ {
			cell, ok := sheet.Cell(r, c)
			if !ok || cell.Blank() {
				continue
			}
			nonBlank++
			if matchesKeyword(cell.Display, keywords) {
				matched++
			}
		}
		if nonBlank > 0 && matched*2 > nonBlank {
			out[c] = true
		}
	}
	return out
}

func matchesKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

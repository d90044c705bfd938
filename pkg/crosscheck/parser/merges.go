package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// MergeResolver maps any coordinate covered by a merged range to the
// range's top-left anchor. Lookup is O(1) after preprocessing the ranges.
type MergeResolver struct {
	anchors map[[2]int][2]int
}

// NewMergeResolver preprocesses the merged ranges of a sheet.
func NewMergeResolver(f *excelize.File, sheetName string) (*MergeResolver, error) {
	ranges, err := f.GetMergeCells(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading merged ranges of %q: %w", sheetName, err)
	}

	m := &MergeResolver{anchors: make(map[[2]int][2]int)}
	for _, mr := range ranges {
		c1, r1, err := excelize.CellNameToCoordinates(mr.GetStartAxis())
		if err != nil {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(mr.GetEndAxis())
		if err != nil {
			continue
		}
		for r := r1; r <= r2; r++ {
			for c := c1; c <= c2; c++ {
				m.anchors[[2]int{r, c}] = [2]int{r1, c1}
			}
		}
	}
	return m, nil
}

// Anchor returns the anchor coordinate for a covered cell, or the
// coordinate itself when it is not part of a merged range.
func (m *MergeResolver) Anchor(row, col int) (int, int) {
	if a, ok := m.anchors[[2]int{row, col}]; ok {
		return a[0], a[1]
	}
	return row, col
}

// Covered reports whether the coordinate lies inside any merged range.
func (m *MergeResolver) Covered(row, col int) bool {
	_, ok := m.anchors[[2]int{row, col}]
	return ok
}

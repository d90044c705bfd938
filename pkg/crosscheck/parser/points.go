package parser

import (
	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/normalize"
)

// ExtractResult is the comparable point set of one sheet plus the points
// dropped for unresolved dimension tiers.
type ExtractResult struct {
	// Points are the comparable data points.
	Points []models.DataPoint
	// Unresolved counts points excluded because a tier had no label.
	Unresolved int
}

// ExtractPoints walks the data region of a detected layout and builds the
// comparable point set. Numeric cells become numeric points with display
// rounding applied; non-numeric cells inside the region become text points
// compared by equality later. Year-like integers are treated as dimension
// labels, not data. When the candidate criterion leaves the region empty
// the fill criterion is relaxed, mirroring DetectBounds.
func ExtractPoints(sheet *Sheet, layout *Layout, mapper *DimensionMapper, candidate CandidateFunc) ExtractResult {
	if candidate == nil {
		candidate = DefaultCandidate
	}
	res := extractPoints(sheet, layout, mapper, candidate)
	if len(res.Points) == 0 && res.Unresolved == 0 {
		res = extractPoints(sheet, layout, mapper, func(Cell) bool { return true })
	}
	return res
}

func extractPoints(sheet *Sheet, layout *Layout, mapper *DimensionMapper, candidate CandidateFunc) ExtractResult {
	var res ExtractResult
	b := layout.Bounds

	for r := b.DataMinRow; r <= b.MaxRow; r++ {
		if layout.ExcludedRows[r] {
			continue
		}
		for c := b.DataMinCol; c <= b.MaxCol; c++ {
			if layout.ExcludedCols[c] {
				continue
			}
			cell, ok := sheet.Cell(r, c)
			if !ok || cell.Blank() || !candidate(cell) {
				continue
			}

			point := models.DataPoint{Row: r, Col: c, Raw: cell.Raw}
			if v, err := normalize.ParseNumber(cell.Display); err == nil {
				if yearLike(v) {
					continue
				}
				point.Numeric = true
				point.Value = normalize.RoundPlaces(v, cell.Decimals)
			}

			point.Key = mapper.Key(r, c)
			if point.Key.HasUnresolved() {
				res.Unresolved++
				continue
			}
			res.Points = append(res.Points, point)
		}
	}
	return res
}

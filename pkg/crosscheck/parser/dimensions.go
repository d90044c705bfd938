package parser

import (
	"fmt"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/normalize"
)

// DimensionMapper derives the ordered dimension key of data coordinates by
// walking header tiers: row-header columns left of the data region and
// column-header rows above it. Walks never leave the table bounds.
type DimensionMapper struct {
	sheet *Sheet
	norm  *normalize.Normalizer

	// headerRows are the column-header tiers, top to bottom.
	headerRows []int
	// headerCols are the row-header tiers, left to right.
	headerCols []int
}

// NewDimensionMapper computes the header tiers for a detected layout.
// A tier is a row (column) between the bounds edge and the data region that
// carries at least one label; fully blank runs are skipped.
func NewDimensionMapper(sheet *Sheet, layout *Layout, norm *normalize.Normalizer) *DimensionMapper {
	b := layout.Bounds
	m := &DimensionMapper{sheet: sheet, norm: norm}

	for r := b.MinRow; r < b.DataMinRow; r++ {
		if layout.ExcludedRows[r] {
			continue
		}
		if rowHasLabel(sheet, r, b.MinCol, b.MaxCol) {
			m.headerRows = append(m.headerRows, r)
		}
	}
	for c := b.MinCol; c < b.DataMinCol; c++ {
		if layout.ExcludedCols[c] {
			continue
		}
		if colHasLabel(sheet, c, b.MinRow, b.MaxRow) {
			m.headerCols = append(m.headerCols, c)
		}
	}
	return m
}

// Tiers returns the number of row-header and column-header tiers.
func (m *DimensionMapper) Tiers() (rowTiers, colTiers int) {
	return len(m.headerCols), len(m.headerRows)
}

// Key builds the dimension key for one data coordinate. Blank cells along
// a walk are skipped, so sparse tiers (title rows, partially merged
// headers) contribute labels only where they carry one. An axis whose
// entire walk finds no label yields the Unresolved marker; the caller
// decides whether such points stay comparable.
func (m *DimensionMapper) Key(row, col int) models.DimensionKey {
	var key models.DimensionKey
	key.Labels = m.walk(key.Labels, "row-dim", m.headerCols, func(hc int) string {
		return m.sheet.ValueAt(row, hc)
	})
	key.Labels = m.walk(key.Labels, "col-dim", m.headerRows, func(hr int) string {
		return m.sheet.ValueAt(hr, col)
	})
	return key
}

// walk collects the non-blank tier labels of one axis in tier order.
func (m *DimensionMapper) walk(labels []models.AxisLabel, axis string, tiers []int, valueAt func(int) string) []models.AxisLabel {
	found := 0
	for _, tier := range tiers {
		text := valueAt(tier)
		if text == "" {
			continue
		}
		label := m.norm.Normalize(text)
		if label == "" {
			continue
		}
		found++
		labels = append(labels, models.AxisLabel{
			Axis:  fmt.Sprintf("%s-%d", axis, found),
			Label: label,
		})
	}
	if found == 0 && len(tiers) > 0 {
		labels = append(labels, models.AxisLabel{
			Axis:  axis + "-1",
			Label: models.Unresolved,
		})
	}
	return labels
}

func rowHasLabel(sheet *Sheet, row, minCol, maxCol int) bool {
	for c := minCol; c <= maxCol; c++ {
		if sheet.ValueAt(row, c) != "" {
			return true
		}
	}
	return false
}

func colHasLabel(sheet *Sheet, col, minRow, maxRow int) bool {
	for r := minRow; r <= maxRow; r++ {
		if sheet.ValueAt(r, col) != "" {
			return true
		}
	}
	return false
}

package models

import "strings"

// Unresolved marks a dimension tier for which no header label could be
// found inside the table bounds. Points carrying it are excluded from the
// comparable set and counted separately.
const Unresolved = "(unresolved)"

// keySep separates axis entries in the canonical key form. A control
// character keeps it from colliding with label text.
const keySep = "\x1f"

// AxisLabel is one entry of a dimension key: an axis name paired with the
// normalized label found on that axis.
type AxisLabel struct {
	// Axis is the axis name, e.g. "row-dim-1" or "col-dim-2".
	Axis string `json:"axis"`
	// Label is the normalized label text for this axis.
	Label string `json:"label"`
}

// DimensionKey is the ordered combination of dimension labels that
// identifies one data cell's meaning. Order follows tier order: row-header
// tiers left to right, then column-header tiers top to bottom.
type DimensionKey struct {
	// Labels holds the axis entries in tier order.
	Labels []AxisLabel `json:"labels"`
}

// Canonical returns a stable string form usable as a map key.
func (k DimensionKey) Canonical() string {
	parts := make([]string, len(k.Labels))
	for i, l := range k.Labels {
		parts[i] = l.Axis + "=" + l.Label
	}
	return strings.Join(parts, keySep)
}

// Concat returns the concatenated label text in axis order, used as input
// to the fuzzy similarity measure.
func (k DimensionKey) Concat() string {
	parts := make([]string, len(k.Labels))
	for i, l := range k.Labels {
		parts[i] = l.Label
	}
	return strings.Join(parts, " ")
}

// HasUnresolved reports whether any tier lacks a label.
func (k DimensionKey) HasUnresolved() bool {
	for _, l := range k.Labels {
		if l.Label == Unresolved {
			return true
		}
	}
	return false
}

// String renders the key for logs and reports.
func (k DimensionKey) String() string {
	parts := make([]string, len(k.Labels))
	for i, l := range k.Labels {
		parts[i] = l.Axis + ":" + l.Label
	}
	return strings.Join(parts, ", ")
}

// DataPoint is a single numeric cell together with its dimensional identity.
type DataPoint struct {
	// Row is the cell row (1-based).
	Row int `json:"row"`
	// Col is the cell column (1-based).
	Col int `json:"col"`
	// Raw is the cell text as stored, before numeric normalization.
	Raw string `json:"raw"`
	// Value is the displayed value: parsed and rounded per the cell's
	// number format. Meaningless when Numeric is false.
	Value float64 `json:"value"`
	// Numeric reports whether Raw parsed as a number. Non-numeric points
	// fall back to text-equality comparison.
	Numeric bool `json:"numeric"`
	// Key is the fully resolved dimension key.
	Key DimensionKey `json:"key"`
}

package models

import "time"

// MatchType classifies how a recreated point was paired with the published side.
type MatchType string

const (
	// MatchExact means the dimension keys matched exactly after normalization.
	MatchExact MatchType = "exact"
	// MatchFuzzy means the pairing came from similarity scoring above the threshold.
	MatchFuzzy MatchType = "fuzzy"
	// MatchNotFound means no published counterpart reached the threshold.
	MatchNotFound MatchType = "not_found"
	// MatchPublishedOnly means a published point was never consumed by any
	// recreated point.
	MatchPublishedOnly MatchType = "published_only"
)

// DiscrepancyRecord describes one disagreement between the two sheets.
type DiscrepancyRecord struct {
	// Published is the published-side point, nil for not_found records.
	Published *DataPoint `json:"published,omitempty"`
	// Recreated is the recreated-side point, nil for published_only records.
	Recreated *DataPoint `json:"recreated,omitempty"`
	// MatchType classifies the pairing.
	MatchType MatchType `json:"match_type"`
	// Difference is recreated minus published. Zero when either side is
	// missing or non-numeric.
	Difference float64 `json:"difference"`
	// Similarity is the fuzzy score for fuzzy pairings, zero otherwise.
	Similarity float64 `json:"similarity,omitempty"`
}

// DifferenceStats summarizes the absolute value differences of the
// discrepancies found on one sheet.
type DifferenceStats struct {
	// MeanAbs is the mean absolute difference.
	MeanAbs float64 `json:"mean_abs"`
	// MedianAbs is the median absolute difference.
	MedianAbs float64 `json:"median_abs"`
	// MaxAbs is the largest absolute difference.
	MaxAbs float64 `json:"max_abs"`
}

// MatchCounts tallies pairing outcomes for one sheet.
type MatchCounts struct {
	// Exact counts exact-key pairings (agreeing or not).
	Exact int `json:"exact"`
	// Fuzzy counts similarity pairings above the threshold.
	Fuzzy int `json:"fuzzy"`
	// NotFound counts recreated points with no counterpart.
	NotFound int `json:"not_found"`
	// PublishedOnly counts published points never consumed.
	PublishedOnly int `json:"published_only"`
}

// SheetComparisonResult holds the outcome of comparing one sheet pair.
type SheetComparisonResult struct {
	// SheetName is the compared sheet name.
	SheetName string `json:"sheet_name"`
	// Skipped reports whether the sheet could not be compared.
	Skipped bool `json:"skipped"`
	// SkipReason explains why a skipped sheet was not compared.
	SkipReason string `json:"skip_reason,omitempty"`
	// PublishedPoints is the comparable point count on the published side.
	PublishedPoints int `json:"published_points"`
	// RecreatedPoints is the comparable point count on the recreated side.
	RecreatedPoints int `json:"recreated_points"`
	// UnresolvedPublished counts published points dropped for unresolved tiers.
	UnresolvedPublished int `json:"unresolved_published"`
	// UnresolvedRecreated counts recreated points dropped for unresolved tiers.
	UnresolvedRecreated int `json:"unresolved_recreated"`
	// DuplicatePublished counts published points whose dimension key repeated
	// an earlier one; only the last point per key stayed comparable.
	DuplicatePublished int `json:"duplicate_published,omitempty"`
	// TotalPoints is the number of recreated points entering the matcher.
	TotalPoints int `json:"total_points"`
	// DiscrepancyCount is the number of discrepancy records.
	DiscrepancyCount int `json:"discrepancy_count"`
	// AccuracyRatio is 1 - DiscrepancyCount/TotalPoints, 0 for empty sheets.
	AccuracyRatio float64 `json:"accuracy_ratio"`
	// Counts tallies pairing outcomes.
	Counts MatchCounts `json:"counts"`
	// Stats summarizes absolute differences, zero-valued when no
	// numeric discrepancies exist.
	Stats DifferenceStats `json:"stats"`
	// Discrepancies lists every disagreement found.
	Discrepancies []DiscrepancyRecord `json:"discrepancies,omitempty"`
}

// ConfigSnapshot records the run configuration for the technical report sheet.
type ConfigSnapshot struct {
	// NumericTolerance is the absolute tolerance for value equality.
	NumericTolerance float64 `json:"numeric_tolerance"`
	// FuzzyThreshold is the minimum similarity for fuzzy pairing.
	FuzzyThreshold float64 `json:"fuzzy_threshold"`
	// HeaderBuffer is the header capture buffer in rows/columns.
	HeaderBuffer int `json:"header_buffer"`
	// ExclusionKeywords marks rows/columns excluded from detection.
	ExclusionKeywords []string `json:"exclusion_keywords"`
	// RuleCount is the number of label normalization rules in effect.
	RuleCount int `json:"rule_count"`
	// Concurrency is the sheet-level parallelism used for the run.
	Concurrency int `json:"concurrency"`
}

// ComparisonResult aggregates sheet results for one comparison run.
type ComparisonResult struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`
	// PublishedFile is the published workbook path.
	PublishedFile string `json:"published_file"`
	// RecreatedFile is the recreated workbook path.
	RecreatedFile string `json:"recreated_file"`
	// GeneratedAt is the run completion time.
	GeneratedAt time.Time `json:"generated_at"`
	// Config snapshots the configuration used.
	Config ConfigSnapshot `json:"config"`
	// Sheets holds per-sheet results in request order.
	Sheets []SheetComparisonResult `json:"sheets"`
	// TotalPoints sums comparable recreated points across compared sheets.
	TotalPoints int `json:"total_points"`
	// TotalDiscrepancies sums discrepancy counts across compared sheets.
	TotalDiscrepancies int `json:"total_discrepancies"`
	// OverallAccuracy is 1 - TotalDiscrepancies/TotalPoints, 0 when empty.
	OverallAccuracy float64 `json:"overall_accuracy"`
}

// ComparedSheets returns the results for sheets that were not skipped.
func (r *ComparisonResult) ComparedSheets() []SheetComparisonResult {
	out := make([]SheetComparisonResult, 0, len(r.Sheets))
	for _, s := range r.Sheets {
		if !s.Skipped {
			out = append(out, s)
		}
	}
	return out
}

// SkippedSheets returns the results for sheets that were skipped.
func (r *ComparisonResult) SkippedSheets() []SheetComparisonResult {
	var out []SheetComparisonResult
	for _, s := range r.Sheets {
		if s.Skipped {
			out = append(out, s)
		}
	}
	return out
}

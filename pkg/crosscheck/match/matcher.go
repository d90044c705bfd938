// Package match pairs extracted data points between the published and
// recreated sides of one sheet.
package match

import (
	"math"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
)

// Config parameterizes matching.
type Config struct {
	// NumericTolerance is the absolute difference under which two numeric
	// values count as equal.
	NumericTolerance float64
	// FuzzyThreshold is the minimum similarity score for a fuzzy pairing.
	FuzzyThreshold float64
}

// Result is the discrepancy set for one sheet pair plus pairing tallies.
type Result struct {
	// Records lists every disagreement, in deterministic order: recreated
	// points in extraction order, then unconsumed published points in
	// sorted key order.
	Records []models.DiscrepancyRecord
	// Counts tallies pairing outcomes.
	Counts models.MatchCounts
	// DuplicateKeys counts published points whose canonical key repeats an
	// earlier one. Only the last point per key stays comparable.
	DuplicateKeys int
}

// Compare pairs recreated points against published ones. Exact key matches
// compare values under the tolerance and record a discrepancy only when
// unequal. Recreated keys without an exact counterpart take the
// best-scoring unconsumed published key at or above the threshold; the
// pairing is always recorded since the keys disagree structurally. Keys
// below the threshold are not_found, and published points never consumed
// are reported as published_only.
func Compare(published, recreated []models.DataPoint, cfg Config) Result {
	var res Result

	index := make(map[string]*models.DataPoint, len(published))
	consumed := make(map[string]bool, len(published))
	keys := make([]string, 0, len(published))
	for i := range published {
		k := published[i].Key.Canonical()
		if _, dup := index[k]; !dup {
			keys = append(keys, k)
		} else {
			res.DuplicateKeys++
		}
		index[k] = &published[i]
	}
	// Stable candidate order makes equal-score ties reproducible.
	sort.Strings(keys)
	for i := range recreated {
		rec := &recreated[i]
		k := rec.Key.Canonical()

		if pub, ok := index[k]; ok && !consumed[k] {
			consumed[k] = true
			res.Counts.Exact++
			if !valuesEqual(pub, rec, cfg.NumericTolerance) {
				res.Records = append(res.Records, record(pub, rec, models.MatchExact, 0))
			}
			continue
		}

		bestKey, bestScore := "", 0.0
		for _, pk := range keys {
			if consumed[pk] {
				continue
			}
			pub := index[pk]
			if len(pub.Key.Labels) != len(rec.Key.Labels) {
				continue
			}
			if score := Similarity(rec.Key, pub.Key); score > bestScore {
				bestScore = score
				bestKey = pk
			}
		}

		if bestKey != "" && bestScore >= cfg.FuzzyThreshold {
			consumed[bestKey] = true
			res.Counts.Fuzzy++
			res.Records = append(res.Records, record(index[bestKey], rec, models.MatchFuzzy, bestScore))
			continue
		}

		res.Counts.NotFound++
		res.Records = append(res.Records, record(nil, rec, models.MatchNotFound, 0))
	}

	for _, pk := range keys {
		if consumed[pk] {
			continue
		}
		res.Counts.PublishedOnly++
		res.Records = append(res.Records, record(index[pk], nil, models.MatchPublishedOnly, 0))
	}
	return res
}

// Similarity scores two dimension keys by sequence similarity over their
// concatenated axis-aligned label text, in [0,1].
func Similarity(a, b models.DimensionKey) float64 {
	as := strings.ToLower(a.Concat())
	bs := strings.ToLower(b.Concat())
	if as == bs {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(as, ""), strings.Split(bs, ""))
	return m.Ratio()
}

func valuesEqual(pub, rec *models.DataPoint, tolerance float64) bool {
	if pub.Numeric && rec.Numeric {
		return math.Abs(rec.Value-pub.Value) <= tolerance
	}
	return strings.TrimSpace(pub.Raw) == strings.TrimSpace(rec.Raw)
}

func record(pub, rec *models.DataPoint, mt models.MatchType, score float64) models.DiscrepancyRecord {
	r := models.DiscrepancyRecord{MatchType: mt, Similarity: score}
	if pub != nil {
		p := *pub
		r.Published = &p
	}
	if rec != nil {
		p := *rec
		r.Recreated = &p
	}
	if pub != nil && rec != nil && pub.Numeric && rec.Numeric {
		r.Difference = rec.Value - pub.Value
	}
	return r
}

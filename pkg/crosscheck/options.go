// Package crosscheck audits pairs of crosstab spreadsheet exports and
// reports every data point whose value or placement disagrees.
package crosscheck

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/normalize"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/parser"
)

// Options configures one comparison run. The value is immutable once the
// run starts; every component receives it by value.
type Options struct {
	// NumericTolerance is the absolute difference under which two values
	// count as equal.
	NumericTolerance float64 `envconfig:"NUMERIC_TOLERANCE" default:"0.01"`
	// FuzzyThreshold is the minimum similarity in [0,1] for fuzzy pairing.
	FuzzyThreshold float64 `envconfig:"FUZZY_THRESHOLD" default:"0.8"`
	// HeaderBuffer is how many rows/columns above and left of the data
	// extent are captured for headers.
	HeaderBuffer int `envconfig:"HEADER_BUFFER" default:"5"`
	// ExclusionKeywords mark auxiliary filter/notes sections. Nil means
	// parser.DefaultExclusionKeywords.
	ExclusionKeywords []string `envconfig:"EXCLUSION_KEYWORDS"`
	// Concurrency bounds sheet-level parallelism. Values below 2 mean
	// sequential processing.
	Concurrency int `envconfig:"CONCURRENCY" default:"1"`

	// Rules is the ordered label normalization table. Nil means
	// normalize.DefaultRules.
	Rules []normalize.Rule `ignored:"true"`
	// Candidate decides data-cell candidacy per spreadsheet backend.
	// Nil means parser.DefaultCandidate.
	Candidate parser.CandidateFunc `ignored:"true"`
	// Logger receives structured progress logging. Nil means slog.Default.
	Logger *slog.Logger `ignored:"true"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		NumericTolerance: 0.01,
		FuzzyThreshold:   0.8,
		HeaderBuffer:     5,
		Concurrency:      1,
	}
}

// OptionsFromEnv returns DefaultOptions overridden by CROSSCHECK_* environment
// variables.
func OptionsFromEnv() (Options, error) {
	var o Options
	if err := envconfig.Process("CROSSCHECK", &o); err != nil {
		return Options{}, fmt.Errorf("loading options from env: %w", err)
	}
	return o, nil
}

// Validate rejects out-of-range configuration.
func (o Options) Validate() error {
	if o.NumericTolerance < 0 {
		return fmt.Errorf("numeric tolerance must be >= 0, got %g", o.NumericTolerance)
	}
	if o.FuzzyThreshold < 0 || o.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold must be in [0,1], got %g", o.FuzzyThreshold)
	}
	if o.HeaderBuffer < 0 {
		return fmt.Errorf("header buffer must be >= 0, got %d", o.HeaderBuffer)
	}
	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) exclusionKeywords() []string {
	if o.ExclusionKeywords != nil {
		return o.ExclusionKeywords
	}
	return parser.DefaultExclusionKeywords()
}

func (o Options) normalizer() *normalize.Normalizer {
	return normalize.NewNormalizer(o.Rules)
}

func (o Options) concurrency() int {
	if o.Concurrency < 2 {
		return 1
	}
	return o.Concurrency
}

func (o Options) snapshot() models.ConfigSnapshot {
	return models.ConfigSnapshot{
		NumericTolerance:  o.NumericTolerance,
		FuzzyThreshold:    o.FuzzyThreshold,
		HeaderBuffer:      o.HeaderBuffer,
		ExclusionKeywords: o.exclusionKeywords(),
		RuleCount:         o.normalizer().RuleCount(),
		Concurrency:       o.concurrency(),
	}
}

// Package normalize canonicalizes dimension labels and numeric cell text.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Rule rewrites label text. Rules are applied in table order, each pattern
// matching against the current, possibly already-rewritten string: later
// rules see earlier rewrites, so table order is part of the contract.
type Rule struct {
	// Pattern is the compiled match pattern.
	Pattern *regexp.Regexp
	// Replacement is the expansion applied for every match.
	Replacement string
}

// MustRule compiles a rule, panicking on a bad pattern. Rule tables are
// fixed at startup, so a bad pattern is a programming error.
func MustRule(pattern, replacement string) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Replacement: replacement}
}

// DefaultRules returns the canonical rule table for Portuguese statistical
// publications: blank markers fold to "Total", age ranges to "A - B",
// open-ended ranges to "A+" / "< A".
func DefaultRules() []Rule {
	return []Rule{
		MustRule(`(?i)\(em\s+branco\)`, "Total"),
		MustRule(`(?i)de\s+(\d+)\s+a\s+(\d+)`, "$1 - $2"),
		MustRule(`(?i)(\d+)\s*anos?\s*ou\s*mais`, "$1+"),
		MustRule(`(?i)menos\s+de\s+(\d+)\s*anos?`, "< $1"),
		MustRule(`^\s*-\s*$`, "Não especificado"),
		MustRule(`(?i)^n\.?\s*d\.?$`, "Não disponível"),
	}
}

// blankMarkers are label spellings that all mean the grand total tier.
var blankMarkers = map[string]struct{}{
	"":            {},
	"em branco":   {},
	"(em branco)": {},
	"blank":       {},
	"(blank)":     {},
	"vazio":       {},
	"(vazio)":     {},
	"total":       {},
	"(total)":     {},
	"totais":      {},
	"todos":       {},
	"(todos)":     {},
	"geral":       {},
	"(geral)":     {},
	"sum":         {},
	"soma":        {},
	"all":         {},
	"conjunto":    {},
}

// Normalizer applies an ordered rule table to dimension labels.
type Normalizer struct {
	rules []Rule
}

// NewNormalizer builds a Normalizer over the given rule table. A nil table
// means DefaultRules.
func NewNormalizer(rules []Rule) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// RuleCount returns the number of rules in effect.
func (n *Normalizer) RuleCount() int { return len(n.rules) }

// Normalize canonicalizes a dimension label: NFKC folding, whitespace
// collapse, blank-marker folding and then the rule table in order.
// Normalize is idempotent.
func (n *Normalizer) Normalize(label string) string {
	s := norm.NFKC.String(label)
	s = strings.Join(strings.Fields(s), " ")

	if _, ok := blankMarkers[strings.ToLower(s)]; ok {
		return "Total"
	}

	for _, r := range n.rules {
		s = r.Pattern.ReplaceAllString(s, r.Replacement)
	}

	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrNotNumeric indicates cell text that does not parse as a number under
// any of the recognized regional conventions.
var ErrNotNumeric = errors.New("value is not numeric")

// ParseNumber parses numeric cell text honoring regional separators.
// Spaces (including no-break spaces) are thousands separators; a single
// comma is a decimal separator ("30 602,0" is 30602.0). Mixed comma/dot
// text is disambiguated by whichever separator appears last.
func ParseNumber(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" || s == "-" {
		return 0, ErrNotNumeric
	}

	s = stripSpaces(s)

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas == 0 && dots <= 1:
		// Already canonical.
	case commas == 1 && dots == 0:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		// Multiple dots are thousands separators unless the last segment
		// looks like a 1-2 digit decimal part.
		parts := strings.Split(s, ".")
		last := parts[len(parts)-1]
		if len(last) <= 2 {
			s = strings.Join(parts[:len(parts)-1], "") + "." + last
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	s = stripNonNumeric(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return f, nil
}

// RoundPlaces rounds v to the given number of decimal places. Negative
// places means no display hint: v is returned unchanged.
func RoundPlaces(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// FormatDecimalPlaces derives the displayed decimal places from a number
// format string such as "#,##0.00". Returns -1 when the format carries no
// decimal hint ("General", "", formats without a decimal point).
func FormatDecimalPlaces(numFmt string) int {
	if numFmt == "" || strings.EqualFold(numFmt, "general") {
		return -1
	}
	idx := strings.IndexByte(numFmt, '.')
	if idx < 0 {
		return 0
	}
	places := 0
	for _, r := range numFmt[idx+1:] {
		if r == '0' || r == '#' {
			places++
			continue
		}
		break
	}
	return places
}

func stripSpaces(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == '-' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

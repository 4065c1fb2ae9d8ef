// Package numparse converts source cell text into numbers, independent of
// which site produced it. Failure is a nil result, never an error: the
// strategy chain treats an unparseable cell as "try the next thing".
package numparse

import (
	"strconv"
	"strings"
)

// Result is a successfully parsed cell.
type Result struct {
	// Value is the signed outer number.
	Value float64
	// Inner is the parenthesized sub-number when the cell carried one,
	// e.g. "12,345(6,789)". Nil otherwise.
	Inner *float64
	// Percent records a trailing percent marker. The value is kept as
	// written; callers divide by 100 for percentage-typed fields.
	Percent bool
}

// Fraction returns the value scaled to a fraction when a percent marker
// was present, otherwise the value unchanged.
func (r *Result) Fraction() float64 {
	if r.Percent {
		return r.Value / 100
	}
	return r.Value
}

// riseGlyphs and fallGlyphs are the directional markers the exchanges
// render in place of an explicit sign.
var (
	riseGlyphs = []string{"▲", "△", "+"}
	fallGlyphs = []string{"▼", "▽", "-"}
)

// Parse converts cell text to a number. Applied in order: strip thousands
// separators, split off a parenthesized sub-number, strip a trailing
// percent marker, resolve each part's leading directional glyph or
// explicit sign. Any remaining non-numeric residue fails the parse.
func Parse(raw string) (*Result, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "--" || s == "—" || s == "-" {
		return nil, false
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	// The parenthesized segment is split off before sign resolution so
	// each part keeps its own sign, as in "1,234(-567)".
	var inner *float64
	if open := strings.IndexByte(s, '('); open >= 0 {
		end := strings.IndexByte(s, ')')
		if end < open {
			return nil, false
		}
		iv, ok := signedValue(s[open+1 : end])
		if !ok {
			return nil, false
		}
		inner = &iv
		s = s[:open] + s[end+1:]
	}

	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSuffix(s, "%")
	}

	v, ok := signedValue(s)
	if !ok {
		return nil, false
	}

	return &Result{Value: v, Inner: inner, Percent: percent}, true
}

// signedValue resolves a directional glyph or explicit sign at the head
// of the segment. Glyphs elsewhere fail the parse rather than migrate
// the sign.
func signedValue(s string) (float64, bool) {
	sign := 1.0
	for _, g := range riseGlyphs {
		if strings.HasPrefix(s, g) {
			s = strings.TrimPrefix(s, g)
			break
		}
	}
	for _, g := range fallGlyphs {
		if strings.HasPrefix(s, g) {
			s = strings.TrimPrefix(s, g)
			sign = -1
			break
		}
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return sign * v, true
}

// NormalizeRatio corrects ratio-like values that some sources render as
// integer-scaled percentages (e.g. a put/call ratio shown as 7500 or 75
// instead of 0.75). The thresholds come from observed renderings and are
// applied only to fields flagged ratio-like in the registry.
func NormalizeRatio(v float64) float64 {
	switch {
	case v > 1000:
		return v / 10000
	case v > 100:
		return v / 100
	case v > 50:
		return v / 100
	case v > 20:
		return v / 10
	default:
		return v
	}
}

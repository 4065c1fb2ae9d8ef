// Package extract resolves fields against parsed document grids through
// an ordered strategy chain: header-keyword lookup first, positional
// fallback second, whole-document regex last. A strategy succeeds only
// when the value is found, parses, and passes the plausibility bounds;
// anything less falls through to the next strategy. The chain never
// fails: a field no strategy could resolve is simply absent from the
// result, and the pipeline fills in its typed default.
package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/twmarket/chips-cli/internal/model"
	"github.com/twmarket/chips-cli/internal/numparse"
	"github.com/twmarket/chips-cli/internal/validate"
)

// Options tunes chain behavior.
type Options struct {
	// HeaderScanRows bounds how deep the header-keyword scan looks.
	// Exchange tables put headers within the first few rows.
	HeaderScanRows int
}

// Chain extracts field values from grids.
type Chain struct {
	opts Options
}

// New builds a chain with the given options.
func New(opts Options) *Chain {
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = 6
	}
	return &Chain{opts: opts}
}

// candidate is one located raw cell, before parsing and validation.
type candidate struct {
	raw      string
	strategy model.Strategy
	conf     model.Confidence
}

// Extract resolves every field against one grid. Only successfully
// resolved fields (and their parenthesized companions) appear in the
// result.
func (c *Chain) Extract(grid model.Grid, endpoint string, fields []model.Field) map[string]model.ExtractedValue {
	out := make(map[string]model.ExtractedValue)
	for _, f := range fields {
		ev, inner, ok := c.extractField(grid, endpoint, f)
		if !ok {
			zap.L().Debug("no strategy resolved field",
				zap.String("endpoint", endpoint),
				zap.String("field", f.Name),
			)
			continue
		}
		out[f.Name] = ev
		if inner != nil {
			out[inner.FieldName] = *inner
		}
	}
	return out
}

func (c *Chain) extractField(grid model.Grid, endpoint string, f model.Field) (model.ExtractedValue, *model.ExtractedValue, bool) {
	for _, cand := range c.candidates(grid, f) {
		res, ok := numparse.Parse(cand.raw)
		if !ok {
			continue
		}
		v := transform(f, res)
		if !validate.Range(f, v) {
			zap.L().Debug("value out of bounds, trying next strategy",
				zap.String("field", f.Name),
				zap.String("strategy", string(cand.strategy)),
				zap.Float64("value", v),
			)
			continue
		}

		ev := model.ExtractedValue{
			FieldName:  f.Name,
			RawText:    cand.raw,
			Value:      v,
			Endpoint:   endpoint,
			Strategy:   cand.strategy,
			Confidence: cand.conf,
		}

		var inner *model.ExtractedValue
		if f.InnerField != "" && res.Inner != nil {
			iv := scale(f, *res.Inner)
			inner = &model.ExtractedValue{
				FieldName:  f.InnerField,
				RawText:    cand.raw,
				Value:      iv,
				Endpoint:   endpoint,
				Strategy:   cand.strategy,
				Confidence: cand.conf,
			}
		}
		return ev, inner, true
	}
	return model.ExtractedValue{}, nil, false
}

// candidates yields the raw cells each strategy locates, in chain order.
// Locating nothing contributes nothing; parse and bounds rejection are
// handled by the caller, so a strategy may contribute a candidate that
// still gets discarded.
func (c *Chain) candidates(grid model.Grid, f model.Field) []candidate {
	var cands []candidate

	if raw, conf, ok := c.byHeader(grid, f); ok {
		cands = append(cands, candidate{raw: raw, strategy: model.StrategyHeader, conf: conf})
	}
	if raw, ok := c.byPosition(grid, f); ok {
		cands = append(cands, candidate{raw: raw, strategy: model.StrategyPositional, conf: model.ConfidenceLowFallback})
	}
	if raw, ok := byPattern(grid, f, f.Pattern); ok {
		cands = append(cands, candidate{raw: raw, strategy: model.StrategyRegex, conf: model.ConfidenceLowFallback})
	}
	if raw, ok := byPattern(grid, f, f.FallbackPattern); ok {
		cands = append(cands, candidate{raw: raw, strategy: model.StrategyRegex, conf: model.ConfidenceLowFallback})
	}
	return cands
}

// byHeader finds the column whose header cell mentions one of the
// field's keywords, then reads the field's data row in that column. When
// the field declares a row selector but the document has no matching row
// (alternative endpoints render different shapes), the lookup degrades to
// the first parseable row below the header at reduced confidence.
func (c *Chain) byHeader(grid model.Grid, f model.Field) (string, model.Confidence, bool) {
	if len(f.HeaderKeywords) == 0 {
		return "", model.ConfidenceDefault, false
	}

	headerRow, col := -1, -1
	limit := min(c.opts.HeaderScanRows, len(grid.Rows))
scan:
	for r := 0; r < limit; r++ {
		for i, cell := range grid.Rows[r] {
			lower := strings.ToLower(cell)
			for _, kw := range f.HeaderKeywords {
				if strings.Contains(lower, strings.ToLower(kw)) {
					headerRow, col = r, i
					break scan
				}
			}
		}
	}
	if col < 0 {
		return "", model.ConfidenceDefault, false
	}

	if f.Selector != nil {
		if row, ok := findRow(grid, f.Selector); ok {
			raw, ok := grid.Cell(row, col)
			return raw, model.ConfidenceHigh, ok
		}
		raw, ok := firstParseableBelow(grid, headerRow, col)
		return raw, model.ConfidenceLowFallback, ok
	}

	raw, ok := firstParseableBelow(grid, headerRow, col)
	return raw, model.ConfidenceHigh, ok
}

// firstParseableBelow returns the first cell below the header row, in the
// keyed column, that parses as a number.
func firstParseableBelow(grid model.Grid, headerRow, col int) (string, bool) {
	for r := headerRow + 1; r < len(grid.Rows); r++ {
		raw, ok := grid.Cell(r, col)
		if !ok {
			continue
		}
		if _, parsed := numparse.Parse(raw); parsed {
			return raw, true
		}
	}
	return "", false
}

// byPosition reads the fixed column, on the selector row when one is
// declared, otherwise on the first row where that column parses.
func (c *Chain) byPosition(grid model.Grid, f model.Field) (string, bool) {
	if f.PositionalIndex < 0 {
		return "", false
	}

	if f.Selector != nil {
		row, ok := findRow(grid, f.Selector)
		if !ok {
			return "", false
		}
		return grid.Cell(row, f.PositionalIndex)
	}

	for r := range grid.Rows {
		raw, ok := grid.Cell(r, f.PositionalIndex)
		if !ok {
			continue
		}
		if _, parsed := numparse.Parse(raw); parsed {
			return raw, true
		}
	}
	return "", false
}

// byPattern scans the flattened document with one of the field's regexes.
func byPattern(grid model.Grid, f model.Field, pattern string) (string, bool) {
	if pattern == "" {
		return "", false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		zap.L().Warn("invalid field pattern",
			zap.String("field", f.Name),
			zap.Error(err),
		)
		return "", false
	}

	matches := re.FindAllStringSubmatch(grid.Flatten(), -1)
	if len(matches) == 0 {
		return "", false
	}
	m := matches[0]
	if f.PreferLast {
		m = matches[len(matches)-1]
	}
	if len(m) > 1 && m[1] != "" {
		return m[1], true
	}
	return m[0], true
}

// findRow applies a row selector to the grid.
func findRow(grid model.Grid, sel *model.RowSelector) (int, bool) {
	start := 0
	if len(sel.Section) > 0 {
		start = -1
		for r := range grid.Rows {
			if containsAny(grid.RowText(r), sel.Section) {
				start = r
				break
			}
		}
		if start < 0 {
			return 0, false
		}
	}

	for r := start; r < len(grid.Rows); r++ {
		cell, ok := grid.Cell(r, sel.CellIndex)
		if !ok {
			continue
		}
		if len(sel.CellEquals) > 0 && !equalsAny(cell, sel.CellEquals) {
			continue
		}
		if len(sel.CellContains) > 0 && !containsAny(cell, sel.CellContains) {
			continue
		}
		if len(sel.CellEquals) == 0 && len(sel.CellContains) == 0 {
			continue
		}
		if len(sel.SkipContains) > 0 {
			skipCell, ok := grid.Cell(r, sel.SkipIndex)
			if ok && containsAny(skipCell, sel.SkipContains) {
				continue
			}
		}
		return r, true
	}
	return 0, false
}

func equalsAny(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsAny(s string, set []string) bool {
	for _, v := range set {
		if strings.Contains(s, v) {
			return true
		}
	}
	return false
}

// transform converts a parsed number into the field's semantic scale.
// Ratio-like fields run the scale-correction heuristic; percentages
// become fractions; currency amounts are divided down to their quoted
// unit.
func transform(f model.Field, res *numparse.Result) float64 {
	v := res.Value
	if res.Percent {
		v /= 100
	}
	switch {
	case f.RatioLike:
		v = numparse.NormalizeRatio(v)
	case f.Type == model.TypePercentage && !res.Percent:
		v /= 100
	}
	return scale(f, v)
}

func scale(f model.Field, v float64) float64 {
	if f.UnitScale > 1 {
		return v / f.UnitScale
	}
	return v
}

package model

// SemanticType classifies what a field's numeric value means.
type SemanticType string

const (
	TypeSignedFloat    SemanticType = "signed_float"
	TypeInteger        SemanticType = "integer"
	TypePercentage     SemanticType = "percentage"
	TypeCurrencyAmount SemanticType = "currency_amount"
)

// Confidence is the quality tag attached to every extracted value.
type Confidence string

const (
	ConfidenceHigh        Confidence = "high"
	ConfidenceLowFallback Confidence = "low_fallback"
	ConfidenceDefault     Confidence = "default"
)

// AtLeast reports whether c meets the given minimum level.
// Ordering: default < low_fallback < high.
func (c Confidence) AtLeast(min Confidence) bool {
	return c.rank() >= min.rank()
}

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceLowFallback:
		return 1
	default:
		return 0
	}
}

// Strategy names the extraction strategy that produced a value.
type Strategy string

const (
	StrategyHeader     Strategy = "header"
	StrategyPositional Strategy = "positional"
	StrategyRegex      Strategy = "regex"
	StrategyComputed   Strategy = "computed"
	StrategyRepair     Strategy = "consistency_repair"
	StrategyDefault    Strategy = "default"
)

// RowSelector locates the data row for a field inside a document grid.
// When Section is set, matching starts at the first row whose joined text
// contains a section marker, inclusive (e.g. the contract-name row in the
// institutional positions table, which is itself a data row).
type RowSelector struct {
	Section      []string `yaml:"section,omitempty"`
	CellIndex    int      `yaml:"cell_index"`
	CellEquals   []string `yaml:"cell_equals,omitempty"`
	CellContains []string `yaml:"cell_contains,omitempty"`
	SkipIndex    int      `yaml:"skip_index"`
	SkipContains []string `yaml:"skip_contains,omitempty"`
}

// Field describes one extractable metric: its semantic type, the hints the
// strategy chain uses to find it, and the bounds the validator enforces.
type Field struct {
	Name           string       `yaml:"name"`
	Type           SemanticType `yaml:"type"`
	HeaderKeywords []string     `yaml:"header_keywords,omitempty"`
	Selector       *RowSelector `yaml:"selector,omitempty"`
	// PositionalIndex is the fixed column used when no header keyword
	// matches. Negative disables the positional strategy.
	PositionalIndex int    `yaml:"positional_index"`
	Pattern         string `yaml:"pattern,omitempty"`
	// FallbackPattern is tried when Pattern matches nothing, for sources
	// that sometimes drop the anchoring label around the value.
	FallbackPattern string `yaml:"fallback_pattern,omitempty"`
	PreferLast      bool   `yaml:"prefer_last,omitempty"`
	// RatioLike enables the scale-correction heuristic for ratios that
	// some sources render as integer-scaled percentages.
	RatioLike bool `yaml:"ratio_like,omitempty"`
	// UnitScale divides the parsed magnitude (e.g. 1e8 converts TWD to
	// hundreds of millions). Zero or one means no scaling.
	UnitScale float64 `yaml:"unit_scale,omitempty"`
	// InnerField, when set, names the companion field populated from a
	// parenthesized sub-number in the same cell, e.g. "12,345(6,789)".
	InnerField string  `yaml:"inner_field,omitempty"`
	Default    float64 `yaml:"default"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
}

// Bounded reports whether the field carries a usable [min, max] range.
func (f Field) Bounded() bool {
	return f.Min != 0 || f.Max != 0
}

// ExtractedValue is the provenance-tagged outcome of extracting one field
// from one document. Instances are never mutated; a superseding value is a
// new instance.
type ExtractedValue struct {
	FieldName  string     `json:"field_name"`
	RawText    string     `json:"raw_text"`
	Value      float64    `json:"value"`
	Endpoint   string     `json:"endpoint_used"`
	Strategy   Strategy   `json:"strategy_used"`
	Confidence Confidence `json:"confidence"`
}

// DefaultValue builds the typed default for a field, used when every
// strategy on every endpoint has failed. This is an expected outcome, not
// an error.
func DefaultValue(f Field) ExtractedValue {
	return ExtractedValue{
		FieldName:  f.Name,
		Value:      f.Default,
		Strategy:   StrategyDefault,
		Confidence: ConfidenceDefault,
	}
}

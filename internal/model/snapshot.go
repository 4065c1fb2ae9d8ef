package model

import "time"

// DateLayout is the canonical trading-date key format.
const DateLayout = "2006-01-02"

// Snapshot is the finalized per-trading-date aggregate of all extracted and
// derived values. TradingDate is its only identity key: re-running a date
// upserts, never duplicates. Owned exclusively by the pipeline; read-only
// to everything else.
type Snapshot struct {
	TradingDate string                    `json:"trading_date"`
	Metrics     map[string]ExtractedValue `json:"metric_values"`
	Derived     map[string]float64        `json:"derived_values"`
	ComputedAt  time.Time                 `json:"computed_at"`
	Finalized   bool                      `json:"is_finalized"`
}

// NewSnapshot creates an empty snapshot for a trading date.
func NewSnapshot(date time.Time) *Snapshot {
	return &Snapshot{
		TradingDate: date.Format(DateLayout),
		Metrics:     make(map[string]ExtractedValue),
		Derived:     make(map[string]float64),
	}
}

// Metric returns the extracted value for a field, or a zero default-tagged
// value when the field is absent.
func (s *Snapshot) Metric(name string) ExtractedValue {
	if v, ok := s.Metrics[name]; ok {
		return v
	}
	return ExtractedValue{FieldName: name, Strategy: StrategyDefault, Confidence: ConfidenceDefault}
}

// MetricValue is a shorthand for Metric(name).Value.
func (s *Snapshot) MetricValue(name string) float64 {
	return s.Metric(name).Value
}

// ChangeRecord is the day-over-day delta for one field, recomputed from two
// snapshots on demand and never persisted on its own.
type ChangeRecord struct {
	FieldName string  `json:"field_name"`
	Today     float64 `json:"today_value"`
	Previous  float64 `json:"previous_value"`
	Delta     float64 `json:"delta"`
}

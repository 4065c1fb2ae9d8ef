package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twmarket/chips-cli/internal/model"
)

func TestRange(t *testing.T) {
	f := model.Field{Name: "pc_ratio", Min: 0, Max: 10}
	assert.True(t, Range(f, 0.75))
	assert.True(t, Range(f, 0))
	assert.True(t, Range(f, 10))
	assert.False(t, Range(f, -0.1))
	assert.False(t, Range(f, 7500))

	unbounded := model.Field{Name: "foreign_net"}
	assert.True(t, Range(unbounded, -1e12))
}

func extracted(name string, v float64, conf model.Confidence) model.ExtractedValue {
	return model.ExtractedValue{
		FieldName:  name,
		Value:      v,
		Endpoint:   "bfi82u",
		Strategy:   model.StrategyHeader,
		Confidence: conf,
	}
}

func TestReconcileConsistentGroup(t *testing.T) {
	cg := model.ConsistencyGroup{
		Components: []string{"dealer_net", "trust_net", "foreign_net"},
		Total:      "inst_total",
		Epsilon:    0.5,
	}
	values := map[string]model.ExtractedValue{
		"dealer_net":  extracted("dealer_net", 10, model.ConfidenceHigh),
		"trust_net":   extracted("trust_net", -3, model.ConfidenceHigh),
		"foreign_net": extracted("foreign_net", 5, model.ConfidenceHigh),
		"inst_total":  extracted("inst_total", 12, model.ConfidenceHigh),
	}

	repairs, ok := Reconcile(cg, values)
	assert.True(t, ok)
	assert.Empty(t, repairs)
}

func TestReconcileRepairsSingleAnomaly(t *testing.T) {
	cg := model.ConsistencyGroup{
		Components: []string{"dealer_net", "trust_net", "foreign_net"},
		Total:      "inst_total",
		Epsilon:    0.5,
	}
	values := map[string]model.ExtractedValue{
		"dealer_net":  extracted("dealer_net", 10, model.ConfidenceHigh),
		"trust_net":   extracted("trust_net", -3, model.ConfidenceHigh),
		"foreign_net": extracted("foreign_net", 0, model.ConfidenceDefault),
		"inst_total":  extracted("inst_total", 12, model.ConfidenceHigh),
	}

	repairs, ok := Reconcile(cg, values)
	require.True(t, ok)
	require.Contains(t, repairs, "foreign_net")

	got := repairs["foreign_net"]
	assert.InDelta(t, 5.0, got.Value, 1e-9)
	assert.Equal(t, model.StrategyRepair, got.Strategy)
	assert.Equal(t, model.ConfidenceLowFallback, got.Confidence)

	// Originals untouched.
	assert.Equal(t, model.ConfidenceDefault, values["foreign_net"].Confidence)
}

func TestReconcileInconsistentWithoutAnomalyDemotes(t *testing.T) {
	cg := model.ConsistencyGroup{
		Components: []string{"a", "b"},
		Total:      "t",
		Epsilon:    0.5,
	}
	values := map[string]model.ExtractedValue{
		"a": extracted("a", 1, model.ConfidenceHigh),
		"b": extracted("b", 2, model.ConfidenceHigh),
		"t": extracted("t", 100, model.ConfidenceHigh),
	}

	repairs, ok := Reconcile(cg, values)
	assert.False(t, ok)

	// The displayed figures stand, flagged as disagreeing.
	require.Len(t, repairs, 3)
	for _, name := range []string{"a", "b", "t"} {
		got := repairs[name]
		assert.Equal(t, values[name].Value, got.Value)
		assert.Equal(t, model.ConfidenceLowFallback, got.Confidence)
	}

	// Originals untouched.
	assert.Equal(t, model.ConfidenceHigh, values["a"].Confidence)
}

func TestReconcileSkipsWhenTotalUntrusted(t *testing.T) {
	cg := model.ConsistencyGroup{
		Components: []string{"a", "b"},
		Total:      "t",
	}
	values := map[string]model.ExtractedValue{
		"a": extracted("a", 1, model.ConfidenceHigh),
		"b": extracted("b", 0, model.ConfidenceDefault),
		"t": extracted("t", 0, model.ConfidenceDefault),
	}

	repairs, ok := Reconcile(cg, values)
	assert.True(t, ok)
	assert.Empty(t, repairs)
}

func TestReconcileTooManyAnomalies(t *testing.T) {
	cg := model.ConsistencyGroup{
		Components: []string{"a", "b", "c"},
		Total:      "t",
	}
	values := map[string]model.ExtractedValue{
		"a": extracted("a", 1, model.ConfidenceHigh),
		"b": extracted("b", 0, model.ConfidenceDefault),
		"c": extracted("c", 0, model.ConfidenceDefault),
		"t": extracted("t", 10, model.ConfidenceHigh),
	}

	repairs, ok := Reconcile(cg, values)
	assert.False(t, ok)
	assert.Empty(t, repairs)
}

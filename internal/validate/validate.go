// Package validate rejects implausible extractions so the strategy chain
// can fall through to its next candidate, and repairs component/total
// inconsistencies across grouped fields.
package validate

import (
	"math"

	"go.uber.org/zap"

	"github.com/twmarket/chips-cli/internal/model"
)

// Range reports whether a value lies inside the field's configured
// [min, max]. Fields without bounds accept everything.
func Range(f model.Field, v float64) bool {
	if !f.Bounded() {
		return true
	}
	return v >= f.Min && v <= f.Max
}

// Reconcile checks one consistency group against already-extracted values:
// the components must sum to the stated total within epsilon. When exactly
// one component is anomalous (resolved to its default), it is recomputed as
// total - sum(others) and returned as a new repaired value; the originals
// are never mutated. When every member extracted but the figures disagree,
// the displayed values stand, demoted to low-fallback confidence so the
// disagreement is visible downstream. The returned map holds replacement
// values for the caller to apply.
//
// The second return is false when the group could not be brought into
// agreement.
func Reconcile(cg model.ConsistencyGroup, values map[string]model.ExtractedValue) (map[string]model.ExtractedValue, bool) {
	total, ok := values[cg.Total]
	if !ok || total.Confidence == model.ConfidenceDefault {
		// No trustworthy aggregate to reconcile against.
		return nil, true
	}

	eps := cg.Epsilon
	if eps <= 0 {
		eps = 1e-6
	}

	var sum float64
	var anomalous []string
	for _, name := range cg.Components {
		v, ok := values[name]
		if !ok || v.Confidence == model.ConfidenceDefault {
			anomalous = append(anomalous, name)
			continue
		}
		sum += v.Value
	}

	switch len(anomalous) {
	case 0:
		if math.Abs(sum-total.Value) <= eps {
			return nil, true
		}
		zap.L().Warn("validate: component sum disagrees with stated total",
			zap.String("total_field", cg.Total),
			zap.Float64("sum", sum),
			zap.Float64("total", total.Value),
		)
		return demote(cg, values), false
	case 1:
		name := anomalous[0]
		repaired := model.ExtractedValue{
			FieldName:  name,
			Value:      total.Value - sum,
			Endpoint:   total.Endpoint,
			Strategy:   model.StrategyRepair,
			Confidence: model.ConfidenceLowFallback,
		}
		zap.L().Info("validate: recomputed anomalous component from total",
			zap.String("field", name),
			zap.Float64("value", repaired.Value),
		)
		return map[string]model.ExtractedValue{name: repaired}, true
	default:
		zap.L().Warn("validate: too many anomalous components to repair",
			zap.String("total_field", cg.Total),
			zap.Strings("anomalous", anomalous),
		)
		return nil, false
	}
}

// demote returns low-fallback copies of the group's high-confidence
// members.
func demote(cg model.ConsistencyGroup, values map[string]model.ExtractedValue) map[string]model.ExtractedValue {
	out := make(map[string]model.ExtractedValue)
	for _, name := range append(append([]string(nil), cg.Components...), cg.Total) {
		v, ok := values[name]
		if !ok || v.Confidence != model.ConfidenceHigh {
			continue
		}
		v.Confidence = model.ConfidenceLowFallback
		out[name] = v
	}
	return out
}

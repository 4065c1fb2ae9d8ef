package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/twmarket/chips-cli/internal/model"
)

func metric(name string, v float64, conf model.Confidence) model.ExtractedValue {
	return model.ExtractedValue{FieldName: name, Value: v, Strategy: model.StrategyHeader, Confidence: conf}
}

func TestBasis(t *testing.T) {
	metrics := map[string]model.ExtractedValue{
		"tx_close":    metric("tx_close", 23432, model.ConfidenceHigh),
		"taiex_close": metric("taiex_close", 23456.78, model.ConfidenceLowFallback),
	}
	d := Compute(metrics)
	assert.InDelta(t, -24.78, d["basis"], 1e-9)
}

func TestBasisNeutralWhenLegDefaulted(t *testing.T) {
	metrics := map[string]model.ExtractedValue{
		"tx_close":    metric("tx_close", 23432, model.ConfidenceHigh),
		"taiex_close": metric("taiex_close", 0, model.ConfidenceDefault),
	}
	d := Compute(metrics)
	assert.Zero(t, d["basis"])

	delete(metrics, "taiex_close")
	d = Compute(metrics)
	assert.Zero(t, d["basis"])
}

func TestRetailRatio(t *testing.T) {
	metrics := map[string]model.ExtractedValue{
		"mtx_dealer_oi_net":  metric("mtx_dealer_oi_net", -2000, model.ConfidenceHigh),
		"mtx_trust_oi_net":   metric("mtx_trust_oi_net", 500, model.ConfidenceHigh),
		"mtx_foreign_oi_net": metric("mtx_foreign_oi_net", -8500, model.ConfidenceHigh),
		"mtx_market_oi":      metric("mtx_market_oi", 50000, model.ConfidenceHigh),
	}
	d := Compute(metrics)
	// Institutions net short 10000 of 50000 OI: retail is 20% long.
	assert.InDelta(t, 20.0, d["mtx_retail_ratio"], 1e-9)
}

func TestRetailRatioFloorsOpenInterest(t *testing.T) {
	metrics := map[string]model.ExtractedValue{
		"tmf_foreign_oi_net": metric("tmf_foreign_oi_net", -3, model.ConfidenceHigh),
	}
	d := Compute(metrics)
	assert.InDelta(t, 300.0, d["tmf_retail_ratio"], 1e-9)
}

func TestTopTenAndDealerNets(t *testing.T) {
	metrics := map[string]model.ExtractedValue{
		"top10_traders_buy":  metric("top10_traders_buy", 45120, model.ConfidenceHigh),
		"top10_traders_sell": metric("top10_traders_sell", 43000, model.ConfidenceHigh),
		"top10_specific_buy": metric("top10_specific_buy", 23456, model.ConfidenceHigh),
		"dealer_self_net":    metric("dealer_self_net", 12.5, model.ConfidenceHigh),
		"dealer_hedge_net":   metric("dealer_hedge_net", -40.25, model.ConfidenceHigh),
	}
	d := Compute(metrics)
	assert.InDelta(t, 2120, d["top10_net"], 1e-9)
	assert.InDelta(t, 23456, d["top10_specific_net"], 1e-9)
	assert.InDelta(t, -27.75, d["dealer_net"], 1e-9)
}

func TestComputeOnEmptyMetrics(t *testing.T) {
	d := Compute(map[string]model.ExtractedValue{})
	assert.Zero(t, d["basis"])
	assert.Zero(t, d["top10_net"])
	assert.Zero(t, d["mtx_retail_ratio"])
}

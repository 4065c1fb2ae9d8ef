// Package derive computes the second-order indicators from a snapshot's
// extracted metrics. Derivations are total: missing or defaulted inputs
// produce the indicator's neutral value, never an error.
package derive

import (
	"math"

	"github.com/twmarket/chips-cli/internal/model"
)

// Compute builds the full derived-indicator map from extracted metrics.
func Compute(metrics map[string]model.ExtractedValue) map[string]float64 {
	d := make(map[string]float64)

	d["basis"] = basis(metrics)
	d["dealer_net"] = sum(metrics, "dealer_self_net", "dealer_hedge_net")
	d["top10_net"] = diff(metrics, "top10_traders_buy", "top10_traders_sell")
	d["top10_specific_net"] = diff(metrics, "top10_specific_buy", "top10_specific_sell")
	d["mtx_retail_ratio"] = retailRatio(metrics, "mtx")
	d["tmf_retail_ratio"] = retailRatio(metrics, "tmf")

	return d
}

// basis is the near-month futures premium over the cash index. Both legs
// must have been genuinely extracted; a defaulted leg would fabricate a
// violent basis move, so the indicator goes neutral instead.
func basis(metrics map[string]model.ExtractedValue) float64 {
	fut, futOK := trusted(metrics, "tx_close")
	idx, idxOK := trusted(metrics, "taiex_close")
	if !futOK || !idxOK {
		return 0
	}
	return fut - idx
}

// retailRatio estimates small-trader positioning in a contract as the
// inverse of the three institutional nets, relative to whole-market open
// interest. The denominator is floored at one contract so a missing OI
// figure degrades to a meaningless-but-finite number instead of dividing
// by zero.
func retailRatio(metrics map[string]model.ExtractedValue, prefix string) float64 {
	inst := sum(metrics,
		prefix+"_dealer_oi_net",
		prefix+"_trust_oi_net",
		prefix+"_foreign_oi_net",
	)
	oi := value(metrics, prefix+"_market_oi")
	return -inst / math.Max(oi, 1) * 100
}

func trusted(metrics map[string]model.ExtractedValue, name string) (float64, bool) {
	ev, ok := metrics[name]
	if !ok || !ev.Confidence.AtLeast(model.ConfidenceLowFallback) {
		return 0, false
	}
	return ev.Value, true
}

func value(metrics map[string]model.ExtractedValue, name string) float64 {
	return metrics[name].Value
}

func sum(metrics map[string]model.ExtractedValue, names ...string) float64 {
	var total float64
	for _, n := range names {
		total += value(metrics, n)
	}
	return total
}

func diff(metrics map[string]model.ExtractedValue, a, b string) float64 {
	return value(metrics, a) - value(metrics, b)
}

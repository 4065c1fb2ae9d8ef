package registry

import "github.com/twmarket/chips-cli/internal/model"

// Builtin returns the compiled-in metric groups covering the TWSE and
// TAIFEX daily publications. A YAML registry file can replace any group
// by name; everything else stays as defined here.
func Builtin() []model.MetricGroup {
	return []model.MetricGroup{
		indexSummary(),
		marketVolume(),
		institutionalFlows(),
		futuresQuote(),
		institutionalFutures(),
		topTraders(),
		optionPositions(),
		pcRatio(),
		vix(),
	}
}

// indexSummary reads the TAIEX closing level from the TWSE after-trading
// index table.
func indexSummary() model.MetricGroup {
	return model.MetricGroup{
		Name: "index_summary",
		Endpoints: []model.Endpoint{
			{
				Name:       "twse_mi_index_ind",
				Method:     "GET",
				URL:        "https://www.twse.com.tw/rwd/zh/afterTrading/MI_INDEX",
				Params:     map[string]string{"date": "{date}", "type": "IND", "response": "html"},
				Shape:      model.ShapeHTMLTable,
				Rank:       0,
				DateFormat: "20060102",
			},
		},
		Fields: []model.Field{
			{
				Name:           "taiex_close",
				Type:           model.TypeSignedFloat,
				HeaderKeywords: []string{"收盤指數"},
				Selector: &model.RowSelector{
					CellIndex:  0,
					CellEquals: []string{"發行量加權股價指數"},
				},
				PositionalIndex: 1,
				Min:             1000,
				Max:             100000,
			},
			{
				Name:           "taiex_change",
				Type:           model.TypeSignedFloat,
				HeaderKeywords: []string{"漲跌點數"},
				Selector: &model.RowSelector{
					CellIndex:  0,
					CellEquals: []string{"發行量加權股價指數"},
				},
				PositionalIndex: 3,
				Min:             -3000,
				Max:             3000,
			},
			{
				Name:           "taiex_change_pct",
				Type:           model.TypePercentage,
				HeaderKeywords: []string{"漲跌百分比"},
				Selector: &model.RowSelector{
					CellIndex:  0,
					CellEquals: []string{"發行量加權股價指數"},
				},
				PositionalIndex: 4,
				Min:             -0.2,
				Max:             0.2,
			},
		},
	}
}

// marketVolume reads total market turnover, scaled to hundreds of
// millions of TWD the way the daily summaries quote it.
func marketVolume() model.MetricGroup {
	return model.MetricGroup{
		Name: "market_volume",
		Endpoints: []model.Endpoint{
			{
				Name:       "twse_mi_index_ms",
				Method:     "GET",
				URL:        "https://www.twse.com.tw/rwd/zh/afterTrading/MI_INDEX",
				Params:     map[string]string{"date": "{date}", "type": "MS", "response": "html"},
				Shape:      model.ShapeHTMLTable,
				Rank:       0,
				DateFormat: "20060102",
			},
		},
		Fields: []model.Field{
			{
				Name:           "market_turnover",
				Type:           model.TypeCurrencyAmount,
				HeaderKeywords: []string{"成交金額"},
				Selector: &model.RowSelector{
					CellIndex:    0,
					CellContains: []string{"總計"},
				},
				PositionalIndex: 1,
				UnitScale:       1e8,
				Min:             100,
				Max:             100000,
			},
		},
	}
}

// institutionalFlows reads the three institutional investors' daily net
// buy/sell amounts in the cash market, scaled to hundreds of millions.
func institutionalFlows() model.MetricGroup {
	instField := func(name string, marker string) model.Field {
		return model.Field{
			Name:           name,
			Type:           model.TypeSignedFloat,
			HeaderKeywords: []string{"買賣差額"},
			Selector: &model.RowSelector{
				CellIndex:    0,
				CellContains: []string{marker},
			},
			PositionalIndex: 3,
			UnitScale:       1e8,
			Min:             -5000,
			Max:             5000,
		}
	}
	return model.MetricGroup{
		Name: "institutional_flows",
		Endpoints: []model.Endpoint{
			{
				Name:       "twse_bfi82u",
				Method:     "GET",
				URL:        "https://www.twse.com.tw/rwd/zh/fund/BFI82U",
				Params:     map[string]string{"type": "day", "dayDate": "{date}", "response": "html"},
				Shape:      model.ShapeHTMLTable,
				Rank:       0,
				DateFormat: "20060102",
			},
		},
		Fields: []model.Field{
			instField("dealer_self_net", "自營商(自行買賣)"),
			instField("dealer_hedge_net", "自營商(避險)"),
			instField("trust_net", "投信"),
			instField("foreign_net", "外資及陸資"),
			instField("inst_total", "合計"),
		},
		Consistency: []model.ConsistencyGroup{
			{
				Components: []string{"dealer_self_net", "dealer_hedge_net", "trust_net", "foreign_net"},
				Total:      "inst_total",
				Epsilon:    1.0,
			},
		},
	}
}

// futuresQuote reads the near-month TX settlement from the TAIFEX daily
// market report, skipping weekly contracts. The minimal JSON quote feed
// serves as the alternative source.
func futuresQuote() model.MetricGroup {
	txSelector := &model.RowSelector{
		CellIndex:    0,
		CellEquals:   []string{"TX"},
		SkipIndex:    1,
		SkipContains: []string{"W"},
	}
	return model.MetricGroup{
		Name: "futures_quote",
		Endpoints: []model.Endpoint{
			{
				Name:       "taifex_daily_report",
				Method:     "POST",
				URL:        "https://www.taifex.com.tw/cht/3/futDailyMarketReport",
				Params:     map[string]string{"queryType": "2", "marketCode": "0", "commodity_id": "TX", "queryDate": "{date}"},
				Shape:      model.ShapeHTMLTable,
				Rank:       0,
				DateFormat: "2006/01/02",
			},
			{
				Name:   "taifex_chart_quote",
				Method: "GET",
				URL:    "https://www.taifex.com.tw/cht/app/chartQuote",
				Params: map[string]string{
					"weight":         "0",
					"up_resolution":  "5",
					"rowcount":       "1",
					"type":           "1",
					"commodity_id":   "TX",
					"datemode":       "0",
					"queryStartDate": "{date}",
					"queryEndDate":   "{date}",
				},
				Shape:      model.ShapeJSONRows,
				Rank:       1,
				DateFormat: "2006/01/02",
			},
		},
		Fields: []model.Field{
			{
				Name:            "tx_close",
				Type:            model.TypeSignedFloat,
				HeaderKeywords:  []string{"收盤價", "Close"},
				Selector:        txSelector,
				PositionalIndex: 5,
				Min:             1000,
				Max:             100000,
			},
			{
				Name:            "tx_close_prev",
				Type:            model.TypeSignedFloat,
				HeaderKeywords:  []string{"ClosePrevious"},
				PositionalIndex: -1,
				Min:             1000,
				Max:             100000,
			},
			{
				Name:            "tx_change",
				Type:            model.TypeSignedFloat,
				HeaderKeywords:  []string{"漲跌價"},
				Selector:        txSelector,
				PositionalIndex: 6,
				Min:             -3000,
				Max:             3000,
			},
			{
				Name:            "tx_volume",
				Type:            model.TypeInteger,
				HeaderKeywords:  []string{"成交量", "Volume"},
				Selector:        txSelector,
				PositionalIndex: 9,
				Min:             0,
				Max:             10000000,
			},
		},
		// The chart feed has no change column; close = previous + change
		// recovers it from ClosePrevious on that source.
		Consistency: []model.ConsistencyGroup{
			{Components: []string{"tx_close_prev", "tx_change"}, Total: "tx_close", Epsilon: 1},
		},
	}
}

// institutionalFutures reads per-identity net open interest in the TX,
// MTX and TMF contracts. The Excel download is the primary source; the
// HTML rendition of the same table backs it up.
func institutionalFutures() model.MetricGroup {
	oiField := func(name, section, identity string) model.Field {
		return model.Field{
			Name: name,
			Type: model.TypeInteger,
			Selector: &model.RowSelector{
				Section:      []string{section},
				CellIndex:    2,
				CellContains: []string{identity},
			},
			PositionalIndex: 13,
			Min:             -500000,
			Max:             500000,
		}
	}
	return model.MetricGroup{
		Name: "institutional_futures",
		Endpoints: []model.Endpoint{
			{
				Name:       "taifex_fut_contracts_xlsx",
				Method:     "POST",
				URL:        "https://www.taifex.com.tw/cht/3/futContractsDateExcel",
				Params:     map[string]string{"queryType": "1", "queryDate": "{date}"},
				Shape:      model.ShapeXLSX,
				Rank:       0,
				DateFormat: "2006/01/02",
			},
			{
				Name:       "taifex_fut_contracts_html",
				Method:     "POST",
				URL:        "https://www.taifex.com.tw/cht/3/futContractsDate",
				Params:     map[string]string{"queryType": "1", "queryDate": "{date}"},
				Shape:      model.ShapeHTMLTable,
				Rank:       1,
				DateFormat: "2006/01/02",
			},
		},
		Fields: []model.Field{
			oiField("tx_dealer_oi_net", "臺股期貨", "自營商"),
			oiField("tx_trust_oi_net", "臺股期貨", "投信"),
			oiField("tx_foreign_oi_net", "臺股期貨", "外資"),
			oiField("mtx_dealer_oi_net", "小型臺指期貨", "自營商"),
			oiField("mtx_trust_oi_net", "小型臺指期貨", "投信"),
			oiField("mtx_foreign_oi_net", "小型臺指期貨", "外資"),
			oiField("tmf_dealer_oi_net", "微型臺指期貨", "自營商"),
			oiField("tmf_trust_oi_net", "微型臺指期貨", "投信"),
			oiField("tmf_foreign_oi_net", "微型臺指期貨", "外資"),
		},
	}
}

// topTraders reads the top-ten trader buy/sell positions (with the
// specific-institution sub-figures in parentheses) and the whole-market
// open interest per contract.
func topTraders() model.MetricGroup {
	marketOI := func(name, section string) model.Field {
		return model.Field{
			Name:           name,
			Type:           model.TypeInteger,
			HeaderKeywords: []string{"全市場未沖銷部位數"},
			Selector: &model.RowSelector{
				Section:      []string{section},
				CellIndex:    1,
				CellContains: []string{"所有"},
			},
			PositionalIndex: 6,
			Min:             0,
			Max:             10000000,
		}
	}
	return model.MetricGroup{
		Name: "top_traders",
		Endpoints: []model.Endpoint{
			{
				Name:       "taifex_large_trader",
				Method:     "POST",
				URL:        "https://www.taifex.com.tw/cht/3/largeTraderFutQryTbl",
				Params:     map[string]string{"queryDate": "{date}", "contractId": "TX"},
				Shape:      model.ShapeHTMLTable,
				Rank:       0,
				DateFormat: "2006/01/02",
			},
		},
		Fields: []model.Field{
			{
				Name:           "top10_traders_buy",
				Type:           model.TypeInteger,
				HeaderKeywords: []string{"前十大交易人-買方", "十大交易人買方"},
				Selector: &model.RowSelector{
					Section:      []string{"臺股期貨"},
					CellIndex:    1,
					CellContains: []string{"所有"},
				},
				PositionalIndex: 4,
				InnerField:      "top10_specific_buy",
				Min:             0,
				Max:             10000000,
			},
			{
				Name:           "top10_traders_sell",
				Type:           model.TypeInteger,
				HeaderKeywords: []string{"前十大交易人-賣方", "十大交易人賣方"},
				Selector: &model.RowSelector{
					Section:      []string{"臺股期貨"},
					CellIndex:    1,
					CellContains: []string{"所有"},
				},
				PositionalIndex: 5,
				InnerField:      "top10_specific_sell",
				Min:             0,
				Max:             10000000,
			},
			marketOI("tx_market_oi", "臺股期貨"),
			marketOI("mtx_market_oi", "小型臺指期貨"),
			marketOI("tmf_market_oi", "微型臺指期貨"),
		},
	}
}

// optionPositions reads foreign net open interest split by calls and
// puts. In the published table the call rows precede the put rows, so a
// section marker on the option side is enough to land on the right half.
func optionPositions() model.MetricGroup {
	sideField := func(name, side, keyword string, col int, min, max float64) model.Field {
		return model.Field{
			Name:           name,
			Type:           model.TypeInteger,
			HeaderKeywords: []string{keyword},
			Selector: &model.RowSelector{
				Section:      []string{side},
				CellIndex:    3,
				CellContains: []string{"外資"},
			},
			PositionalIndex: col,
			Min:             min,
			Max:             max,
		}
	}
	sideFields := func(prefix, side string) []model.Field {
		return []model.Field{
			sideField(prefix+"_foreign_buy", side, "買方", 4, 0, 5000000),
			sideField(prefix+"_foreign_sell", side, "賣方", 6, 0, 5000000),
			sideField(prefix+"_foreign_net", side, "買賣差額", 8, -2000000, 2000000),
		}
	}
	return model.MetricGroup{
		Name: "option_positions",
		Endpoints: []model.Endpoint{
			{
				Name:       "taifex_calls_puts_xlsx",
				Method:     "POST",
				URL:        "https://www.taifex.com.tw/cht/3/callsAndPutsDateExcel",
				Params:     map[string]string{"queryType": "1", "queryDate": "{date}"},
				Shape:      model.ShapeXLSX,
				Rank:       0,
				DateFormat: "2006/01/02",
			},
			{
				Name:       "taifex_calls_puts_html",
				Method:     "POST",
				URL:        "https://www.taifex.com.tw/cht/3/callsAndPutsDate",
				Params:     map[string]string{"queryType": "1", "queryDate": "{date}"},
				Shape:      model.ShapeHTMLTable,
				Rank:       1,
				DateFormat: "2006/01/02",
			},
		},
		Fields: append(sideFields("call", "買權"), sideFields("put", "賣權")...),
		// The net column moves between renderings; when it fails to
		// extract, buy = sell + net repairs it to buy - sell.
		Consistency: []model.ConsistencyGroup{
			{Components: []string{"call_foreign_sell", "call_foreign_net"}, Total: "call_foreign_buy", Epsilon: 1},
			{Components: []string{"put_foreign_sell", "put_foreign_net"}, Total: "put_foreign_buy", Epsilon: 1},
		},
	}
}

// pcRatio reads the put/call volume and open-interest ratios. Sources
// disagree on whether these are fractions or integer percentages, so
// both fields carry the ratio scale heuristic.
func pcRatio() model.MetricGroup {
	return model.MetricGroup{
		Name: "pc_ratio",
		Endpoints: []model.Endpoint{
			{
				Name:       "taifex_pc_ratio_xlsx",
				Method:     "GET",
				URL:        "https://www.taifex.com.tw/cht/3/pcRatioExcel",
				Params:     map[string]string{"queryStartDate": "{date}", "queryEndDate": "{date}"},
				Shape:      model.ShapeXLSX,
				Rank:       0,
				DateFormat: "2006/01/02",
			},
			{
				Name:       "taifex_pc_ratio_html",
				Method:     "GET",
				URL:        "https://www.taifex.com.tw/cht/3/pcRatio",
				Params:     map[string]string{"queryStartDate": "{date}", "queryEndDate": "{date}"},
				Shape:      model.ShapeHTMLTable,
				Rank:       1,
				DateFormat: "2006/01/02",
			},
		},
		Fields: []model.Field{
			{
				Name:            "put_call_vol_ratio",
				Type:            model.TypePercentage,
				HeaderKeywords:  []string{"買賣權成交量比率", "成交量比率"},
				PositionalIndex: 3,
				RatioLike:       true,
				Min:             0,
				Max:             10,
			},
			{
				Name:            "put_call_oi_ratio",
				Type:            model.TypePercentage,
				HeaderKeywords:  []string{"買賣權未平倉量比率", "未平倉量比率"},
				PositionalIndex: 6,
				RatioLike:       true,
				Min:             0,
				Max:             10,
			},
		},
	}
}

// vix reads the closing Taiwan VIX from the dated intraday file. The
// "Last 1 min AVG" line carries the closing value; when a rendering
// drops the label, the last bare decimal in the file stands in.
func vix() model.MetricGroup {
	return model.MetricGroup{
		Name: "vix",
		Endpoints: []model.Endpoint{
			{
				Name:       "taifex_vix",
				Method:     "GET",
				URL:        "https://www.taifex.com.tw/cht/7/getVixData",
				Params:     map[string]string{"filesname": "{date}"},
				Shape:      model.ShapeText,
				Rank:       0,
				DateFormat: "20060102",
			},
		},
		Fields: []model.Field{
			{
				Name:            "vix",
				Type:            model.TypeSignedFloat,
				Pattern:         `Last 1 min AVG\s+(\d+\.\d+)`,
				FallbackPattern: `(\d+\.\d+)`,
				PreferLast:      true,
				PositionalIndex: -1,
				Min:             5,
				Max:             100,
			},
		},
	}
}

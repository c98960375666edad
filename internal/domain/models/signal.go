package models

import "time"

// DailyRecord is one calendar day of the signal table.
// Nil pointers mark values that are undefined on that day.
type DailyRecord struct {
	Date time.Time `json:"date"`

	// Raw inputs, forward-filled.
	BTCUSD     float64  `json:"btcusd"`
	WALCL      *float64 `json:"walcl"`
	WTREGEN    *float64 `json:"wtregen"`
	RRP        *float64 `json:"rrpontsyd"`
	DXY        *float64 `json:"dxy"`
	Sahm       *float64 `json:"sahm"`
	YieldCurve *float64 `json:"yield_curve"`
	NewOrders  *float64 `json:"new_orders"`
	MVRV       *float64 `json:"mvrv"`
	LTHSOPR    *float64 `json:"lth_sopr"`
	NUPL       *float64 `json:"lth_nupl"`

	// Derived diagnostics. Not consumed by the aggregator.
	USLiq          *float64 `json:"us_liq"`
	USLiqYoY       *float64 `json:"us_liq_yoy_pct"`
	USLiq13W       *float64 `json:"us_liq_13w_delta"`
	DXYMA50        *float64 `json:"dxy_ma50"`
	DXYMA200       *float64 `json:"dxy_ma200"`
	DXYROC20       *float64 `json:"dxy_roc20_pct"`
	DXYPersistence *float64 `json:"dxy_persistence"`
	NewOrdersYoY   *float64 `json:"new_orders_yoy_pct"`
	NewOrdersMom3  *float64 `json:"new_orders_mom3"`
	BTCMA40W       *float64 `json:"btc_ma40w"`

	// Factor scores.
	ValScore       int  `json:"val_score"`
	LiqScore       int  `json:"liq_score"`
	DXYRawScore    int  `json:"dxy_raw_score"`
	DXYPersistent  bool `json:"dxy_persistent"`
	DXYScore       int  `json:"dxy_score"`
	CycleScore     int  `json:"cycle_score"`
	PriceRegimeRaw int  `json:"price_regime_raw"`
	PriceRegimeOn  int  `json:"price_regime_on"`

	// Aggregates.
	CoreOn  bool `json:"core_on"`
	MacroOn bool `json:"macro_on"`
	AccumOn bool `json:"accum_on"`
}

// FactorScores is the subset of a day the aggregator reads.
type FactorScores struct {
	Val           int
	Liq           int
	DXY           int
	Cycle         int
	PriceRegimeOn bool
}

// Scores extracts the aggregator inputs of r.
func (r DailyRecord) Scores() FactorScores {
	return FactorScores{
		Val:           r.ValScore,
		Liq:           r.LiqScore,
		DXY:           r.DXYScore,
		Cycle:         r.CycleScore,
		PriceRegimeOn: r.PriceRegimeOn == 1,
	}
}

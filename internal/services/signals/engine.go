package signals

import (
	"time"

	"CoinStrat/internal/domain/models"
	applogger "CoinStrat/pkg/logger"
)

// inputOrder is the column order of the aligned frame after the BTC anchor.
var inputOrder = []models.SeriesID{
	models.SeriesWALCL,
	models.SeriesWTREGEN,
	models.SeriesRRP,
	models.SeriesDXY,
	models.SeriesSahm,
	models.SeriesYield,
	models.SeriesNewOrders,
	models.SeriesMVRV,
	models.SeriesLTHSOPR,
	models.SeriesLTHNUPL,
}

// Option configures Engine.
type Option func(*Engine)

// WithWarnLimit caps the carry-forward warnings logged per factor and run.
func WithWarnLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.warnLimit = n
		}
	}
}

// Engine turns raw series into the daily signal table. It keeps no state between runs.
type Engine struct {
	log       *applogger.Logger
	warnLimit int
}

// NewEngine creates a signal engine.
func NewEngine(l *applogger.Logger, opts ...Option) *Engine {
	if l == nil {
		l = applogger.Nop()
	}
	e := &Engine{log: l, warnLimit: DefaultWarnLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type columns struct {
	price, walcl, tga, rrp, dxy, sahm, yieldCurve, newOrders, mvrv, sopr, nupl []float64
}

func frameColumns(f Frame) columns {
	c := f.Columns
	return columns{
		price: c[0],
		walcl: c[1], tga: c[2], rrp: c[3],
		dxy:  c[4],
		sahm: c[5], yieldCurve: c[6], newOrders: c[7],
		mvrv: c[8], sopr: c[9], nupl: c[10],
	}
}

// Compute aligns set on the calendar ending today and scores every day.
// It returns no records when the BTC price series is empty.
func (e *Engine) Compute(set models.SeriesSet, today time.Time) ([]models.DailyRecord, models.Diagnostics) {
	others := make([][]models.Observation, len(inputOrder))
	for i, id := range inputOrder {
		others[i] = set[id]
	}

	frame := Align(today, set[models.SeriesBTCUSD], others...)
	if frame.Len() == 0 {
		e.log.Warn("no price data, signal table is empty", applogger.Int("btc_points", len(set[models.SeriesBTCUSD])))
		return nil, models.Diagnostics{}
	}

	cols := frameColumns(frame)
	dates := frame.Dates

	valCF := newCarryTracker("valuation", e.warnLimit, e.log)
	liqCF := newCarryTracker("liquidity", e.warnLimit, e.log)
	dxyCF := newCarryTracker("dxy", e.warnLimit, e.log)
	cycCF := newCarryTracker("cycle", e.warnLimit, e.log)

	val := scoreValuation(dates, cols.mvrv, cols.sopr, valCF)
	liq := scoreLiquidity(dates, cols.walcl, cols.tga, cols.rrp, liqCF)
	dxy := scoreDXY(dates, cols.dxy, dxyCF)
	cyc := scoreCycle(dates, cols.sahm, cols.yieldCurve, cols.newOrders, cycCF)
	pr := scorePriceRegime(dates, cols.price)

	records := make([]models.DailyRecord, frame.Len())
	scores := make([]models.FactorScores, frame.Len())
	for i, d := range dates {
		rec := models.DailyRecord{
			Date:       d,
			BTCUSD:     cols.price[i],
			WALCL:      models.Float(cols.walcl[i]),
			WTREGEN:    models.Float(cols.tga[i]),
			RRP:        models.Float(cols.rrp[i]),
			DXY:        models.Float(cols.dxy[i]),
			Sahm:       models.Float(cols.sahm[i]),
			YieldCurve: models.Float(cols.yieldCurve[i]),
			NewOrders:  models.Float(cols.newOrders[i]),
			MVRV:       models.Float(cols.mvrv[i]),
			LTHSOPR:    models.Float(cols.sopr[i]),
			NUPL:       models.Float(cols.nupl[i]),

			USLiq:          models.Float(liq.USLiq[i]),
			USLiqYoY:       models.Float(liq.YoY[i] * 100),
			USLiq13W:       models.Float(liq.Delta13W[i]),
			DXYMA50:        models.Float(dxy.MA50[i]),
			DXYMA200:       models.Float(dxy.MA200[i]),
			DXYROC20:       models.Float(dxy.ROC20[i] * 100),
			DXYPersistence: models.Float(dxy.Persistence[i]),
			NewOrdersYoY:   models.Float(cyc.NewOrdersYoY[i] * 100),
			NewOrdersMom3:  models.Float(cyc.NewOrdersMom[i]),
			BTCMA40W:       models.Float(pr.MA40W[i]),

			ValScore:       val[i],
			LiqScore:       liq.Score[i],
			DXYRawScore:    dxy.Raw[i],
			DXYPersistent:  dxy.Persistent[i],
			DXYScore:       dxy.Score[i],
			CycleScore:     cyc.Score[i],
			PriceRegimeRaw: pr.Raw[i],
			PriceRegimeOn:  pr.On[i],
		}

		records[i] = rec
		scores[i] = rec.Scores()
	}

	core := FoldCore(scores)
	for i := range records {
		records[i].CoreOn = core[i]
		records[i].MacroOn = MacroOn(scores[i])
		records[i].AccumOn = core[i]
	}

	for _, cf := range []*carryTracker{valCF, liqCF, dxyCF, cycCF} {
		cf.summarize()
	}

	last := records[len(records)-1]
	e.log.Debug("signal table computed",
		applogger.Int("days", len(records)),
		applogger.Date("last", last.Date),
		applogger.Bool("core", last.CoreOn),
		applogger.Bool("macro", last.MacroOn),
	)

	return records, models.Diagnostics{CarryForward: models.CarryForward{
		Valuation: valCF.count,
		Liquidity: liqCF.count,
		DXY:       dxyCF.count,
		Cycle:     cycCF.count,
	}}
}

package metrics

import (
	"CoinStrat/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal     *prometheus.CounterVec
	fetchPoints    *prometheus.GaugeVec
	fetchLatency   *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	signalState    *prometheus.GaugeVec
	factorScore    *prometheus.GaugeVec
	carryForward   *prometheus.GaugeVec
	backtestRuns   *prometheus.CounterVec
	backtestReturn *prometheus.GaugeVec
	backtestDD     *prometheus.GaugeVec
}

// New creates a Recorder registered on the default registry.
func New() *Recorder {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a Recorder registered on reg.
func NewWith(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinstrat_series_fetch_total",
				Help: "Series fetches by result",
			},
			[]string{"series", "result"},
		),
		fetchPoints: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinstrat_series_points",
				Help: "Observations returned by the last fetch of a series",
			},
			[]string{"series"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinstrat_series_fetch_seconds",
				Help:    "Series fetch duration",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"series"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinstrat_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinstrat_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinstrat_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		signalState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinstrat_signal_on",
				Help: "Latest aggregate signal state (1 = ON)",
			},
			[]string{"signal"},
		),
		factorScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinstrat_factor_score",
				Help: "Latest factor score",
			},
			[]string{"factor"},
		),
		carryForward: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinstrat_carry_forward_days",
				Help: "Days whose factor score was carried forward in the last compute",
			},
			[]string{"factor"},
		),
		backtestRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinstrat_backtest_runs_total",
				Help: "Completed strategy simulations",
			},
			[]string{"strategy"},
		),
		backtestReturn: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinstrat_backtest_total_return",
				Help: "Total return of the last simulation per strategy",
			},
			[]string{"strategy"},
		),
		backtestDD: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinstrat_backtest_max_drawdown",
				Help: "Max drawdown of the last simulation per strategy",
			},
			[]string{"strategy"},
		),
	}
}

// RecordFetch records one series fetch.
func (r *Recorder) RecordFetch(series string, points int, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	} else if points == 0 {
		result = "empty"
	}
	r.fetchTotal.WithLabelValues(series, result).Inc()
	r.fetchPoints.WithLabelValues(series).Set(float64(points))
	r.fetchLatency.WithLabelValues(series).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSignals exports the aggregate states and factor scores of rec.
func (r *Recorder) RecordSignals(rec models.DailyRecord) {
	r.signalState.WithLabelValues("core").Set(boolGauge(rec.CoreOn))
	r.signalState.WithLabelValues("macro").Set(boolGauge(rec.MacroOn))
	r.signalState.WithLabelValues("accum").Set(boolGauge(rec.AccumOn))
	r.factorScore.WithLabelValues("valuation").Set(float64(rec.ValScore))
	r.factorScore.WithLabelValues("liquidity").Set(float64(rec.LiqScore))
	r.factorScore.WithLabelValues("dxy").Set(float64(rec.DXYScore))
	r.factorScore.WithLabelValues("cycle").Set(float64(rec.CycleScore))
	r.factorScore.WithLabelValues("price_regime").Set(float64(rec.PriceRegimeOn))
}

// RecordCarryForward exports the carry-forward counts of the last compute.
func (r *Recorder) RecordCarryForward(cf models.CarryForward) {
	r.carryForward.WithLabelValues("valuation").Set(float64(cf.Valuation))
	r.carryForward.WithLabelValues("liquidity").Set(float64(cf.Liquidity))
	r.carryForward.WithLabelValues("dxy").Set(float64(cf.DXY))
	r.carryForward.WithLabelValues("cycle").Set(float64(cf.Cycle))
}

// RecordBacktest records one finished strategy run.
func (r *Recorder) RecordBacktest(strategy string, totalReturn, maxDrawdown float64) {
	r.backtestRuns.WithLabelValues(strategy).Inc()
	r.backtestReturn.WithLabelValues(strategy).Set(totalReturn)
	r.backtestDD.WithLabelValues(strategy).Set(maxDrawdown)
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

package backtest

import (
	"math"
	"time"

	"CoinStrat/internal/domain/models"
	applogger "CoinStrat/pkg/logger"
)

// Simulator replays a signal table against the DCA strategies.
// It is stateless; concurrent Run calls on shared records are safe.
type Simulator struct {
	log *applogger.Logger
}

// NewSimulator creates a backtest simulator.
func NewSimulator(l *applogger.Logger) *Simulator {
	if l == nil {
		l = applogger.Nop()
	}
	return &Simulator{log: l}
}

// Run simulates every strategy of cfg on the records dated at or after cfg.StartDate.
// It returns nil when no record remains after filtering.
func (s *Simulator) Run(records []models.DailyRecord, cfg models.BacktestConfig) []models.StrategyResult {
	data := FromDate(records, cfg.StartDate)
	if len(data) == 0 {
		s.log.Info("backtest has no data after start date", applogger.Date("start", cfg.StartDate))
		return nil
	}

	actions := actionSet(data, cfg.Frequency)
	strategies := Strategies(cfg)
	results := make([]models.StrategyResult, 0, len(strategies))
	for _, st := range strategies {
		results = append(results, Simulate(data, actions, cfg.DCAAmount, st))
	}

	s.log.Debug("backtest finished",
		applogger.Int("days", len(data)),
		applogger.Int("action_dates", len(actions)),
		applogger.Int("strategies", len(results)),
	)
	return results
}

// FromDate returns the suffix of records dated at or after start. A zero start keeps everything.
func FromDate(records []models.DailyRecord, start time.Time) []models.DailyRecord {
	if start.IsZero() {
		return records
	}
	for i, r := range records {
		if !r.Date.Before(start) {
			return records[i:]
		}
	}
	return nil
}

// Simulate runs one strategy. Every action date deposits amount before the strategy decides;
// sells settle before buys. Days with an unusable price are skipped entirely.
func Simulate(records []models.DailyRecord, actions map[time.Time]struct{}, amount float64, strat Strategy) models.StrategyResult {
	var st models.StrategyState
	soldAll := false
	lastPrice := 0.0
	series := make([]models.SeriesPoint, 0, len(records))

	for _, rec := range records {
		price := rec.BTCUSD
		if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		lastPrice = price

		if _, ok := actions[rec.Date]; ok {
			st.CashBalance += amount
			st.TotalDeposited += amount

			d := strat.Decide(rec, st)
			soldAll = applySells(&st, d, price, soldAll)
			applyBuys(&st, d, price)
			st.PrevSignalOn = rec.AccumOn
		}

		series = append(series, models.SeriesPoint{
			Date:           rec.Date,
			Price:          price,
			BTCHeld:        st.BTCHeld,
			CashBalance:    st.CashBalance,
			PortfolioValue: st.BTCHeld*price + st.CashBalance,
			TotalDeposited: st.TotalDeposited,
			TotalWithdrawn: st.TotalSellProceeds,
			CoreOn:         rec.CoreOn,
			MacroOn:        rec.MacroOn,
		})
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.PortfolioValue
	}
	final := st.BTCHeld*lastPrice + st.CashBalance

	return models.StrategyResult{
		Name:                strat.Name,
		Series:              series,
		TotalInvested:       st.TotalDeposited,
		TotalWithdrawn:      st.TotalSellProceeds,
		NetDeployed:         st.TotalDeposited - st.TotalSellProceeds,
		FinalBTCHeld:        st.BTCHeld,
		FinalCashBalance:    st.CashBalance,
		FinalPortfolioValue: final,
		TotalReturn:         TotalReturn(final, st.TotalDeposited),
		MaxDrawdown:         MaxDrawdown(values),
		BTCAccumulated:      st.BTCHeld,
	}
}

// applySells settles the sell side of d and returns the updated sell-all latch.
// The latch makes sellAll liquidate once per uninterrupted run of sellAll decisions.
func applySells(st *models.StrategyState, d models.TradeDecision, price float64, soldAll bool) bool {
	if d.SellAll {
		if !soldAll && st.BTCHeld > 0 {
			proceeds := st.BTCHeld * price
			st.CashBalance += proceeds
			st.TotalSellProceeds += proceeds
			st.BTCHeld = 0
		}
		return true
	}

	if d.SellUSD > 0 && st.BTCHeld > 0 {
		btc := math.Min(d.SellUSD/price, st.BTCHeld)
		proceeds := btc * price
		st.BTCHeld -= btc
		st.CashBalance += proceeds
		st.TotalSellProceeds += proceeds
	}
	return false
}

func applyBuys(st *models.StrategyState, d models.TradeDecision, price float64) {
	if d.DeployReserves && st.CashBalance > 0 {
		st.BTCHeld += st.CashBalance / price
		st.CashBalance = 0
	}
	if d.BuyUSD > 0 {
		spend := math.Min(d.BuyUSD, st.CashBalance)
		if spend > 0 {
			st.BTCHeld += spend / price
			st.CashBalance -= spend
		}
	}
}

package models

import "time"

// Frequency is the DCA cadence.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// OffSignalMode is what a gated strategy does while CORE is OFF.
type OffSignalMode string

const (
	OffSignalPause        OffSignalMode = "pause"
	OffSignalSellMatching OffSignalMode = "sell_matching"
	OffSignalSellAll      OffSignalMode = "sell_all"
)

// DefaultAccelMultiplier scales MACRO-accelerated buys when no multiplier is configured.
const DefaultAccelMultiplier = 3.0

// BacktestConfig parameterizes one simulation.
type BacktestConfig struct {
	StartDate       time.Time     `json:"start_date"`
	DCAAmount       float64       `json:"dca_amount"`
	Frequency       Frequency     `json:"frequency"`
	OffSignalMode   OffSignalMode `json:"off_signal_mode"`
	MacroAccel      bool          `json:"macro_accel"`
	AccelMultiplier float64       `json:"accel_multiplier"`
}

// Multiplier returns the configured acceleration or the default.
func (c BacktestConfig) Multiplier() float64 {
	if c.AccelMultiplier <= 0 {
		return DefaultAccelMultiplier
	}
	return c.AccelMultiplier
}

// StrategyState is the running portfolio of one strategy run.
type StrategyState struct {
	BTCHeld           float64
	CashBalance       float64
	TotalDeposited    float64
	TotalSellProceeds float64
	PrevSignalOn      bool
}

// TradeDecision is what a strategy wants to do on one action date.
type TradeDecision struct {
	BuyUSD         float64
	SellUSD        float64
	SellAll        bool
	DeployReserves bool
}

// SeriesPoint is one day of a strategy's portfolio path.
type SeriesPoint struct {
	Date           time.Time `json:"date"`
	Price          float64   `json:"price"`
	BTCHeld        float64   `json:"btc_held"`
	CashBalance    float64   `json:"cash_balance"`
	PortfolioValue float64   `json:"portfolio_value"`
	TotalDeposited float64   `json:"total_deposited"`
	TotalWithdrawn float64   `json:"total_withdrawn"`
	CoreOn         bool      `json:"core_on"`
	MacroOn        bool      `json:"macro_on"`
}

// StrategyResult is the immutable outcome of one strategy run.
type StrategyResult struct {
	Name                string        `json:"name"`
	Series              []SeriesPoint `json:"series"`
	TotalInvested       float64       `json:"total_invested"`
	TotalWithdrawn      float64       `json:"total_withdrawn"`
	NetDeployed         float64       `json:"net_deployed"`
	FinalBTCHeld        float64       `json:"final_btc_held"`
	FinalCashBalance    float64       `json:"final_cash_balance"`
	FinalPortfolioValue float64       `json:"final_portfolio_value"`
	TotalReturn         float64       `json:"total_return"`
	MaxDrawdown         float64       `json:"max_drawdown"`
	BTCAccumulated      float64       `json:"btc_accumulated"`
}

// BacktestReport groups the strategy results of one request.
type BacktestReport struct {
	ID          string           `json:"id"`
	Config      BacktestConfig   `json:"config"`
	Results     []StrategyResult `json:"results"`
	GeneratedAt time.Time        `json:"generated_at"`
}

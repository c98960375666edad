package backtest

import (
	"fmt"

	"CoinStrat/internal/domain/models"
)

const (
	NameBaseline = "Baseline DCA"
	NameGated    = "CORE DCA"
)

// AcceleratedName is the display name of the MACRO-accelerated strategy.
func AcceleratedName(mult float64) string {
	return fmt.Sprintf("CORE DCA + MACRO %gx", mult)
}

// DecisionFunc decides the trades of one action date from the day's signals and the running state.
type DecisionFunc func(rec models.DailyRecord, st models.StrategyState) models.TradeDecision

// Strategy is a named decision rule.
type Strategy struct {
	Name   string
	Decide DecisionFunc
}

// Baseline buys the full amount on every action date.
func Baseline(amount float64) Strategy {
	return Strategy{
		Name: NameBaseline,
		Decide: func(models.DailyRecord, models.StrategyState) models.TradeDecision {
			return models.TradeDecision{BuyUSD: amount}
		},
	}
}

// Gated buys only while accumulation is permitted and applies mode otherwise.
func Gated(amount float64, mode models.OffSignalMode) Strategy {
	return Strategy{Name: NameGated, Decide: gatedDecision(amount, mode, 1)}
}

// Accelerated is Gated with the buy scaled by mult on days MACRO is also on.
func Accelerated(amount float64, mode models.OffSignalMode, mult float64) Strategy {
	return Strategy{Name: AcceleratedName(mult), Decide: gatedDecision(amount, mode, mult)}
}

func gatedDecision(amount float64, mode models.OffSignalMode, mult float64) DecisionFunc {
	return func(rec models.DailyRecord, st models.StrategyState) models.TradeDecision {
		if rec.AccumOn {
			buy := amount
			if rec.MacroOn {
				buy *= mult
			}
			return models.TradeDecision{
				BuyUSD:         buy,
				DeployReserves: !st.PrevSignalOn,
			}
		}

		switch mode {
		case models.OffSignalSellMatching:
			return models.TradeDecision{SellUSD: amount}
		case models.OffSignalSellAll:
			return models.TradeDecision{SellAll: true}
		default:
			return models.TradeDecision{}
		}
	}
}

// Strategies returns the strategy set of cfg: baseline, gated, and the accelerated one when enabled.
func Strategies(cfg models.BacktestConfig) []Strategy {
	out := []Strategy{
		Baseline(cfg.DCAAmount),
		Gated(cfg.DCAAmount, cfg.OffSignalMode),
	}
	if cfg.MacroAccel {
		out = append(out, Accelerated(cfg.DCAAmount, cfg.OffSignalMode, cfg.Multiplier()))
	}
	return out
}

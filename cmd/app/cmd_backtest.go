package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"CoinStrat/internal/di"
	"CoinStrat/internal/domain/models"
	xhttp "CoinStrat/pkg/http"

	"github.com/spf13/cobra"
)

var (
	btStart      string
	btAmount     float64
	btFrequency  string
	btMode       string
	btAccel      bool
	btMultiplier float64
	btFormat     string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the DCA strategies against the signal table",
	Long: `Run the baseline, gated and MACRO-accelerated DCA strategies from --start to today.

Examples:
  coinstrat backtest --start 2018-01-01 --amount 100 --frequency weekly
  coinstrat backtest --mode sell_matching --accel --multiplier 2
  coinstrat backtest --format json`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	f := backtestCmd.Flags()
	f.StringVar(&btStart, "start", "2018-01-01", "first simulated day (YYYY-MM-DD)")
	f.Float64Var(&btAmount, "amount", 100, "USD per DCA buy")
	f.StringVar(&btFrequency, "frequency", "weekly", "daily, weekly or monthly")
	f.StringVar(&btMode, "mode", "pause", "off-signal mode: pause, sell_matching or sell_all")
	f.BoolVar(&btAccel, "accel", false, "accelerate buys while MACRO is ON")
	f.Float64Var(&btMultiplier, "multiplier", models.DefaultAccelMultiplier, "MACRO acceleration multiplier")
	f.StringVar(&btFormat, "format", "table", "output format: table or json")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	req := models.BacktestRequest{
		StartDate:       btStart,
		DCAAmount:       btAmount,
		Frequency:       btFrequency,
		OffSignalMode:   btMode,
		MacroAccel:      btAccel,
		AccelMultiplier: btMultiplier,
	}
	if err := xhttp.ApplyDefaultsAndValidate(&req); err != nil {
		return fmt.Errorf("invalid backtest parameters: %w", err)
	}
	if btFormat != "table" && btFormat != "json" {
		return fmt.Errorf("unknown --format %q", btFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, cleanup, err := di.InitializeRuntime(cfg)
	if err != nil {
		return fmt.Errorf("runtime initialization failed: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Engine.ComputeTimeout)
	defer cancel()

	report, err := rt.Backtest.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	if btFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(report)
}

func printReport(r *models.BacktestReport) error {
	fmt.Printf("backtest %s from %s, $%.2f %s, off-signal=%s\n\n",
		r.ID, r.Config.StartDate.Format("2006-01-02"), r.Config.DCAAmount, r.Config.Frequency, r.Config.OffSignalMode)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tINVESTED\tWITHDRAWN\tFINAL VALUE\tBTC\tRETURN\tMAX DD")
	for _, res := range r.Results {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.6f\t%.2f%%\t%.2f%%\n",
			res.Name, res.TotalInvested, res.TotalWithdrawn, res.FinalPortfolioValue,
			res.FinalBTCHeld, res.TotalReturn*100, res.MaxDrawdown*100)
	}
	return w.Flush()
}

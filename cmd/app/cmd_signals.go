package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"CoinStrat/internal/di"
	"CoinStrat/internal/usecase"

	"github.com/spf13/cobra"
)

var signalsDays int

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Compute the daily signal table and print it as JSON",
	Long: `Fetch every series, run the signal engine once and print the records.

Examples:
  coinstrat signals
  coinstrat signals --days 30
  coinstrat signals --config "" --days 7`,
	RunE: runSignals,
}

func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.Flags().IntVar(&signalsDays, "days", 0, "keep only the last N days (0 = all)")
}

func runSignals(cmd *cobra.Command, args []string) error {
	if signalsDays < 0 {
		return fmt.Errorf("--days must be >= 0, got %d", signalsDays)
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

	res, err := rt.Signals.GetSignals(ctx, usecase.GetSignalsParams{Days: signalsDays})
	if err != nil {
		return fmt.Errorf("compute signals: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

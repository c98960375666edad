package main

import (
	"fmt"
	"log"
	"os"

	"CoinStrat/internal/di"
	"CoinStrat/pkg/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "coinstrat",
	Short: "BTC macro signal engine and DCA backtester",
	Long: `coinstrat fetches macro, on-chain and price series, computes the daily
CORE/MACRO/ACCUM signals and backtests DCA strategies gated by them.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, refresh loop and job consumers",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "config file path (empty for built-in defaults)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Printf("cache=%s jobs=%s clickhouse=%t kafka=%t live=%t",
		cfg.Cache.Backend, cfg.Jobs.Backend, cfg.ClickHouse.Enabled, cfg.Kafka.Enabled, cfg.Live.Enabled)

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	// Blocks until SIGINT/SIGTERM.
	return app.Run()
}

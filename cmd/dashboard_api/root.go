package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accountdb"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/config"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/logging"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/pathing"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/readingdb"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dashboard_api",
	Short: "Home energy dashboard API",
	Long: `Serves usage statistics, analytics and recommendations over the readings
collected by reading_collector, plus accounts and the per-user device registry.
Runs the HTTP server when no subcommand is given.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is dashboard_api.toml in the config directory)")
}

// setup loads the config and builds the logger every subcommand needs.
func setup() (*config.DashboardAPIConfig, *zap.Logger, error) {
	if err := pathing.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadDashboardAPIConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, "dashboard_api")
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, logger, nil
}

type stores struct {
	readings *readingdb.DB
	accounts *accountdb.DB
}

func openStores() (*stores, error) {
	readings, err := readingdb.Open(pathing.GetReadingDbPath(), readingdb.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("opening reading store: %w", err)
	}
	accounts, err := accountdb.Open(pathing.GetAccountDbPath())
	if err != nil {
		readings.Close()
		return nil, fmt.Errorf("opening account store: %w", err)
	}
	return &stores{readings: readings, accounts: accounts}, nil
}

func (s *stores) Close() {
	s.readings.Close()
	s.accounts.Close()
}

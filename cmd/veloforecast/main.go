// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Command veloforecast is the operator CLI: import CSV exports, train and
// score the model, run a forecast and dump the reconciled series.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/veloforecast/internal/app"
	"github.com/tomtom215/veloforecast/internal/config"
	"github.com/tomtom215/veloforecast/internal/logging"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "veloforecast",
		Short: "Bicycle counter forecasting",
		Long: `Operator tool for the bicycle counter forecaster.
Typical workflow: import -> train -> run -> series.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML); overrides CONFIG_PATH")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Debug logging")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(seriesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and initializes console logging on stderr.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: "console", Timestamp: true, Output: os.Stderr})
	return cfg, nil
}

// openApp loads configuration and builds the application.
func openApp(opts ...app.Option) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing application")
	}
}

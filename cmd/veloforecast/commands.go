// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/veloforecast/internal/app"
	"github.com/tomtom215/veloforecast/internal/cache"
	"github.com/tomtom215/veloforecast/internal/forecast"
	"github.com/tomtom215/veloforecast/internal/ingest"
)

// commandContext is cancelled on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// importCmd loads counter and weather CSV exports into DuckDB
func importCmd() *cobra.Command {
	var (
		observationsPath string
		weatherPath      string
		batchSize        int
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import counter and weather CSV exports",
		Long: `Reads the counter export (entity, timestamp, count, lat, lon) and the
optional hourly weather export and inserts them into the database.
Defaults come from data.observations_csv and data.weather_csv.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			a, err := openApp(app.WithOfflineWeather())
			if err != nil {
				return err
			}
			defer closeApp(a)

			if observationsPath == "" {
				observationsPath = a.Config.Data.ObservationsCSV
			}
			if weatherPath == "" {
				weatherPath = a.Config.Data.WeatherCSV
			}

			importer := ingest.NewImporter(ingest.Options{
				ObservationsPath: observationsPath,
				WeatherPath:      weatherPath,
				BatchSize:        batchSize,
				DryRun:           dryRun,
			}, ingest.NewLoader(cache.New()), a.DB)

			stats, err := importer.Import(ctx)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Printf("=== Import ===\n")
			fmt.Printf("Rows read: %d (skipped %d)\n", stats.Read, stats.Skipped)
			fmt.Printf("Observations inserted: %d\n", stats.Inserted)
			fmt.Printf("Weather rows: %d\n", stats.Weather)
			fmt.Printf("Duration: %v\n", stats.Duration().Round(time.Millisecond))
			if stats.DryRun {
				fmt.Printf("\nDry run: nothing was written\n")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&observationsPath, "observations", "", "Counter CSV export")
	cmd.Flags().StringVar(&weatherPath, "weather", "", "Hourly weather CSV export")
	cmd.Flags().IntVar(&batchSize, "batch-size", ingest.DefaultBatchSize, "Rows per insert transaction")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate only")

	return cmd
}

// trainCmd fits the regression model on all stored history
func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the forecast model and save it to forecast.model_path",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			a, err := openApp(app.WithOfflineWeather())
			if err != nil {
				return err
			}
			defer closeApp(a)

			m, q, err := a.Train(ctx)
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			fmt.Printf("=== Training ===\n")
			fmt.Printf("Features: %d\n", len(m.FeatureNames()))
			fmt.Printf("Train rows: %d, test rows: %d\n", q.TrainRows, q.TestRows)
			fmt.Printf("MAE: %.2f\n", q.MAE)
			fmt.Printf("R2: %.4f\n", q.R2)
			fmt.Printf("\nModel saved to %s\n", a.Config.Forecast.ModelPath)
			return nil
		},
	}
}

// evaluateCmd scores the saved model on the chronological hold-out split
func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Score the saved model (MAE, R2) on the hold-out split",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			a, err := openApp(app.WithOfflineWeather())
			if err != nil {
				return err
			}
			defer closeApp(a)

			q, err := a.Evaluate(ctx)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
			fmt.Printf("MAE: %.2f\nR2: %.4f\nTest rows: %d\n", q.MAE, q.R2, q.TestRows)
			return nil
		},
	}
}

// runCmd runs the recursive forecast once
func runCmd() *cobra.Command {
	var (
		target  string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Forecast every counter through a target date",
		Long: `Seeds forecast memory from stored observations, then predicts day by day
from the day after the last observation through --target. Defaults to
today + forecast.horizon_days. --offline reads weather from the database
instead of Open-Meteo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			var opts []app.Option
			if offline {
				opts = append(opts, app.WithOfflineWeather())
			}
			a, err := openApp(opts...)
			if err != nil {
				return err
			}
			defer closeApp(a)

			targetDate, err := resolveTarget(target, a.Config.Forecast.HorizonDays, time.Now())
			if err != nil {
				return err
			}

			res, err := a.Orchestrator.Run(ctx, targetDate)
			if err != nil {
				return fmt.Errorf("forecast failed: %w", err)
			}

			fmt.Printf("=== Forecast ===\n")
			fmt.Printf("Run ID: %s\n", res.RunID)
			fmt.Printf("Last observation: %s\n", res.LastKnown.Format(time.DateTime))
			fmt.Printf("Target date: %s\n", res.TargetDate.Format(time.DateOnly))
			fmt.Printf("Days forecast: %d, records: %d\n", res.Days, len(res.Records))
			if res.SinkErrors > 0 {
				fmt.Printf("Days not stored: %d\n", res.SinkErrors)
			}
			fmt.Printf("Duration: %v\n", res.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target date YYYY-MM-DD (inclusive)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use stored weather instead of Open-Meteo")

	return cmd
}

// seriesCmd prints the reconciled real+predicted series as JSON
func seriesCmd() *cobra.Command {
	var (
		from   string
		to     string
		entity string
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print the reconciled series for [from, to] as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			fromDate, err := time.Parse(time.DateOnly, from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			toDate, err := time.Parse(time.DateOnly, to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			a, err := openApp(app.WithOfflineWeather())
			if err != nil {
				return err
			}
			defer closeApp(a)

			points, err := forecast.ReconciledSeries(ctx, a.DB, entity, fromDate, toDate.AddDate(0, 0, 1))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(points)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last day YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&entity, "entity", "", "Restrict to one counter")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// resolveTarget parses --target, defaulting to today + horizon days (UTC).
func resolveTarget(target string, horizonDays int, now time.Time) (time.Time, error) {
	if target == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d+horizonDays, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, target)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --target: %w", err)
	}
	return t, nil
}

// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package app wires the store, the weather client, the event publisher and
// the forecast engine from a loaded configuration. Both the server and the
// operator CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/veloforecast/internal/config"
	"github.com/tomtom215/veloforecast/internal/database"
	"github.com/tomtom215/veloforecast/internal/events"
	"github.com/tomtom215/veloforecast/internal/features"
	"github.com/tomtom215/veloforecast/internal/forecast"
	"github.com/tomtom215/veloforecast/internal/holiday"
	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/model"
	"github.com/tomtom215/veloforecast/internal/models"
	"github.com/tomtom215/veloforecast/internal/weather"
)

// Option customizes New.
type Option func(*options)

type options struct {
	offline bool
	weather weather.Source
}

// WithOfflineWeather serves weather from the store instead of the API.
func WithOfflineWeather() Option {
	return func(o *options) { o.offline = true }
}

// WithWeatherSource overrides the weather source.
func WithWeatherSource(src weather.Source) Option {
	return func(o *options) { o.weather = src }
}

// App holds the wired components. Close releases them.
type App struct {
	Config       *config.Config
	DB           *database.DB
	Publisher    *events.Publisher
	Orchestrator *forecast.Orchestrator
	Lags         features.LagSpec
	Holidays     holiday.Calendar

	archive *weather.ArchiveCache

	mu      sync.RWMutex
	quality *models.ModelQuality
}

// LagSpec converts the forecast config into a lag spec.
func LagSpec(cfg config.ForecastConfig) features.LagSpec {
	return features.LagSpec{
		Horizons:      append([]int(nil), cfg.Lags...),
		RollingWindow: cfg.RollingWindow,
		RollingOffset: cfg.RollingOffset,
		RollingStep:   cfg.RollingStep,
	}
}

// New opens the store and builds the engine. On error everything opened so
// far is closed.
func New(cfg *config.Config, opts ...Option) (a *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a = &App{Config: cfg, Lags: LagSpec(cfg.Forecast)}
	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				logging.Warn().Err(closeErr).Msg("Error closing partially initialized app")
			}
			a = nil
		}
	}()

	if a.Holidays, err = holiday.New(cfg.Forecast.Country); err != nil {
		return a, err
	}

	if a.DB, err = database.New(&cfg.Database); err != nil {
		return a, fmt.Errorf("open database: %w", err)
	}
	logging.Info().Str("path", a.DB.Path()).Msg("Database initialized")

	wx := o.weather
	if wx == nil {
		if wx, err = a.weatherSource(o.offline); err != nil {
			return a, err
		}
	}

	var sink forecast.Sink = a.DB
	if cfg.Events.Enabled {
		if a.Publisher, err = events.New(cfg.Events, logging.NewWatermillAdapter()); err != nil {
			return a, fmt.Errorf("create event publisher: %w", err)
		}
		sink = forecast.MultiSink{a.DB, a.Publisher}
		logging.Info().Str("backend", a.Publisher.Backend()).Str("topic", a.Publisher.Topic()).Msg("Forecast events enabled")
	}

	a.Orchestrator, err = forecast.NewOrchestrator(
		forecast.Config{Lags: a.Lags, Holidays: a.Holidays},
		a.DB, wx, a.LoadModel, sink,
	)
	if err != nil {
		return a, fmt.Errorf("create orchestrator: %w", err)
	}
	return a, nil
}

func (a *App) weatherSource(offline bool) (weather.Source, error) {
	if offline {
		logging.Info().Msg("Offline mode, weather served from the store")
		return weather.StoredSource{Reader: a.DB}, nil
	}

	var clientOpts []weather.Option
	if a.Config.Weather.CacheEnabled {
		var err error
		if a.Config.Weather.CachePath == "" {
			a.archive, err = weather.NewMemoryArchiveCache()
		} else {
			a.archive, err = weather.OpenArchiveCache(a.Config.Weather.CachePath)
		}
		if err != nil {
			return nil, fmt.Errorf("open weather cache: %w", err)
		}
		clientOpts = append(clientOpts, weather.WithArchiveCache(a.archive))
	}
	return weather.NewClient(a.Config.Weather, clientOpts...), nil
}

// LoadModel reads the model artifact. It is the engine's model loader, so a
// retrained artifact is picked up by the next run.
func (a *App) LoadModel(_ context.Context) (forecast.Model, error) {
	m, err := model.Load(a.Config.Forecast.ModelPath)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FeatureNames is the training column set for the configured lags.
func (a *App) FeatureNames() []string {
	return model.FeatureNamesFor(a.Lags)
}

// TrainingTable assembles the labeled feature table from stored history.
func (a *App) TrainingTable(ctx context.Context) (*features.FeatureTable, error) {
	obs, err := a.DB.Observations(ctx)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, forecast.ErrNoObservations
	}
	wx, err := a.DB.WeatherRange(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	asm, err := features.NewAssembler(a.Lags, a.Holidays)
	if err != nil {
		return nil, err
	}
	return asm.Assemble(obs, wx)
}

// Train fits a model on the head of the history, scores it on the tail and
// saves it to the configured path.
func (a *App) Train(ctx context.Context) (*model.Linear, models.ModelQuality, error) {
	table, err := a.TrainingTable(ctx)
	if err != nil {
		return nil, models.ModelQuality{}, err
	}
	m, q, err := model.TrainAndEvaluate(table, a.FeatureNames(), model.DefaultTrainFraction)
	if err != nil {
		return nil, q, err
	}
	if err := m.Save(a.Config.Forecast.ModelPath); err != nil {
		return nil, q, err
	}
	a.setQuality(q)
	logging.Info().
		Str("path", a.Config.Forecast.ModelPath).
		Float64("mae", q.MAE).
		Float64("r2", q.R2).
		Int("train_rows", q.TrainRows).
		Int("test_rows", q.TestRows).
		Msg("Model trained")
	return m, q, nil
}

// Evaluate scores the saved model on the hold-out tail of the history.
func (a *App) Evaluate(ctx context.Context) (models.ModelQuality, error) {
	m, err := model.Load(a.Config.Forecast.ModelPath)
	if err != nil {
		return models.ModelQuality{}, err
	}
	table, err := a.TrainingTable(ctx)
	if err != nil {
		return models.ModelQuality{}, err
	}
	train, test, err := model.Split(table, model.DefaultTrainFraction)
	if err != nil {
		return models.ModelQuality{}, err
	}
	q, err := model.Evaluate(m, test)
	if err != nil {
		return q, err
	}
	q.TrainRows = len(train.Rows)
	a.setQuality(q)
	return q, nil
}

func (a *App) setQuality(q models.ModelQuality) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quality = &q
}

// Quality returns the last computed hold-out score.
func (a *App) Quality() (models.ModelQuality, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.quality == nil {
		return models.ModelQuality{}, false
	}
	return *a.quality, true
}

// Close releases the publisher, the weather cache and the store.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil && !errors.Is(err, events.ErrClosed) {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close weather cache: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

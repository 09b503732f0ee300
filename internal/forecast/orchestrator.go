// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

/*
Package forecast extends a one-step count model into a multi-day hourly
forecast.

A run seeds a Memory with the regularized history of every counter, then
walks forward one calendar day at a time from the day after the last known
hour up to the target date. Each day's lag features are read from the Memory,
so lags that fall after the end of history see the predictions of earlier
days. Predictions are clipped at zero, truncated to whole counts, written back
to the Memory and handed to the Sink.

Failure handling:
  - weather unavailable: default covariates, the run continues
  - sink write failure: logged and counted, the run continues
  - model unavailable or empty history: the run aborts
*/
package forecast

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/veloforecast/internal/cache"
	"github.com/tomtom215/veloforecast/internal/features"
	"github.com/tomtom215/veloforecast/internal/holiday"
	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/metrics"
	"github.com/tomtom215/veloforecast/internal/models"
	"github.com/tomtom215/veloforecast/internal/weather"
)

// ObservationSource supplies the full history of raw counts.
type ObservationSource interface {
	Observations(ctx context.Context) ([]models.Observation, error)
}

// Model scores aligned feature rows.
type Model interface {
	FeatureNames() []string
	Predict(x [][]float64) ([]float64, error)
}

// ModelLoader returns the model to use for a run.
type ModelLoader func(ctx context.Context) (Model, error)

// Config holds the feature layout of the engine. It must match the layout the
// model was trained with.
type Config struct {
	Lags     features.LagSpec
	Holidays holiday.Calendar
}

// Result describes one completed run.
type Result struct {
	RunID      string
	TargetDate time.Time
	LastKnown  time.Time
	Days       int
	SinkErrors int
	Records    []models.ForecastRecord
	StartedAt  time.Time
	Duration   time.Duration

	// Memory is the run's final state, true history plus predictions.
	Memory *Memory
}

// Orchestrator runs recursive forecasts. Runs are serialized.
type Orchestrator struct {
	builder   features.RowBuilder
	source    ObservationSource
	weather   weather.Source
	loadModel ModelLoader
	sink      Sink

	mu sync.Mutex
}

// NewOrchestrator wires the engine. The weather source is wrapped so that a
// failing day falls back to default covariates. A nil sink discards output.
func NewOrchestrator(cfg Config, source ObservationSource, wx weather.Source, loadModel ModelLoader, sink Sink) (*Orchestrator, error) {
	if err := cfg.Lags.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lag spec: %w", err)
	}
	if source == nil || wx == nil || loadModel == nil {
		return nil, fmt.Errorf("observation source, weather source and model loader are required")
	}
	if cfg.Holidays == nil {
		cfg.Holidays = holiday.None
	}
	if sink == nil {
		sink = Discard
	}
	return &Orchestrator{
		builder:   features.RowBuilder{Lags: cfg.Lags, Holidays: cfg.Holidays},
		source:    source,
		weather:   weather.FallbackSource{Source: wx},
		loadModel: loadModel,
		sink:      sink,
	}, nil
}

// RunForecast forecasts every known counter through targetDate and returns
// the emitted records.
func (o *Orchestrator) RunForecast(ctx context.Context, targetDate time.Time) ([]models.ForecastRecord, error) {
	res, err := o.Run(ctx, targetDate)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// TryRun is Run, except that it fails with ErrRunInProgress instead of
// waiting for a concurrent run.
func (o *Orchestrator) TryRun(ctx context.Context, targetDate time.Time) (*Result, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()
	return o.run(ctx, targetDate)
}

// Run forecasts every known counter through targetDate.
func (o *Orchestrator) Run(ctx context.Context, targetDate time.Time) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run(ctx, targetDate)
}

func (o *Orchestrator) run(ctx context.Context, targetDate time.Time) (res *Result, err error) {
	if targetDate.IsZero() {
		return nil, ErrInvalidTargetDate
	}

	res = &Result{
		RunID:      logging.NewRunID(),
		TargetDate: features.StartOfDay(targetDate),
		StartedAt:  time.Now(),
	}
	ctx = logging.ContextWithRunID(ctx, res.RunID)
	log := logging.Ctx(ctx)
	defer func() {
		res.Duration = time.Since(res.StartedAt)
		metrics.RecordForecastRun(res.Duration, err)
		if err != nil {
			log.Error().Err(err).Msg("Forecast run failed")
		}
	}()

	// Run-scoped: memoizes weather days and is dropped with the run.
	runCache := cache.New()
	defer runCache.Clear()

	m, err := o.loadModel(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if m == nil || len(m.FeatureNames()) == 0 {
		return res, ErrModelUnavailable
	}

	obs, err := o.source.Observations(ctx)
	if err != nil {
		return res, fmt.Errorf("load observations: %w", err)
	}
	st, err := o.seed(obs)
	if err != nil {
		return res, err
	}
	res.Memory = st.memory
	res.LastKnown = st.memory.LastKnown()

	cursor := features.StartOfDay(res.LastKnown.Add(features.Step))
	log.Info().
		Time("last_known", res.LastKnown).
		Str("first_day", cursor.Format(time.DateOnly)).
		Str("target_date", res.TargetDate.Format(time.DateOnly)).
		Int("entities", len(st.ids)).
		Msg("Forecast run started")

	aligned := false
	for day := cursor; !day.After(res.TargetDate); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		wx, err := cache.GetOrLoad(runCache, "weather:"+day.Format(time.DateOnly), func() ([]models.WeatherObservation, error) {
			return o.weather.Day(ctx, day)
		})
		if err != nil {
			return res, fmt.Errorf("weather for %s: %w", day.Format(time.DateOnly), err)
		}

		table, err := o.dayTable(st, day, wx)
		if err != nil {
			return res, fmt.Errorf("features for %s: %w", day.Format(time.DateOnly), err)
		}

		x, missing := table.Matrix(m.FeatureNames())
		if len(missing) > 0 && !aligned {
			log.Warn().Strs("columns", missing).Msg("Model expects columns the pipeline does not produce, using 0")
		}
		aligned = true

		preds, err := m.Predict(x)
		if err != nil {
			return res, fmt.Errorf("%w: predict %s: %v", ErrModelMismatch, day.Format(time.DateOnly), err)
		}
		if len(preds) != len(table.Rows) {
			return res, fmt.Errorf("%w: %d predictions for %d rows", ErrModelMismatch, len(preds), len(table.Rows))
		}

		records := make([]models.ForecastRecord, len(table.Rows))
		for i, row := range table.Rows {
			count := toCount(preds[i])
			st.memory.Set(row.EntityID, row.Timestamp, float64(count))
			loc := st.locations[row.EntityID]
			records[i] = models.ForecastRecord{
				RunID:          res.RunID,
				EntityID:       row.EntityID,
				Timestamp:      row.Timestamp,
				PredictedCount: count,
				Latitude:       loc.Latitude,
				Longitude:      loc.Longitude,
			}
		}

		if err := o.sink.WriteForecasts(ctx, records); err != nil {
			res.SinkErrors++
			metrics.RecordSinkError()
			log.Error().Err(err).
				Str("day", day.Format(time.DateOnly)).
				Int("records", len(records)).
				Msg("Failed to persist forecast day, continuing")
		}

		metrics.RecordForecastDay(len(records))
		res.Days++
		res.Records = append(res.Records, records...)
		log.Debug().Str("day", day.Format(time.DateOnly)).Int("records", len(records)).Msg("Forecast day done")
	}

	log.Info().
		Int("days", res.Days).
		Int("records", len(res.Records)).
		Int("sink_errors", res.SinkErrors).
		Dur("duration", time.Since(res.StartedAt)).
		Msg("Forecast run completed")
	return res, nil
}

// runState is what a run needs after seeding.
type runState struct {
	memory    *Memory
	ids       []string
	encoder   *features.EntityEncoder
	locations map[string]models.Entity
}

func (o *Orchestrator) seed(obs []models.Observation) (*runState, error) {
	usable := make([]models.Observation, 0, len(obs))
	locations := make(map[string]models.Entity)
	for _, ob := range obs {
		if ob.EntityID == "" {
			continue
		}
		usable = append(usable, ob)
		if ob.Latitude != 0 || ob.Longitude != 0 {
			locations[ob.EntityID] = models.Entity{ID: ob.EntityID, Latitude: ob.Latitude, Longitude: ob.Longitude}
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoObservations
	}

	grids := features.RegularizeAll(usable)
	mem := NewMemory()
	mem.Seed(grids)
	ids := features.SortedEntityIDs(grids)

	return &runState{
		memory:    mem,
		ids:       ids,
		encoder:   features.NewEntityEncoder(ids),
		locations: locations,
	}, nil
}

// dayTable builds the feature rows of one day for every entity. Hours that
// already hold true history are skipped.
func (o *Orchestrator) dayTable(st *runState, day time.Time, wx []models.WeatherObservation) (*features.FeatureTable, error) {
	wxByHour := features.IndexWeather(wx)
	table := &features.FeatureTable{Columns: o.builder.Columns(), Encoder: st.encoder}

	for _, id := range st.ids {
		code, _ := st.encoder.Code(id)
		for h := 0; h < 24; h++ {
			ts := day.Add(time.Duration(h) * features.Step)
			if st.memory.IsObserved(id, ts) {
				continue
			}
			w, ok := wxByHour[ts]
			if !ok {
				w = weather.DefaultDay(day)[h]
			}
			lags := o.builder.Lags.ComputeOrZero(id, ts, st.memory)
			table.Rows = append(table.Rows, features.FeatureRow{
				EntityID:  id,
				Timestamp: ts,
				Values:    o.builder.Build(code, ts, w, lags),
			})
		}
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// toCount clips a prediction at zero and truncates it to a whole count.
// Non-finite predictions count as zero.
func toCount(p float64) int64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0
	}
	return int64(p)
}

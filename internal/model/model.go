// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package model holds the baseline count regressor: a linear model over the
// feature table, persisted as a JSON artifact and scored on a chronological
// holdout.
package model

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"

	"github.com/tomtom215/veloforecast/internal/features"
)

// KindLinear identifies the artifact format.
const KindLinear = "linear"

var (
	// ErrNotFound is returned when no artifact exists at the configured path.
	ErrNotFound = errors.New("model artifact not found")

	// ErrFeatureMismatch is returned when a row does not match the model width.
	ErrFeatureMismatch = errors.New("feature row width does not match model")

	// ErrInsufficientData is returned when there are too few rows to fit.
	ErrInsufficientData = errors.New("not enough rows to fit model")
)

// BaseFeatureNames are the non-lag columns every model is trained on. Raw
// hour, day and month are left out in favour of their cyclical encoding.
var BaseFeatureNames = []string{
	features.ColEntityCode,
	features.ColHourSin, features.ColHourCos,
	features.ColMonthSin, features.ColMonthCos,
	features.ColDowSin, features.ColDowCos,
	features.ColWeekend, features.ColHoliday,
	features.ColTemperature, features.ColWindSpeed, features.ColPrecipitation,
}

// DefaultFeatureNames is the column set of the baseline model.
var DefaultFeatureNames = FeatureNamesFor(features.DefaultLagSpec())

// FeatureNamesFor is BaseFeatureNames followed by the lag columns of spec.
func FeatureNamesFor(spec features.LagSpec) []string {
	cols := spec.Columns()
	names := make([]string, 0, len(BaseFeatureNames)+len(cols))
	names = append(names, BaseFeatureNames...)
	return append(names, cols...)
}

// Linear is an ordinary least squares model over named features.
type Linear struct {
	Kind         string    `json:"kind"`
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	TrainedAt    time.Time `json:"trained_at"`
	TrainRows    int       `json:"train_rows"`
}

// FeatureNames returns the columns Predict expects, in order.
func (m *Linear) FeatureNames() []string {
	return m.Features
}

// Predict scores each row. Values are raw, callers clip as needed.
func (m *Linear) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("row %d has %d values, model has %d: %w",
				i, len(row), len(m.Coefficients), ErrFeatureMismatch)
		}
		out[i] = m.Intercept + floats.Dot(m.Coefficients, row)
	}
	return out, nil
}

func (m *Linear) validate() error {
	if m.Kind != KindLinear {
		return fmt.Errorf("unsupported model kind %q", m.Kind)
	}
	if len(m.Features) == 0 {
		return errors.New("model has no features")
	}
	if len(m.Features) != len(m.Coefficients) {
		return fmt.Errorf("model has %d features and %d coefficients: %w",
			len(m.Features), len(m.Coefficients), ErrFeatureMismatch)
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return errors.New("model intercept is not finite")
	}
	for i, c := range m.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient for %s is not finite", m.Features[i])
		}
	}
	return nil
}

// Load reads an artifact written by Save.
func Load(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var m Linear
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the artifact atomically.
func (m *Linear) Save(path string) error {
	if err := m.validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace model: %w", err)
	}
	return nil
}

// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package model

import (
	"fmt"
	"time"

	"github.com/sajari/regression"
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/veloforecast/internal/features"
	"github.com/tomtom215/veloforecast/internal/logging"
)

// Fit trains a linear model on the named columns of table.
//
// Constant columns (a single counter, a year without holidays) would make the
// design matrix singular, so they are left out of the regression and keep a
// zero coefficient.
func Fit(table *features.FeatureTable, names []string) (*Linear, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, ErrInsufficientData
	}
	x, missing := table.Matrix(names)
	if len(missing) > 0 {
		return nil, fmt.Errorf("training table lacks columns %v", missing)
	}
	y := table.Targets()

	active := make([]int, 0, len(names))
	col := make([]float64, len(x))
	for j := range names {
		for i := range x {
			col[i] = x[i][j]
		}
		if stat.Variance(col, nil) > 0 {
			active = append(active, j)
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("every feature is constant: %w", ErrInsufficientData)
	}
	if len(x) <= len(active)+1 {
		return nil, fmt.Errorf("%d rows for %d features: %w", len(x), len(active), ErrInsufficientData)
	}

	var r regression.Regression
	r.SetObserved("count")
	for i, j := range active {
		r.SetVar(i, names[j])
	}
	for i, row := range x {
		vars := make([]float64, len(active))
		for k, j := range active {
			vars[k] = row[j]
		}
		r.Train(regression.DataPoint(y[i], vars))
	}
	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("regression failed: %w", err)
	}

	coeffs := r.GetCoeffs()
	m := &Linear{
		Kind:         KindLinear,
		Features:     append([]string(nil), names...),
		Coefficients: make([]float64, len(names)),
		TrainedAt:    time.Now().UTC(),
		TrainRows:    len(x),
	}
	if len(coeffs) > 0 {
		m.Intercept = coeffs[0]
	}
	for k, j := range active {
		if k+1 < len(coeffs) {
			m.Coefficients[j] = coeffs[k+1]
		}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	logging.Info().
		Int("rows", len(x)).
		Int("features", len(names)).
		Int("constant_features", len(names)-len(active)).
		Float64("train_r2", r.R2).
		Msg("Model fitted")
	return m, nil
}

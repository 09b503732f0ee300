// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/veloforecast/internal/features"
	"github.com/tomtom215/veloforecast/internal/models"
)

// DefaultTrainFraction keeps the oldest 80% of rows for training.
const DefaultTrainFraction = 0.8

// Predictor is anything that scores aligned feature rows.
type Predictor interface {
	FeatureNames() []string
	Predict(x [][]float64) ([]float64, error)
}

// Split orders rows by time and cuts them into a training head and a test
// tail. Rows at the same hour stay ordered by entity.
func Split(table *features.FeatureTable, trainFraction float64) (train, test *features.FeatureTable, err error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, nil, fmt.Errorf("train fraction must be in (0, 1), got %v", trainFraction)
	}
	rows := append([]features.FeatureRow(nil), table.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		return rows[i].EntityID < rows[j].EntityID
	})

	cut := int(float64(len(rows)) * trainFraction)
	if cut == 0 || cut == len(rows) {
		return nil, nil, fmt.Errorf("%d rows cannot be split: %w", len(rows), ErrInsufficientData)
	}
	return table.Subset(rows[:cut]), table.Subset(rows[cut:]), nil
}

// Evaluate scores m on test. Predictions are clipped at zero before the
// errors are computed, as they are when forecasting.
func Evaluate(m Predictor, test *features.FeatureTable) (models.ModelQuality, error) {
	if test == nil || len(test.Rows) == 0 {
		return models.ModelQuality{}, errors.New("empty evaluation set")
	}
	x, _ := test.Matrix(m.FeatureNames())
	pred, err := m.Predict(x)
	if err != nil {
		return models.ModelQuality{}, err
	}
	for i := range pred {
		pred[i] = math.Max(0, pred[i])
	}
	y := test.Targets()

	return models.ModelQuality{
		MAE:      meanAbsoluteError(pred, y),
		R2:       stat.RSquaredFrom(pred, y, nil),
		TestRows: len(y),
		ScoredAt: time.Now().UTC(),
	}, nil
}

func meanAbsoluteError(pred, y []float64) float64 {
	abs := make([]float64, len(y))
	for i := range y {
		abs[i] = math.Abs(pred[i] - y[i])
	}
	return stat.Mean(abs, nil)
}

// TrainAndEvaluate splits table, fits on the head and scores the tail.
func TrainAndEvaluate(table *features.FeatureTable, names []string, trainFraction float64) (*Linear, models.ModelQuality, error) {
	train, test, err := Split(table, trainFraction)
	if err != nil {
		return nil, models.ModelQuality{}, err
	}
	m, err := Fit(train, names)
	if err != nil {
		return nil, models.ModelQuality{}, err
	}
	q, err := Evaluate(m, test)
	if err != nil {
		return nil, models.ModelQuality{}, err
	}
	q.TrainRows = len(train.Rows)
	return m, q, nil
}

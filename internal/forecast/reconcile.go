// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

type seriesKey struct {
	entityID string
	ts       int64
}

func keyOf(p models.SeriesPoint) seriesKey {
	return seriesKey{entityID: p.EntityID, ts: p.Timestamp.UnixNano()}
}

// Reconcile merges observed and predicted series keyed by (entity, hour).
// A real value always wins; a prediction fills hours with no real value.
// Output is sorted by entity then time.
func Reconcile(observed, predicted []models.SeriesPoint) []models.ReconciledPoint {
	merged := make(map[seriesKey]models.ReconciledPoint, len(observed)+len(predicted))

	for _, p := range predicted {
		merged[keyOf(p)] = models.ReconciledPoint{
			EntityID:   p.EntityID,
			Timestamp:  p.Timestamp,
			Value:      p.Value,
			Provenance: models.ProvenancePrediction,
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
		}
	}
	for _, p := range observed {
		k := keyOf(p)
		lat, lon := p.Latitude, p.Longitude
		if prev, ok := merged[k]; ok && lat == 0 && lon == 0 {
			lat, lon = prev.Latitude, prev.Longitude
		}
		merged[k] = models.ReconciledPoint{
			EntityID:   p.EntityID,
			Timestamp:  p.Timestamp,
			Value:      p.Value,
			Provenance: models.ProvenanceReal,
			Latitude:   lat,
			Longitude:  lon,
		}
	}

	out := make([]models.ReconciledPoint, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityID != out[j].EntityID {
			return out[i].EntityID < out[j].EntityID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SeriesReader reads both sides of a reconciliation window. An empty
// entityID selects every counter.
type SeriesReader interface {
	RealSeries(ctx context.Context, entityID string, from, to time.Time) ([]models.SeriesPoint, error)
	LatestForecasts(ctx context.Context, entityID string, from, to time.Time) ([]models.SeriesPoint, error)
}

// ReconciledSeries loads and reconciles the window from <= ts < to.
func ReconciledSeries(ctx context.Context, r SeriesReader, entityID string, from, to time.Time) ([]models.ReconciledPoint, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("empty window %s..%s", from.Format(time.DateTime), to.Format(time.DateTime))
	}
	observed, err := r.RealSeries(ctx, entityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load real series: %w", err)
	}
	predicted, err := r.LatestForecasts(ctx, entityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load forecasts: %w", err)
	}
	return Reconcile(observed, predicted), nil
}

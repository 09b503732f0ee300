// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package features

import (
	"sort"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

// Step is the grid frequency.
const Step = time.Hour

// Regularize places one entity's observations on a contiguous hourly grid
// spanning its first to last observed hour, inclusive.
//
// Timestamps are floored to the hour. When two observations land on the same
// hour the first one in input order is kept. Hours with no observation get a
// count of 0. An empty input yields a nil grid.
func Regularize(entityID string, obs []models.Observation) []models.GridRow {
	if len(obs) == 0 {
		return nil
	}

	counts := make(map[time.Time]float64, len(obs))
	var first, last time.Time
	for i, o := range obs {
		ts := o.Timestamp.Truncate(Step)
		if _, dup := counts[ts]; dup {
			continue
		}
		counts[ts] = o.Count
		if i == 0 || ts.Before(first) {
			first = ts
		}
		if i == 0 || ts.After(last) {
			last = ts
		}
	}

	n := int(last.Sub(first)/Step) + 1
	grid := make([]models.GridRow, 0, n)
	for ts := first; !ts.After(last); ts = ts.Add(Step) {
		c, ok := counts[ts]
		grid = append(grid, models.GridRow{
			EntityID:  entityID,
			Timestamp: ts,
			Count:     c,
			Observed:  ok,
		})
	}
	return grid
}

// RegularizeAll groups observations by entity and regularizes each group.
// The result is keyed by entity id; entities with no observations are absent.
func RegularizeAll(obs []models.Observation) map[string][]models.GridRow {
	byEntity := make(map[string][]models.Observation)
	for _, o := range obs {
		byEntity[o.EntityID] = append(byEntity[o.EntityID], o)
	}

	grids := make(map[string][]models.GridRow, len(byEntity))
	for id, group := range byEntity {
		if g := Regularize(id, group); len(g) > 0 {
			grids[id] = g
		}
	}
	return grids
}

// AttachWeather joins hourly covariates onto a grid by timestamp. Hours with
// no covariate carry the last known reading forward; hours before the first
// reading get zeros.
func AttachWeather(grid []models.GridRow, weather map[time.Time]models.WeatherObservation) {
	var last models.WeatherObservation
	for i := range grid {
		ts := grid[i].Timestamp
		if w, ok := weather[ts]; ok {
			last = w
		}
		grid[i].Weather = models.WeatherObservation{
			Timestamp:     ts,
			Temperature:   last.Temperature,
			WindSpeed:     last.WindSpeed,
			Precipitation: last.Precipitation,
		}
	}
}

// IndexWeather keys weather readings by hour. The first reading per hour wins.
func IndexWeather(weather []models.WeatherObservation) map[time.Time]models.WeatherObservation {
	idx := make(map[time.Time]models.WeatherObservation, len(weather))
	for _, w := range weather {
		ts := w.Timestamp.Truncate(Step)
		if _, dup := idx[ts]; dup {
			continue
		}
		w.Timestamp = ts
		idx[ts] = w
	}
	return idx
}

// SortedEntityIDs returns the keys of a grid map in ascending order.
func SortedEntityIDs(grids map[string][]models.GridRow) []string {
	ids := make([]string, 0, len(grids))
	for id := range grids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

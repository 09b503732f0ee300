// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package features

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/veloforecast/internal/models"
)

// CountLookup resolves the count of an entity at an hour. ok is false when
// the value is unknown.
type CountLookup interface {
	Count(entityID string, ts time.Time) (value float64, ok bool)
}

// LagSpec describes the lag and rolling features. All offsets are in hours.
type LagSpec struct {
	// Horizons are the plain lags, e.g. 24, 48, 168.
	Horizons []int

	// RollingWindow is the number of same-phase samples averaged.
	RollingWindow int

	// RollingOffset is the most recent sample of the window (T - offset).
	RollingOffset int

	// RollingStep separates consecutive samples; 24 keeps them on the same hour of day.
	RollingStep int
}

// DefaultLagSpec is yesterday, two days ago and last week, plus the mean of
// the same hour over the four previous days.
func DefaultLagSpec() LagSpec {
	return LagSpec{
		Horizons:      []int{24, 48, 168},
		RollingWindow: 4,
		RollingOffset: 24,
		RollingStep:   24,
	}
}

// Validate rejects specs that could read inside (T - minLag, T].
func (s LagSpec) Validate() error {
	if len(s.Horizons) == 0 {
		return errors.New("at least one lag horizon is required")
	}
	minLag := s.Horizons[0]
	for _, h := range s.Horizons {
		if h <= 0 {
			return fmt.Errorf("lag horizon must be positive, got %d", h)
		}
		if h < minLag {
			minLag = h
		}
	}
	if s.RollingWindow <= 0 {
		return nil
	}
	if s.RollingStep <= 0 {
		return fmt.Errorf("rolling step must be positive, got %d", s.RollingStep)
	}
	if s.RollingOffset < minLag {
		return fmt.Errorf("rolling offset %dh is inside the minimum lag %dh", s.RollingOffset, minLag)
	}
	return nil
}

// MaxDepth is the deepest offset any feature reads, in hours.
func (s LagSpec) MaxDepth() int {
	depth := 0
	for _, h := range s.Horizons {
		if h > depth {
			depth = h
		}
	}
	if s.RollingWindow > 0 {
		if d := s.RollingOffset + (s.RollingWindow-1)*s.RollingStep; d > depth {
			depth = d
		}
	}
	return depth
}

// Offsets lists every distinct offset the lags and rolling window read, deepest last.
func (s LagSpec) Offsets() []int {
	seen := make(map[int]bool)
	var out []int
	add := func(h int) {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, h := range s.Horizons {
		add(h)
	}
	for k := 0; k < s.RollingWindow; k++ {
		add(s.RollingOffset + k*s.RollingStep)
	}
	return out
}

// LagColumn names the plain lag feature for a horizon.
func LagColumn(h int) string {
	return fmt.Sprintf("lag_%dh", h)
}

// RollingColumn names the rolling mean feature.
func (s LagSpec) RollingColumn() string {
	if s.RollingStep == 24 {
		return fmt.Sprintf("mean_last_%d_days", s.RollingWindow)
	}
	return fmt.Sprintf("mean_last_%d_x_%dh", s.RollingWindow, s.RollingStep)
}

// Columns lists the feature columns produced by s, in order.
func (s LagSpec) Columns() []string {
	cols := make([]string, 0, len(s.Horizons)+1)
	for _, h := range s.Horizons {
		cols = append(cols, LagColumn(h))
	}
	if s.RollingWindow > 0 {
		cols = append(cols, s.RollingColumn())
	}
	return cols
}

// LagValues holds one row's lag features in Columns() order.
type LagValues struct {
	Lags    []float64
	Rolling float64
}

// Compute reads the lag features of (entity, ts). It reports false when any
// required value is unknown; the caller must not use the row then.
func (s LagSpec) Compute(entityID string, ts time.Time, lookup CountLookup) (LagValues, bool) {
	return s.compute(entityID, ts, lookup, false)
}

// ComputeOrZero is Compute with unknown values resolved to 0. It is only
// meant for forecasting, where pre-history lags are expected.
func (s LagSpec) ComputeOrZero(entityID string, ts time.Time, lookup CountLookup) LagValues {
	v, _ := s.compute(entityID, ts, lookup, true)
	return v
}

func (s LagSpec) compute(entityID string, ts time.Time, lookup CountLookup, zeroFill bool) (LagValues, bool) {
	out := LagValues{Lags: make([]float64, len(s.Horizons))}
	complete := true

	for i, h := range s.Horizons {
		v, ok := lookup.Count(entityID, ts.Add(-time.Duration(h)*time.Hour))
		if !ok {
			complete = false
			if !zeroFill {
				return out, false
			}
		}
		out.Lags[i] = v
	}

	if s.RollingWindow > 0 {
		window := make([]float64, s.RollingWindow)
		for k := range window {
			off := s.RollingOffset + k*s.RollingStep
			v, ok := lookup.Count(entityID, ts.Add(-time.Duration(off)*time.Hour))
			if !ok {
				complete = false
				if !zeroFill {
					return out, false
				}
			}
			window[k] = v
		}
		out.Rolling = stat.Mean(window, nil)
	}
	return out, complete
}

// SeriesIndex is a CountLookup over regularized grids.
type SeriesIndex map[string]map[time.Time]float64

// NewSeriesIndex indexes grids by entity and hour.
func NewSeriesIndex(grids map[string][]models.GridRow) SeriesIndex {
	idx := make(SeriesIndex, len(grids))
	for id, g := range grids {
		m := make(map[time.Time]float64, len(g))
		for _, r := range g {
			m[r.Timestamp] = r.Count
		}
		idx[id] = m
	}
	return idx
}

// Count implements CountLookup.
func (s SeriesIndex) Count(entityID string, ts time.Time) (float64, bool) {
	v, ok := s[entityID][ts]
	return v, ok
}

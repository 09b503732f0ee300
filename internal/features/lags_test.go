// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package features

import (
	"testing"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

// hourlySeries builds a contiguous series for entity A with count = f(i).
func hourlySeries(start time.Time, n int, f func(i int) float64) []models.Observation {
	obs := make([]models.Observation, n)
	for i := range obs {
		obs[i] = models.Observation{EntityID: "A", Timestamp: start.Add(time.Duration(i) * time.Hour), Count: f(i)}
	}
	return obs
}

func TestLag24ConcreteExample(t *testing.T) {
	obs := []models.Observation{
		{EntityID: "A", Timestamp: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), Count: 10},
		{EntityID: "A", Timestamp: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), Count: 40},
	}
	idx := NewSeriesIndex(RegularizeAll(obs))
	spec := LagSpec{Horizons: []int{24}}

	got, ok := spec.Compute("A", time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), idx)
	if !ok {
		t.Fatal("expected complete lag history")
	}
	if got.Lags[0] != 10 {
		t.Errorf("lag_24h = %v, want 10", got.Lags[0])
	}
}

func TestRollingMeanUsesSamePhase(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	idx := NewSeriesIndex(RegularizeAll(hourlySeries(start, 24*6, func(i int) float64 { return float64(i) })))
	spec := DefaultLagSpec()
	spec.Horizons = []int{24}

	ts := start.Add(5 * 24 * time.Hour) // i = 120
	got, ok := spec.Compute("A", ts, idx)
	if !ok {
		t.Fatal("expected complete history")
	}
	// samples at i = 96, 72, 48, 24
	if want := 60.0; got.Rolling != want {
		t.Errorf("rolling = %v, want %v", got.Rolling, want)
	}
}

func TestComputeIncompleteHistory(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	idx := NewSeriesIndex(RegularizeAll(hourlySeries(start, 200, func(int) float64 { return 1 })))
	spec := DefaultLagSpec()

	if _, ok := spec.Compute("A", start.Add(167*time.Hour), idx); ok {
		t.Error("row inside the first 168h must be incomplete")
	}
	if _, ok := spec.Compute("A", start.Add(168*time.Hour), idx); !ok {
		t.Error("row at 168h should be complete")
	}

	zero := spec.ComputeOrZero("A", start.Add(30*time.Hour), idx)
	if zero.Lags[0] != 1 || zero.Lags[2] != 0 {
		t.Errorf("expected known lag 1 and unknown lag 0, got %v", zero.Lags)
	}
}

func TestLagsDoNotLeak(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	spec := DefaultLagSpec()
	base := hourlySeries(start, 24*10, func(i int) float64 { return float64(i % 17) })
	target := start.Add(9 * 24 * time.Hour)

	before, ok := spec.Compute("A", target, NewSeriesIndex(RegularizeAll(base)))
	if !ok {
		t.Fatal("expected complete history")
	}

	minLag := time.Duration(spec.Horizons[0]) * time.Hour
	mutated := make([]models.Observation, len(base))
	copy(mutated, base)
	for i := range mutated {
		ts := mutated[i].Timestamp
		if ts.After(target.Add(-minLag)) && !ts.After(target) {
			mutated[i].Count = 1e6
		}
	}

	after, _ := spec.Compute("A", target, NewSeriesIndex(RegularizeAll(mutated)))
	for i := range before.Lags {
		if before.Lags[i] != after.Lags[i] {
			t.Errorf("lag %d changed from %v to %v", spec.Horizons[i], before.Lags[i], after.Lags[i])
		}
	}
	if before.Rolling != after.Rolling {
		t.Errorf("rolling mean changed from %v to %v", before.Rolling, after.Rolling)
	}
}

func TestLagSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    LagSpec
		wantErr bool
	}{
		{"default", DefaultLagSpec(), false},
		{"no horizons", LagSpec{}, true},
		{"negative horizon", LagSpec{Horizons: []int{-1}}, true},
		{"rolling inside min lag", LagSpec{Horizons: []int{24}, RollingWindow: 2, RollingOffset: 1, RollingStep: 24}, true},
		{"zero step", LagSpec{Horizons: []int{24}, RollingWindow: 2, RollingOffset: 24}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.spec.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLagSpecColumnsAndDepth(t *testing.T) {
	spec := DefaultLagSpec()
	cols := spec.Columns()
	want := []string{"lag_24h", "lag_48h", "lag_168h", "mean_last_4_days"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("column %d = %s, want %s", i, cols[i], want[i])
		}
	}
	if d := spec.MaxDepth(); d != 168 {
		t.Errorf("max depth = %d, want 168", d)
	}
	if n := len(spec.Offsets()); n != 5 { // 24, 48, 168, 72, 96
		t.Errorf("expected 5 distinct offsets, got %d", n)
	}
}

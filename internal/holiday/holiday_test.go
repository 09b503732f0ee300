// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package holiday

import (
	"testing"
	"time"
)

func TestFrenchHolidays(t *testing.T) {
	c, err := New("fr")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"new year", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), true},
		{"labour day", time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC), true},
		{"bastille day", time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC), true},
		{"easter monday 2024", time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC), true},
		{"christmas", time.Date(2025, 12, 25, 6, 0, 0, 0, time.UTC), true},
		{"ordinary tuesday", time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), false},
		{"day after bastille", time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsHoliday(tt.ts); got != tt.want {
				t.Errorf("IsHoliday(%s) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}

func TestNoneAndUnsupported(t *testing.T) {
	c, err := New("none")
	if err != nil {
		t.Fatalf("New(none): %v", err)
	}
	if c.IsHoliday(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("none calendar should never report a holiday")
	}

	if _, err := New("XX"); err == nil {
		t.Error("expected error for unsupported country")
	}
}

func TestFunc(t *testing.T) {
	c := Func(func(ts time.Time) bool { return ts.Day() == 3 })
	if !c.IsHoliday(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected Func to delegate")
	}
}

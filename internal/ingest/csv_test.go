// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-10 06:00:00", want},
		{"2025-03-10T06:00:00", want},
		{"2025-03-10 06:00", want},
		{"2025-03-10 06:00:00+00:00", want},
		{"2025-03-10T07:00:00+01:00", want},
		{"2025-03-10T06:00:00Z", want},
		{"10/03/2025 06:00", want},
		{"2025-03-10", want.Add(-6 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) = %v, want %v UTC", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("ParseTimestamp() should reject free text")
	}
}

func TestReadObservationsOpenDataExport(t *testing.T) {
	in := "counter_id;datetime;intensity;lat;lon\n" +
		"X2H1;2025-03-10 06:00:00+00:00;12;43,6107;3,8767\n" +
		"X2H1;2025-03-10 07:00:00+00:00;30;43,6107;3,8767\n" +
		"X2H2;2025-03-10 06:00:00+00:00;5;;\n"

	obs, stats, err := ReadObservations(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadObservations() error = %v", err)
	}
	if stats.Rows != 3 || stats.Loaded != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 3 rows all loaded", stats)
	}
	if obs[0].EntityID != "X2H1" || obs[0].Count != 12 || obs[0].Latitude != 43.6107 {
		t.Errorf("obs[0] = %+v", obs[0])
	}
	if obs[2].Latitude != 0 || obs[2].Longitude != 0 {
		t.Errorf("empty coordinates should read as 0, got %+v", obs[2])
	}
}

func TestReadObservationsCommaExportWithBOM(t *testing.T) {
	in := "\ufeffEntity_ID,Timestamp,Count\n" +
		"A,2024-01-01 00:00:00,4.0\n" +
		"A,2024-01-01 01:00:00,\n" +
		",2024-01-01 02:00:00,3\n" +
		"A,not a date,1\n" +
		"A,2024-01-01 03:00:00,-2\n" +
		"A,2024-01-01 04:00:00,9\n"

	obs, stats, err := ReadObservations(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadObservations() error = %v", err)
	}
	if stats.Loaded != 2 || stats.Skipped != 4 {
		t.Errorf("stats = %+v, want 2 loaded and 4 skipped", stats)
	}
	if len(obs) != 2 || obs[1].Count != 9 {
		t.Errorf("obs = %+v", obs)
	}
}

func TestReadObservationsErrors(t *testing.T) {
	if _, _, err := ReadObservations(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty input error = %v, want ErrEmptyFile", err)
	}
	if _, _, err := ReadObservations(strings.NewReader("counter_id,datetime\nA,2024-01-01\n")); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing count error = %v, want ErrMissingColumn", err)
	}
}

func TestReadWeather(t *testing.T) {
	in := "datetime;temperature_2m;wind_speed_10m;precipitation\n" +
		"2024-12-01 15:00:00;5,8;12,1;0\n" +
		"2024-12-01 16:00:00;5,1;;0,2\n" +
		"2024-12-01 17:00:00;4,9;-3;0\n"

	rows, stats, err := ReadWeather(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadWeather() error = %v", err)
	}
	if stats.Loaded != 2 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 loaded and 1 skipped (negative wind)", stats)
	}
	if rows[0].Temperature != 5.8 || rows[0].WindSpeed != 12.1 {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].WindSpeed != 0 || rows[1].Precipitation != 0.2 {
		t.Errorf("rows[1] = %+v", rows[1])
	}

	if _, _, err := ReadWeather(strings.NewReader("datetime,humidity\n")); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("no covariates error = %v, want ErrMissingColumn", err)
	}
}

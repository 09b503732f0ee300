// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package main

import (
	"testing"
	"time"
)

func TestResolveTarget(t *testing.T) {
	now := time.Date(2024, 5, 1, 22, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		target  string
		horizon int
		want    time.Time
		wantErr bool
	}{
		{"default today", "", 0, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"default horizon", "", 2, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), false},
		{"explicit", "2024-06-10", 2, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), false},
		{"invalid", "10/06/2024", 0, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTarget(tt.target, tt.horizon, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, cmd := range []interface{ Name() string }{importCmd(), trainCmd(), evaluateCmd(), runCmd(), seriesCmd()} {
		if cmd.Name() == "" {
			t.Error("command without a name")
		}
	}
	if f := runCmd().Flags().Lookup("offline"); f == nil {
		t.Error("run has no --offline flag")
	}
	if f := importCmd().Flags().Lookup("batch-size"); f == nil || f.DefValue != "5000" {
		t.Errorf("import --batch-size = %v", f)
	}
}

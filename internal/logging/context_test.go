// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if len(a) != 8 {
		t.Errorf("expected 8-character run ID, got %d", len(a))
	}
	if a == b {
		t.Error("expected unique run IDs")
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	if id := RunIDFromContext(ctx); id != "" {
		t.Errorf("expected empty run ID, got %s", id)
	}

	ctx = ContextWithRunID(ctx, "abc12345")
	if id := RunIDFromContext(ctx); id != "abc12345" {
		t.Errorf("expected abc12345, got %s", id)
	}
}

func TestCtxAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithRunID(context.Background(), "run1")
	ctx = ContextWithRequestID(ctx, "req1")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run1"`) {
		t.Errorf("expected run_id in output, got: %s", out)
	}
	if !strings.Contains(out, `"request_id":"req1"`) {
		t.Errorf("expected request_id in output, got: %s", out)
	}
}

// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/veloforecast/internal/forecast"
	"github.com/tomtom215/veloforecast/internal/models"
)

var (
	t0        = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	errFakeDB = errors.New("connection refused")
)

type fakeStore struct {
	mu       sync.Mutex
	pingErr  error
	runs     int
	entities []models.Entity
	real     []models.SeriesPoint
	pred     []models.SeriesPoint
	err      error

	// last window requested from RealSeries
	lastEntity string
	lastFrom   time.Time
	lastTo     time.Time
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) ForecastRunCount(context.Context) (int, error) { return s.runs, s.err }

func (s *fakeStore) Entities(context.Context) ([]models.Entity, error) {
	return s.entities, s.err
}

func (s *fakeStore) RealSeries(_ context.Context, entityID string, from, to time.Time) ([]models.SeriesPoint, error) {
	s.mu.Lock()
	s.lastEntity, s.lastFrom, s.lastTo = entityID, from, to
	s.mu.Unlock()
	return filterPoints(s.real, entityID, from, to), s.err
}

func (s *fakeStore) LatestForecasts(_ context.Context, entityID string, from, to time.Time) ([]models.SeriesPoint, error) {
	return filterPoints(s.pred, entityID, from, to), s.err
}

func filterPoints(in []models.SeriesPoint, entityID string, from, to time.Time) []models.SeriesPoint {
	var out []models.SeriesPoint
	for _, p := range in {
		if entityID != "" && p.EntityID != entityID {
			continue
		}
		if p.Timestamp.Before(from) || !p.Timestamp.Before(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

type fakeRunner struct {
	err    error
	target time.Time
}

func (f *fakeRunner) TryRun(_ context.Context, target time.Time) (*forecast.Result, error) {
	f.target = target
	if f.err != nil {
		return nil, f.err
	}
	return &forecast.Result{
		RunID:      "run-1",
		TargetDate: target,
		Days:       2,
		Records:    make([]models.ForecastRecord, 48),
		StartedAt:  t0,
		Duration:   1500 * time.Millisecond,
	}, nil
}

type fakeQuality struct {
	q  models.ModelQuality
	ok bool
}

func (f fakeQuality) Quality() (models.ModelQuality, bool) { return f.q, f.ok }

func newTestServer(store *fakeStore, runner Runner, quality QualitySource, mw *ChiMiddlewareConfig) http.Handler {
	h := NewHandler(store, runner, quality)
	h.now = func() time.Time { return t0.Add(10 * time.Hour) }
	return NewRouter(h, NewChiMiddleware(mw)).SetupChi()
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	apiErr := decode[models.APIError](t, rec)
	if apiErr.Error != code {
		t.Errorf("error code = %q, want %q", apiErr.Error, code)
	}
	if apiErr.Message == "" {
		t.Error("error message is empty")
	}
}

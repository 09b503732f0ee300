// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

func at(h int) time.Time { return day0.Add(time.Duration(h) * time.Hour) }

func TestReconcileCoalesce(t *testing.T) {
	observed := []models.SeriesPoint{{EntityID: "A", Timestamp: at(5), Value: 7}}
	predicted := []models.SeriesPoint{
		{EntityID: "A", Timestamp: at(6), Value: 3},
		{EntityID: "A", Timestamp: at(5), Value: 9},
	}

	got := Reconcile(observed, predicted)

	want := []models.ReconciledPoint{
		{EntityID: "A", Timestamp: at(5), Value: 7, Provenance: models.ProvenanceReal},
		{EntityID: "A", Timestamp: at(6), Value: 3, Provenance: models.ProvenancePrediction},
	}
	if len(got) != len(want) {
		t.Fatalf("Reconcile() returned %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Timestamp != want[i].Timestamp || got[i].Value != want[i].Value || got[i].Provenance != want[i].Provenance {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReconcileOrderingAndCoordinates(t *testing.T) {
	observed := []models.SeriesPoint{
		{EntityID: "B", Timestamp: at(1), Value: 1},
		{EntityID: "A", Timestamp: at(2), Value: 2},
	}
	predicted := []models.SeriesPoint{
		{EntityID: "A", Timestamp: at(1), Value: 5, Latitude: 1, Longitude: 2},
		{EntityID: "B", Timestamp: at(1), Value: 9, Latitude: 3, Longitude: 4},
	}

	got := Reconcile(observed, predicted)

	order := []struct {
		id string
		h  int
	}{{"A", 1}, {"A", 2}, {"B", 1}}
	if len(got) != len(order) {
		t.Fatalf("Reconcile() returned %d points, want %d", len(got), len(order))
	}
	for i, o := range order {
		if got[i].EntityID != o.id || !got[i].Timestamp.Equal(at(o.h)) {
			t.Errorf("point %d = %s@%s, want %s@%s", i, got[i].EntityID, got[i].Timestamp, o.id, at(o.h))
		}
	}
	if got[2].Latitude != 3 || got[2].Provenance != models.ProvenanceReal {
		t.Errorf("B@1 = %+v, want real value keeping predicted coordinates", got[2])
	}
}

type fakeReader struct {
	observed, predicted []models.SeriesPoint
	err                 error
}

func (f fakeReader) RealSeries(context.Context, string, time.Time, time.Time) ([]models.SeriesPoint, error) {
	return f.observed, f.err
}

func (f fakeReader) LatestForecasts(context.Context, string, time.Time, time.Time) ([]models.SeriesPoint, error) {
	return f.predicted, nil
}

func TestReconciledSeries(t *testing.T) {
	r := fakeReader{
		observed:  []models.SeriesPoint{{EntityID: "A", Timestamp: at(0), Value: 1}},
		predicted: []models.SeriesPoint{{EntityID: "A", Timestamp: at(1), Value: 2}},
	}
	got, err := ReconciledSeries(context.Background(), r, "", at(0), at(24))
	if err != nil {
		t.Fatalf("ReconciledSeries() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ReconciledSeries() returned %d points, want 2", len(got))
	}

	if _, err := ReconciledSeries(context.Background(), r, "", at(5), at(5)); err == nil {
		t.Error("ReconciledSeries() with an empty window should fail")
	}

	r.err = errors.New("db gone")
	if _, err := ReconciledSeries(context.Background(), r, "", at(0), at(1)); err == nil {
		t.Error("ReconciledSeries() should surface reader errors")
	}
}

func TestMultiSink(t *testing.T) {
	ok := &recordingSink{}
	bad := &recordingSink{failOn: map[int]bool{0: true}}
	ms := MultiSink{bad, ok}

	err := ms.WriteForecasts(context.Background(), []models.ForecastRecord{{EntityID: "A"}})
	if err == nil {
		t.Error("MultiSink should report a failing sink")
	}
	if len(ok.batches) != 1 {
		t.Errorf("healthy sink got %d batches, want 1", len(ok.batches))
	}
}

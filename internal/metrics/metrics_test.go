// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordForecastRun(t *testing.T) {
	ok := testutil.ToFloat64(ForecastRuns.WithLabelValues("success"))
	failed := testutil.ToFloat64(ForecastRuns.WithLabelValues("failed"))

	RecordForecastRun(2*time.Second, nil)
	RecordForecastRun(time.Second, errors.New("model missing"))

	if got := testutil.ToFloat64(ForecastRuns.WithLabelValues("success")); got != ok+1 {
		t.Errorf("success runs = %v, want %v", got, ok+1)
	}
	if got := testutil.ToFloat64(ForecastRuns.WithLabelValues("failed")); got != failed+1 {
		t.Errorf("failed runs = %v, want %v", got, failed+1)
	}
	if testutil.ToFloat64(ForecastLastSuccess) == 0 {
		t.Error("last success timestamp not set")
	}
}

func TestRecordForecastDay(t *testing.T) {
	days := testutil.ToFloat64(ForecastDays)
	recs := testutil.ToFloat64(ForecastRecordsEmitted)

	RecordForecastDay(48)

	if got := testutil.ToFloat64(ForecastDays); got != days+1 {
		t.Errorf("days = %v, want %v", got, days+1)
	}
	if got := testutil.ToFloat64(ForecastRecordsEmitted); got != recs+48 {
		t.Errorf("records = %v, want %v", got, recs+48)
	}
}

func TestRecordRowsDroppedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(FeatureRowsDropped)
	RecordRowsDropped(0)
	RecordRowsDropped(-3)
	RecordRowsDropped(5)
	if got := testutil.ToFloat64(FeatureRowsDropped); got != before+5 {
		t.Errorf("dropped = %v, want %v", got, before+5)
	}
}

func TestSetModelQuality(t *testing.T) {
	SetModelQuality(12.5, 0.81)

	m := &dto.Metric{}
	if err := ModelR2.Write(m); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if m.GetGauge().GetValue() != 0.81 {
		t.Errorf("r2 = %v, want 0.81", m.GetGauge().GetValue())
	}
	if got := testutil.ToFloat64(ModelMAE); got != 12.5 {
		t.Errorf("mae = %v, want 12.5", got)
	}
}

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "forecasts"))

	RecordDBQuery("INSERT", "forecasts", 5*time.Millisecond, nil)
	RecordDBQuery("INSERT", "forecasts", 5*time.Millisecond, errors.New("constraint"))

	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "forecasts")); got != before+1 {
		t.Errorf("errors = %v, want %v", got, before+1)
	}
	if n := testutil.CollectAndCount(DBQueryDuration); n == 0 {
		t.Error("expected query duration samples")
	}
}

func TestRecordWeatherRequestAndEvents(t *testing.T) {
	RecordWeatherRequest("forecast", "rejected", 0)
	if got := testutil.ToFloat64(WeatherRequests.WithLabelValues("forecast", "rejected")); got < 1 {
		t.Errorf("rejected requests = %v", got)
	}

	before := testutil.ToFloat64(EventsPublished.WithLabelValues("gochannel", "error"))
	RecordEventPublish("gochannel", errors.New("closed"))
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("gochannel", "error")); got != before+1 {
		t.Errorf("publish errors = %v, want %v", got, before+1)
	}
}

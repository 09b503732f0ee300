// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func largeBody(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(strings.Repeat(`{"value":1},`, 200)))
}

func TestCompression_WithGzipAccept(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/series", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()

	Compression(http.HandlerFunc(largeBody)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.HasPrefix(string(body), `{"value":1}`) || len(body) != 12*200 {
		t.Errorf("decompressed body mismatch (%d bytes)", len(body))
	}
}

func TestCompression_WithoutGzipAccept(t *testing.T) {
	rec := httptest.NewRecorder()
	Compression(http.HandlerFunc(largeBody)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/series", nil))

	if rec.Header().Get("Content-Encoding") != "" {
		t.Error("response should not be compressed")
	}
	if rec.Body.Len() != 12*200 {
		t.Errorf("body length = %d", rec.Body.Len())
	}
}

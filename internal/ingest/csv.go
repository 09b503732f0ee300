// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/metrics"
	"github.com/tomtom215/veloforecast/internal/models"
	"github.com/tomtom215/veloforecast/internal/validation"
)

var (
	// ErrEmptyFile is returned for input without a header row.
	ErrEmptyFile = errors.New("empty csv input")

	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// Column aliases, first match wins.
var (
	entityAliases    = []string{"counter_id", "entity_id", "counter", "id"}
	timestampAliases = []string{"datetime", "timestamp", "date", "ds"}
	countAliases     = []string{"intensity", "count", "value", "y"}
	latitudeAliases  = []string{"lat", "latitude"}
	longitudeAliases = []string{"lon", "lng", "longitude"}

	temperatureAliases   = []string{"temperature_2m", "temperature"}
	windSpeedAliases     = []string{"wind_speed_10m", "wind_speed"}
	precipitationAliases = []string{"precipitation", "precip"}
)

// Offset layouts are tried first; their result is converted to UTC.
var (
	offsetLayouts = []string{
		"2006-01-02 15:04:05-07:00",
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
	}
	naiveLayouts = []string{
		time.DateTime,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"02/01/2006 15:04",
		time.DateOnly,
	}
)

// Stats counts the rows of one file.
type Stats struct {
	Rows    int
	Loaded  int
	Skipped int
}

// ParseTimestamp parses a naive or offset timestamp into a naive UTC time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// table is a header-indexed CSV stream.
type table struct {
	r            *csv.Reader
	columns      map[string]int
	decimalComma bool
	line         int
}

func openTable(in io.Reader) (*table, error) {
	br := bufio.NewReader(in)
	head, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	head = strings.TrimPrefix(head, "\ufeff")
	if strings.TrimSpace(head) == "" {
		return nil, ErrEmptyFile
	}

	sep := ','
	if strings.Count(head, ";") > strings.Count(head, ",") {
		sep = ';'
	}

	r := csv.NewReader(io.MultiReader(strings.NewReader(head), br))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	names, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	cols := make(map[string]int, len(names))
	for i, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return &table{r: r, columns: cols, decimalComma: sep == ';', line: 1}, nil
}

// column resolves the first present alias, or -1.
func (t *table) column(aliases []string) int {
	for _, a := range aliases {
		if i, ok := t.columns[a]; ok {
			return i
		}
	}
	return -1
}

func (t *table) require(aliases []string) (int, error) {
	i := t.column(aliases)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, aliases[0])
	}
	return i, nil
}

// next returns the next record. io.EOF ends the stream; other errors are
// per-line and the caller may continue.
func (t *table) next() ([]string, error) {
	rec, err := t.r.Read()
	t.line++
	return rec, err
}

func (t *table) float(rec []string, i int) (float64, error) {
	if i < 0 || i >= len(rec) {
		return 0, errors.New("missing field")
	}
	s := strings.TrimSpace(rec[i])
	if s == "" {
		return 0, errors.New("empty field")
	}
	if t.decimalComma {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// optionalFloat returns 0 for absent or empty fields.
func (t *table) optionalFloat(rec []string, i int) (float64, error) {
	if i < 0 || i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
		return 0, nil
	}
	return t.float(rec, i)
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// ReadObservations parses a bike-counter export.
func ReadObservations(in io.Reader) ([]models.Observation, Stats, error) {
	var stats Stats
	t, err := openTable(in)
	if err != nil {
		return nil, stats, err
	}

	entityCol, err := t.require(entityAliases)
	if err != nil {
		return nil, stats, err
	}
	tsCol, err := t.require(timestampAliases)
	if err != nil {
		return nil, stats, err
	}
	countCol, err := t.require(countAliases)
	if err != nil {
		return nil, stats, err
	}
	latCol := t.column(latitudeAliases)
	lonCol := t.column(longitudeAliases)

	var out []models.Observation
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			stats.skip(t.line, err)
			continue
		}

		ob, err := t.observation(rec, entityCol, tsCol, countCol, latCol, lonCol)
		if err != nil {
			stats.skip(t.line, err)
			continue
		}
		out = append(out, ob)
		stats.Loaded++
	}

	metrics.RecordIngest("observations", stats.Loaded, stats.Skipped)
	return out, stats, nil
}

func (t *table) observation(rec []string, entityCol, tsCol, countCol, latCol, lonCol int) (models.Observation, error) {
	ts, err := ParseTimestamp(field(rec, tsCol))
	if err != nil {
		return models.Observation{}, err
	}
	count, err := t.float(rec, countCol)
	if err != nil {
		return models.Observation{}, fmt.Errorf("count: %w", err)
	}
	lat, err := t.optionalFloat(rec, latCol)
	if err != nil {
		return models.Observation{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := t.optionalFloat(rec, lonCol)
	if err != nil {
		return models.Observation{}, fmt.Errorf("longitude: %w", err)
	}

	ob := models.Observation{
		EntityID:  field(rec, entityCol),
		Timestamp: ts,
		Count:     count,
		Latitude:  lat,
		Longitude: lon,
	}
	if err := validation.Struct(&ob); err != nil {
		return models.Observation{}, err
	}
	return ob, nil
}

// ReadWeather parses an hourly weather export. Missing covariate columns
// read as 0.
func ReadWeather(in io.Reader) ([]models.WeatherObservation, Stats, error) {
	var stats Stats
	t, err := openTable(in)
	if err != nil {
		return nil, stats, err
	}

	tsCol, err := t.require(timestampAliases)
	if err != nil {
		return nil, stats, err
	}
	tempCol := t.column(temperatureAliases)
	windCol := t.column(windSpeedAliases)
	precipCol := t.column(precipitationAliases)
	if tempCol < 0 && windCol < 0 && precipCol < 0 {
		return nil, stats, fmt.Errorf("%w: no weather covariate", ErrMissingColumn)
	}

	var out []models.WeatherObservation
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			stats.skip(t.line, err)
			continue
		}

		w, err := t.weather(rec, tsCol, tempCol, windCol, precipCol)
		if err != nil {
			stats.skip(t.line, err)
			continue
		}
		out = append(out, w)
		stats.Loaded++
	}

	metrics.RecordIngest("weather", stats.Loaded, stats.Skipped)
	return out, stats, nil
}

func (t *table) weather(rec []string, tsCol, tempCol, windCol, precipCol int) (models.WeatherObservation, error) {
	ts, err := ParseTimestamp(field(rec, tsCol))
	if err != nil {
		return models.WeatherObservation{}, err
	}
	w := models.WeatherObservation{Timestamp: ts}
	if w.Temperature, err = t.optionalFloat(rec, tempCol); err != nil {
		return w, fmt.Errorf("temperature: %w", err)
	}
	if w.WindSpeed, err = t.optionalFloat(rec, windCol); err != nil {
		return w, fmt.Errorf("wind speed: %w", err)
	}
	if w.Precipitation, err = t.optionalFloat(rec, precipCol); err != nil {
		return w, fmt.Errorf("precipitation: %w", err)
	}
	if err := validation.Struct(&w); err != nil {
		return w, err
	}
	return w, nil
}

func (s *Stats) skip(line int, err error) {
	s.Skipped++
	logging.Debug().Int("line", line).Err(err).Msg("Skipping CSV row")
}

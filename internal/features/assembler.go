// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/veloforecast/internal/holiday"
	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/metrics"
	"github.com/tomtom215/veloforecast/internal/models"
)

// Column names shared by training and forecasting.
const (
	ColEntityCode    = "counter_id_encoded"
	ColHour          = "hour"
	ColDayOfWeek     = "day_of_week"
	ColMonth         = "month"
	ColYear          = "year"
	ColWeekend       = "is_weekend"
	ColHoliday       = "is_holiday"
	ColHourSin       = "hour_sin"
	ColHourCos       = "hour_cos"
	ColDowSin        = "dow_sin"
	ColDowCos        = "dow_cos"
	ColMonthSin      = "month_sin"
	ColMonthCos      = "month_cos"
	ColTemperature   = "temperature_2m"
	ColWindSpeed     = "wind_speed_10m"
	ColPrecipitation = "precipitation"
)

var baseColumns = []string{
	ColEntityCode,
	ColHour, ColDayOfWeek, ColMonth, ColYear, ColWeekend, ColHoliday,
	ColHourSin, ColHourCos, ColDowSin, ColDowCos, ColMonthSin, ColMonthCos,
	ColTemperature, ColWindSpeed, ColPrecipitation,
}

var (
	// ErrEmptyInput is returned when there is nothing to featurize.
	ErrEmptyInput = errors.New("no observations to featurize")

	// ErrNullFeature is returned when a NaN or infinite value would reach the model.
	ErrNullFeature = errors.New("feature row contains a null value")
)

// FeatureRow is one model-ready row. Values follow the owning table's Columns.
type FeatureRow struct {
	EntityID  string
	Timestamp time.Time
	Target    float64
	Values    []float64
}

// FeatureTable is a dense feature matrix with named columns.
type FeatureTable struct {
	Columns []string
	Rows    []FeatureRow
	Encoder *EntityEncoder
}

// ColumnIndex returns the position of name, or -1.
func (t *FeatureTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the named feature of row i.
func (t *FeatureTable) Value(i int, name string) (float64, bool) {
	j := t.ColumnIndex(name)
	if j < 0 || i < 0 || i >= len(t.Rows) {
		return 0, false
	}
	return t.Rows[i].Values[j], true
}

// Targets returns the observed counts in row order.
func (t *FeatureTable) Targets() []float64 {
	y := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		y[i] = r.Target
	}
	return y
}

// Matrix lays the table out in the given column order. Columns the table does
// not have are filled with 0 and reported in missing.
func (t *FeatureTable) Matrix(columns []string) (x [][]float64, missing []string) {
	src := make([]int, len(columns))
	for j, name := range columns {
		src[j] = t.ColumnIndex(name)
		if src[j] < 0 {
			missing = append(missing, name)
		}
	}

	x = make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]float64, len(columns))
		for j, k := range src {
			if k >= 0 {
				row[j] = r.Values[k]
			}
		}
		x[i] = row
	}
	return x, missing
}

// Subset returns a table sharing columns with t and holding the given rows.
func (t *FeatureTable) Subset(rows []FeatureRow) *FeatureTable {
	return &FeatureTable{Columns: t.Columns, Rows: rows, Encoder: t.Encoder}
}

// Validate fails fast on any NaN or infinite cell.
func (t *FeatureTable) Validate() error {
	for _, r := range t.Rows {
		if err := checkFinite(r.Values, t.Columns); err != nil {
			return fmt.Errorf("%s at %s: %w", r.EntityID, r.Timestamp.Format(time.DateTime), err)
		}
	}
	return nil
}

func checkFinite(values []float64, cols []string) error {
	for j, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("column %s: %w", cols[j], ErrNullFeature)
		}
	}
	return nil
}

// RowBuilder lays out feature values in a fixed column order. The assembler
// uses it over true history and the forecaster over Forecast Memory, so both
// produce identical layouts.
type RowBuilder struct {
	Lags     LagSpec
	Holidays holiday.Calendar
}

// Columns returns the builder's column order.
func (b RowBuilder) Columns() []string {
	cols := make([]string, 0, len(baseColumns)+len(b.Lags.Horizons)+1)
	cols = append(cols, baseColumns...)
	return append(cols, b.Lags.Columns()...)
}

// Build returns the values of one row.
func (b RowBuilder) Build(code int, ts time.Time, w models.WeatherObservation, lags LagValues) []float64 {
	c := EncodeCalendar(ts, b.Holidays)
	values := make([]float64, 0, len(baseColumns)+len(lags.Lags)+1)
	values = append(values,
		float64(code),
		float64(c.Hour), float64(c.DayOfWeek), float64(c.Month), float64(c.Year),
		boolToFloat(c.Weekend), boolToFloat(c.Holiday),
		c.HourSin, c.HourCos, c.DowSin, c.DowCos, c.MonthSin, c.MonthCos,
		w.Temperature, w.WindSpeed, w.Precipitation,
	)
	values = append(values, lags.Lags...)
	if b.Lags.RollingWindow > 0 {
		values = append(values, lags.Rolling)
	}
	return values
}

// Assembler turns raw observations and weather into a feature table.
type Assembler struct {
	builder RowBuilder
}

// NewAssembler validates the lag spec and returns an assembler.
func NewAssembler(spec LagSpec, cal holiday.Calendar) (*Assembler, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lag spec: %w", err)
	}
	if cal == nil {
		cal = holiday.None
	}
	return &Assembler{builder: RowBuilder{Lags: spec, Holidays: cal}}, nil
}

// Builder exposes the row layout used by the assembler.
func (a *Assembler) Builder() RowBuilder { return a.builder }

// Assemble regularizes every entity, joins weather on timestamp, encodes
// calendar, lag and entity features, and drops rows without full lag history.
// Rows come out sorted by entity then time.
func (a *Assembler) Assemble(obs []models.Observation, weather []models.WeatherObservation) (*FeatureTable, error) {
	if len(obs) == 0 {
		return nil, ErrEmptyInput
	}

	grids := RegularizeAll(obs)
	ids := SortedEntityIDs(grids)
	enc := NewEntityEncoder(ids)
	wx := IndexWeather(weather)
	index := NewSeriesIndex(grids)

	table := &FeatureTable{Columns: a.builder.Columns(), Encoder: enc}
	dropped := 0
	for _, id := range ids {
		grid := grids[id]
		AttachWeather(grid, wx)
		code, _ := enc.Code(id)

		for _, row := range grid {
			lags, ok := a.builder.Lags.Compute(id, row.Timestamp, index)
			if !ok {
				dropped++
				continue
			}
			table.Rows = append(table.Rows, FeatureRow{
				EntityID:  id,
				Timestamp: row.Timestamp,
				Target:    row.Count,
				Values:    a.builder.Build(code, row.Timestamp, row.Weather, lags),
			})
		}
	}
	metrics.RecordRowsDropped(dropped)

	if err := table.Validate(); err != nil {
		return nil, err
	}

	logging.Debug().
		Int("entities", len(ids)).
		Int("rows", len(table.Rows)).
		Int("dropped", dropped).
		Msg("feature table assembled")
	return table, nil
}

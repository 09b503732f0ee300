// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package features

import (
	"math"
	"time"

	"github.com/tomtom215/veloforecast/internal/holiday"
)

// Periods of the cyclical fields.
const (
	HourPeriod      = 24
	DayOfWeekPeriod = 7
	MonthPeriod     = 12
)

// CalendarFields are the calendar and cyclical features of one timestamp.
type CalendarFields struct {
	Hour      int // 0-23
	DayOfWeek int // 0 = Monday ... 6 = Sunday
	Month     int // 1-12
	Year      int
	Weekend   bool
	Holiday   bool

	HourSin, HourCos   float64
	DowSin, DowCos     float64
	MonthSin, MonthCos float64
}

// EncodeCalendar derives the calendar fields of ts. A nil calendar means no holidays.
func EncodeCalendar(ts time.Time, cal holiday.Calendar) CalendarFields {
	f := CalendarFields{
		Hour:      ts.Hour(),
		DayOfWeek: DayOfWeek(ts),
		Month:     int(ts.Month()),
		Year:      ts.Year(),
	}
	f.Weekend = f.DayOfWeek >= 5
	if cal != nil {
		f.Holiday = cal.IsHoliday(ts)
	}
	f.HourSin, f.HourCos = Cyclical(float64(f.Hour), HourPeriod)
	f.DowSin, f.DowCos = Cyclical(float64(f.DayOfWeek), DayOfWeekPeriod)
	f.MonthSin, f.MonthCos = Cyclical(float64(f.Month), MonthPeriod)
	return f
}

// DayOfWeek numbers days from Monday (0) to Sunday (6).
func DayOfWeek(ts time.Time) int {
	return (int(ts.Weekday()) + 6) % 7
}

// Cyclical maps v onto the unit circle for the given period.
func Cyclical(v, period float64) (sin, cos float64) {
	angle := 2 * math.Pi * v / period
	return math.Sin(angle), math.Cos(angle)
}

// StartOfDay truncates ts to midnight in its own location.
func StartOfDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

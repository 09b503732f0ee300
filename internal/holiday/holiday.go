// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package holiday resolves public holidays for the calendar features.
package holiday

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fr"
)

// Calendar answers whether a date is a public holiday.
type Calendar interface {
	IsHoliday(t time.Time) bool
}

// Func adapts a plain function to Calendar.
type Func func(time.Time) bool

// IsHoliday calls f(t).
func (f Func) IsHoliday(t time.Time) bool { return f(t) }

// None never reports a holiday.
var None Calendar = Func(func(time.Time) bool { return false })

// National is a country calendar. Dates are expanded one year at a time and
// kept for the life of the value; it is safe for concurrent use.
type National struct {
	country  string
	holidays []*cal.Holiday

	mu    sync.Mutex
	years map[int]map[time.Time]string
}

// New returns the calendar for an ISO country code. Only FR is bundled;
// "none" or "" disables holiday flags.
func New(country string) (Calendar, error) {
	switch strings.ToUpper(country) {
	case "", "NONE":
		return None, nil
	case "FR":
		return NewNational("FR", fr.Holidays), nil
	default:
		return nil, fmt.Errorf("unsupported holiday country %q", country)
	}
}

// NewNational builds a calendar from an explicit holiday list.
func NewNational(country string, holidays []*cal.Holiday) *National {
	return &National{
		country:  country,
		holidays: holidays,
		years:    make(map[int]map[time.Time]string),
	}
}

// IsHoliday reports whether t's calendar date is a holiday. The time of day is ignored.
func (n *National) IsHoliday(t time.Time) bool {
	_, ok := n.Name(t)
	return ok
}

// Name returns the holiday name for t's date.
func (n *National) Name(t time.Time) (string, bool) {
	d := dateOf(t)
	days := n.year(d.Year())
	name, ok := days[d]
	return name, ok
}

func (n *National) year(y int) map[time.Time]string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if days, ok := n.years[y]; ok {
		return days
	}
	days := make(map[time.Time]string, len(n.holidays))
	for _, h := range n.holidays {
		actual, _ := h.Calc(y)
		if actual.IsZero() {
			continue
		}
		days[dateOf(actual)] = h.Name
	}
	n.years[y] = days
	return days
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

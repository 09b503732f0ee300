// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package forecast

import (
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

type cell struct {
	value float64
	real  bool
}

// Memory maps (entity, hour) to a count. It starts with true history and
// receives predictions as the run advances, so lag lookups past the end of
// history read earlier predictions.
//
// A Memory belongs to a single run and is not safe for concurrent use.
type Memory struct {
	cells     map[string]map[time.Time]cell
	lastKnown time.Time
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{cells: make(map[string]map[time.Time]cell)}
}

// Seed loads regularized history. Filled hours count as history too.
func (m *Memory) Seed(grids map[string][]models.GridRow) {
	for id, grid := range grids {
		if id == "" {
			continue
		}
		row := m.entity(id)
		for _, g := range grid {
			row[g.Timestamp] = cell{value: g.Count, real: true}
			if g.Timestamp.After(m.lastKnown) {
				m.lastKnown = g.Timestamp
			}
		}
	}
}

func (m *Memory) entity(id string) map[time.Time]cell {
	row, ok := m.cells[id]
	if !ok {
		row = make(map[time.Time]cell)
		m.cells[id] = row
	}
	return row
}

// LastKnown is the latest true hour across all entities.
func (m *Memory) LastKnown() time.Time { return m.lastKnown }

// Get returns the stored value of (entity, ts).
func (m *Memory) Get(entityID string, ts time.Time) (float64, bool) {
	c, ok := m.cells[entityID][ts]
	return c.value, ok
}

// Count implements features.CountLookup.
func (m *Memory) Count(entityID string, ts time.Time) (float64, bool) {
	return m.Get(entityID, ts)
}

// Lookup returns the stored value or def.
func (m *Memory) Lookup(entityID string, ts time.Time, def float64) float64 {
	if v, ok := m.Get(entityID, ts); ok {
		return v
	}
	return def
}

// IsObserved reports whether (entity, ts) holds true history.
func (m *Memory) IsObserved(entityID string, ts time.Time) bool {
	return m.cells[entityID][ts].real
}

// Set stores a prediction. True history is never overwritten.
func (m *Memory) Set(entityID string, ts time.Time, v float64) bool {
	row := m.entity(entityID)
	if row[ts].real {
		return false
	}
	row[ts] = cell{value: v}
	return true
}

// Len is the number of stored keys.
func (m *Memory) Len() int {
	n := 0
	for _, row := range m.cells {
		n += len(row)
	}
	return n
}

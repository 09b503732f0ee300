// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package features

import (
	"sort"
)

// EntityEncoder maps entity ids to dense integer codes. Codes follow the
// sorted order of the ids, so the same id set always yields the same codes.
type EntityEncoder struct {
	codes map[string]int
	ids   []string
}

// NewEntityEncoder builds an encoder over the distinct ids given.
func NewEntityEncoder(ids []string) *EntityEncoder {
	uniq := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for id := range uniq {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	codes := make(map[string]int, len(sorted))
	for i, id := range sorted {
		codes[id] = i
	}
	return &EntityEncoder{codes: codes, ids: sorted}
}

// Code returns the code of id.
func (e *EntityEncoder) Code(id string) (int, bool) {
	c, ok := e.codes[id]
	return c, ok
}

// IDs returns the encoded ids in code order.
func (e *EntityEncoder) IDs() []string {
	out := make([]string, len(e.ids))
	copy(out, e.ids)
	return out
}

// Len is the number of encoded entities.
func (e *EntityEncoder) Len() int { return len(e.ids) }

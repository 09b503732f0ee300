// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package cache provides the run-scoped memoization used by loaders and the
// weather client. A cache is created per forecast run, passed down explicitly
// and discarded (or cleared) when the run ends; nothing is process-wide.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// Cacher is the contract loaders depend on.
type Cacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
	Clear()
	GetStats() Stats
	HitRate() float64
}

// Stats counts cache activity since creation or the last Clear.
type Stats struct {
	Hits      int64
	Misses    int64
	TotalKeys int64
	Clears    int64
}

// Cache is a mutex-guarded map with hit/miss accounting. Entries never
// expire on their own; the owner calls Clear to invalidate.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
	stats   Stats
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]interface{})}
}

// Get returns the value stored under key.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
	c.stats.TotalKeys = int64(len(c.entries))
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.stats.TotalKeys = int64(len(c.entries))
}

// Clear drops every entry and resets hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]interface{})
	c.stats = Stats{Clears: c.stats.Clears + 1}
}

// GetStats returns a snapshot of the counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns hits as a percentage of lookups.
func (c *Cache) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// GetOrLoad returns the cached value for key or calls load and caches its
// result. Errors are not cached. A nil cache always calls load.
func GetOrLoad[T any](c Cacher, key string, load func() (T, error)) (T, error) {
	if c != nil {
		if v, ok := c.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if c != nil {
		c.Set(key, v)
	}
	return v, nil
}

// GenerateKey builds a stable key from a namespace and JSON-encodable params.
func GenerateKey(namespace string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", namespace, params)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", namespace, sum[:8])
}

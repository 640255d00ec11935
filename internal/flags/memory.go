// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"maps"
	"sync"

	"github.com/ManuGH/canplay/internal/metrics"
)

const BackendMemory = "memory"

// Memory is an in-process flag store.
type Memory struct {
	mu       sync.RWMutex
	values   map[string]bool
	defaults defaults
}

// NewMemory returns a store seeded with the given defaults.
func NewMemory(defaultValues map[string]bool) *Memory {
	values := maps.Clone(defaultValues)
	if values == nil {
		values = make(map[string]bool)
	}
	return &Memory{
		values:   values,
		defaults: newDefaults(defaultValues),
	}
}

// Flag implements capability.Flags.
func (m *Memory) Flag(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[name]
}

// Set writes a known flag.
func (m *Memory) Set(_ context.Context, name string, value bool) error {
	if err := m.defaults.check(name); err != nil {
		return err
	}
	m.mu.Lock()
	m.values[name] = value
	m.mu.Unlock()
	metrics.RecordFlagChange(BackendMemory, name, value)
	return nil
}

// Push applies overrides, including names the registry does not know, and
// returns a function restoring the previous values. Pops must run in
// reverse push order.
func (m *Memory) Push(overrides map[string]bool) (pop func()) {
	type prior struct {
		value bool
		set   bool
	}
	m.mu.Lock()
	saved := make(map[string]prior, len(overrides))
	for k, v := range overrides {
		old, ok := m.values[k]
		saved[k] = prior{value: old, set: ok}
		m.values[k] = v
	}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for k, p := range saved {
				if p.set {
					m.values[k] = p.value
				} else {
					delete(m.values, k)
				}
			}
		})
	}
}

// Replace swaps the whole value set. Unknown names are ignored.
func (m *Memory) Replace(values map[string]bool) {
	next := m.defaults.merged(values)
	m.mu.Lock()
	m.values = next
	m.mu.Unlock()
}

// Snapshot returns a copy of the current values.
func (m *Memory) Snapshot(context.Context) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values), nil
}

func (m *Memory) Backend() string { return BackendMemory }

func (m *Memory) Close() error { return nil }

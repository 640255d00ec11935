// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"maps"
	"sync"
)

// Overlay pins flag values in memory on top of another store. Pinned values
// are never written to the underlying backend, so shared or durable stores
// keep the values set at runtime. A Set through the overlay writes the
// backend and releases the pin for that name.
type Overlay struct {
	store Store

	mu   sync.RWMutex
	pins map[string]bool
}

// NewOverlay pins values over store. Every pinned name must appear in
// defaultValues.
func NewOverlay(store Store, defaultValues, pins map[string]bool) (*Overlay, error) {
	known := newDefaults(defaultValues)
	for name := range pins {
		if err := known.check(name); err != nil {
			return nil, err
		}
	}
	return &Overlay{store: store, pins: maps.Clone(pins)}, nil
}

// Flag implements capability.Flags.
func (o *Overlay) Flag(name string) bool {
	o.mu.RLock()
	v, ok := o.pins[name]
	o.mu.RUnlock()
	if ok {
		return v
	}
	return o.store.Flag(name)
}

// Set writes through to the underlying store and drops any pin on name.
func (o *Overlay) Set(ctx context.Context, name string, value bool) error {
	if err := o.store.Set(ctx, name, value); err != nil {
		return err
	}
	o.mu.Lock()
	delete(o.pins, name)
	o.mu.Unlock()
	return nil
}

// Snapshot returns the underlying values with pins applied.
func (o *Overlay) Snapshot(ctx context.Context) (map[string]bool, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	for name, v := range o.pins {
		snap[name] = v
	}
	return snap, nil
}

// Pinned returns a copy of the values still pinned.
func (o *Overlay) Pinned() map[string]bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return maps.Clone(o.pins)
}

// Unwrap returns the underlying store.
func (o *Overlay) Unwrap() Store { return o.store }

func (o *Overlay) Backend() string { return o.store.Backend() }

func (o *Overlay) Close() error { return o.store.Close() }

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package flags provides the host-owned feature flag stores read by the
// capability resolver.
package flags

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/ManuGH/canplay/internal/capability"
)

// ErrUnknownFlag is returned when writing a flag no table entry consults.
var ErrUnknownFlag = errors.New("unknown flag")

// Store is a mutable flag source. Flag must never block for long: network
// backends bound every read with a timeout and fall back to defaults.
type Store interface {
	capability.Flags
	Set(ctx context.Context, name string, value bool) error
	Snapshot(ctx context.Context) (map[string]bool, error)
	Backend() string
	Close() error
}

// HealthChecker is implemented by stores with an external dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// defaults holds the registry-derived default value of every known flag.
type defaults map[string]bool

func newDefaults(in map[string]bool) defaults {
	return defaults(maps.Clone(in))
}

func (d defaults) check(name string) error {
	if _, ok := d[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFlag, name)
	}
	return nil
}

// merged overlays stored values on the defaults, ignoring unknown names.
func (d defaults) merged(stored map[string]bool) map[string]bool {
	out := maps.Clone(map[string]bool(d))
	if out == nil {
		out = map[string]bool{}
	}
	for k, v := range stored {
		if _, ok := d[k]; ok {
			out[k] = v
		}
	}
	return out
}

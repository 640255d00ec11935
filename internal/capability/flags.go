// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capability

// Flags is the read-only view of the host's feature flags. Implementations
// must report the value current at call time and must be safe for
// concurrent use. Unknown names read as false.
type Flags interface {
	Flag(name string) bool
}

// FlagFunc adapts a plain lookup function to Flags.
type FlagFunc func(name string) bool

func (f FlagFunc) Flag(name string) bool {
	if f == nil {
		return false
	}
	return f(name)
}

// StaticFlags is a fixed flag snapshot. It must not be mutated while a
// Resolver is reading it.
type StaticFlags map[string]bool

func (s StaticFlags) Flag(name string) bool { return s[name] }

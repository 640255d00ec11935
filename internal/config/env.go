// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/canplay/internal/log"
	"github.com/rs/zerolog"
)

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "token") || strings.Contains(lower, "password")
}

// lookup returns the raw value of key when it is set and non-empty, and
// logs the default otherwise.
func lookup(logger zerolog.Logger, key string, logDefault func(*zerolog.Event) *zerolog.Event) (string, bool) {
	v, ok := os.LookupEnv(key)
	if ok && v != "" {
		return v, true
	}
	msg := "using default value"
	if ok {
		msg = "using default value (environment variable is empty)"
	}
	logDefault(logger.Debug().Str("key", key).Str("source", "default")).Msg(msg)
	return "", false
}

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key, func(e *zerolog.Event) *zerolog.Event {
		if sensitiveKey(key) {
			return e.Bool("sensitive", true)
		}
		return e.Str("default", defaultValue)
	})
	if !ok {
		return defaultValue
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if sensitiveKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", v)
	}
	ev.Msg("using environment variable")
	return v
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key, func(e *zerolog.Event) *zerolog.Event {
		return e.Int("default", defaultValue)
	})
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
	return i
}

// ParseDuration reads a duration in Go duration format (e.g. "5s").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key, func(e *zerolog.Event) *zerolog.Event {
		return e.Dur("default", defaultValue)
	})
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Dur("value", d).Str("source", "environment").Msg("using environment variable")
	return d
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key, func(e *zerolog.Event) *zerolog.Event {
		return e.Bool("default", defaultValue)
	})
	if !ok {
		return defaultValue
	}
	var b bool
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		b = true
	case "false", "0", "no":
		b = false
	default:
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Bool("value", b).Str("source", "environment").Msg("using environment variable")
	return b
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key, func(e *zerolog.Event) *zerolog.Event {
		return e.Float64("default", defaultValue)
	})
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Float64("value", f).Str("source", "environment").Msg("using environment variable")
	return f
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"sort"

	"github.com/ManuGH/canplay/internal/capability"
	"github.com/ManuGH/canplay/internal/validate"
)

// Validate checks a resolved configuration. All problems are reported at
// once as a validate.ValidationError.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.HostPort("listenAddr", cfg.ListenAddr, true)
	v.LogLevel("logLevel", cfg.LogLevel)
	v.NotEmpty("logService", cfg.LogService)
	if cfg.ShutdownTimeout <= 0 {
		v.AddError("shutdownTimeout", "must be positive", cfg.ShutdownTimeout)
	}

	validateFlags(v, cfg.Flags)

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.requestsPerMinute", cfg.RateLimit.RequestsPerMinute)
	}

	v.Range("batch.maxEntries", cfg.Batch.MaxEntries, 1, 10000)
	if cfg.Batch.QueriesPerSecond <= 0 {
		v.AddError("batch.queriesPerSecond", "must be positive", cfg.Batch.QueriesPerSecond)
	}
	// a batch larger than the burst could never be admitted
	if cfg.Batch.Burst < cfg.Batch.MaxEntries {
		v.AddError("batch.burst",
			fmt.Sprintf("must be at least batch.maxEntries (%d), got %d", cfg.Batch.MaxEntries, cfg.Batch.Burst),
			cfg.Batch.Burst)
	}

	if cfg.Cache.Enabled {
		v.Positive("cache.maxEntries", cfg.Cache.MaxEntries)
		if cfg.Cache.TTL <= 0 {
			v.AddError("cache.ttl", "must be positive", cfg.Cache.TTL)
		}
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}

func validateFlags(v *validate.Validator, fc FlagsConfig) {
	v.OneOf("flags.backend", fc.Backend, []string{BackendMemory, BackendFile, BackendRedis, BackendSQLite})

	switch fc.Backend {
	case BackendFile:
		v.NotEmpty("flags.file", fc.File)
	case BackendSQLite:
		v.NotEmpty("flags.sqlitePath", fc.SQLitePath)
	case BackendRedis:
		v.HostPort("flags.redis.addr", fc.Redis.Addr, false)
		v.Range("flags.redis.db", fc.Redis.DB, 0, 15)
	}

	reg := capability.DefaultRegistry()
	names := make([]string, 0, len(fc.Overrides))
	for name := range fc.Overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !reg.KnownFlag(name) {
			v.AddError("flags.overrides", fmt.Sprintf("unknown flag %q", name), name)
		}
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the canplayd configuration.
//
// Precedence is ENV > file > defaults. The YAML file is parsed strictly:
// unknown keys and trailing documents are rejected.
package config

import "time"

// Flag store backends accepted in flags.backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// AppConfig is the fully resolved daemon configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	ListenAddr      string        `yaml:"listenAddr"`
	LogLevel        string        `yaml:"logLevel"`
	LogService      string        `yaml:"logService"`
	APIToken        string        `yaml:"apiToken"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	Flags     FlagsConfig     `yaml:"flags"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Batch     BatchConfig     `yaml:"batch"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// FlagsConfig selects and configures the feature flag store.
type FlagsConfig struct {
	Backend    string      `yaml:"backend"`
	File       string      `yaml:"file"`
	Watch      bool        `yaml:"watch"`
	SQLitePath string      `yaml:"sqlitePath"`
	Redis      RedisConfig `yaml:"redis"`
	// Overrides pin values in memory over the backend. They are never persisted.
	Overrides map[string]bool `yaml:"overrides"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// RateLimitConfig is the per-client HTTP request limit.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
}

// BatchConfig bounds POST /api/v1/canplay.
type BatchConfig struct {
	MaxEntries       int     `yaml:"maxEntries"`
	QueriesPerSecond float64 `yaml:"queriesPerSecond"`
	Burst            int     `yaml:"burst"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr:      ":8088",
		LogLevel:        "info",
		LogService:      "canplayd",
		ShutdownTimeout: 10 * time.Second,
		Flags: FlagsConfig{
			Backend:    BackendMemory,
			File:       "/var/lib/canplay/flags.yaml",
			Watch:      true,
			SQLitePath: "/var/lib/canplay/flags.db",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "canplay:",
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 600,
		},
		Batch: BatchConfig{
			MaxEntries:       256,
			QueriesPerSecond: 2000,
			Burst:            512,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        10 * time.Minute,
			MaxEntries: 4096,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ManuGH/canplay/internal/log"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. An empty configPath skips
// the file layer.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// Load resolves defaults, then the YAML file, then CANPLAY_* environment
// variables, and validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
		logger := log.WithComponent("config")
		logger.Info().
			Str("event", "config.file_loaded").
			Str("path", l.configPath).
			Msg("configuration file loaded")
	}

	if err := l.mergeEnv(&cfg); err != nil {
		return AppConfig{}, err
	}

	if err := Validate(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file over cfg. Keys absent from the file keep
// their current value.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// mergeEnv applies environment overrides. Each key falls back to the value
// already resolved from defaults and file.
func (l *Loader) mergeEnv(cfg *AppConfig) error {
	cfg.ListenAddr = ParseString("CANPLAY_LISTEN_ADDR", cfg.ListenAddr)
	cfg.LogLevel = ParseString("CANPLAY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("CANPLAY_LOG_SERVICE", cfg.LogService)
	cfg.APIToken = ParseString("CANPLAY_API_TOKEN", cfg.APIToken)
	cfg.ShutdownTimeout = ParseDuration("CANPLAY_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.Flags.Backend = ParseString("CANPLAY_FLAG_BACKEND", cfg.Flags.Backend)
	cfg.Flags.File = ParseString("CANPLAY_FLAG_FILE", cfg.Flags.File)
	cfg.Flags.Watch = ParseBool("CANPLAY_FLAG_WATCH", cfg.Flags.Watch)
	cfg.Flags.SQLitePath = ParseString("CANPLAY_FLAG_SQLITE_PATH", cfg.Flags.SQLitePath)
	cfg.Flags.Redis.Addr = ParseString("CANPLAY_REDIS_ADDR", cfg.Flags.Redis.Addr)
	cfg.Flags.Redis.Password = ParseString("CANPLAY_REDIS_PASSWORD", cfg.Flags.Redis.Password)
	cfg.Flags.Redis.DB = ParseInt("CANPLAY_REDIS_DB", cfg.Flags.Redis.DB)
	cfg.Flags.Redis.KeyPrefix = ParseString("CANPLAY_REDIS_PREFIX", cfg.Flags.Redis.KeyPrefix)

	if raw := ParseString("CANPLAY_FLAG_OVERRIDES", ""); raw != "" {
		overrides, err := parseOverrides(raw)
		if err != nil {
			return fmt.Errorf("%w: CANPLAY_FLAG_OVERRIDES: %w", ErrInvalidConfig, err)
		}
		if cfg.Flags.Overrides == nil {
			cfg.Flags.Overrides = make(map[string]bool, len(overrides))
		}
		for name, v := range overrides {
			cfg.Flags.Overrides[name] = v
		}
	}

	cfg.RateLimit.Enabled = ParseBool("CANPLAY_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = ParseInt("CANPLAY_RATELIMIT_RPM", cfg.RateLimit.RequestsPerMinute)

	cfg.Batch.MaxEntries = ParseInt("CANPLAY_BATCH_MAX", cfg.Batch.MaxEntries)
	cfg.Batch.QueriesPerSecond = ParseFloat("CANPLAY_BATCH_QPS", cfg.Batch.QueriesPerSecond)
	cfg.Batch.Burst = ParseInt("CANPLAY_BATCH_BURST", cfg.Batch.Burst)

	cfg.Cache.Enabled = ParseBool("CANPLAY_CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.TTL = ParseDuration("CANPLAY_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.MaxEntries = ParseInt("CANPLAY_CACHE_MAX", cfg.Cache.MaxEntries)

	cfg.Telemetry.Enabled = ParseBool("CANPLAY_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString("CANPLAY_OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString("CANPLAY_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat("CANPLAY_OTEL_SAMPLING", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = ParseString("CANPLAY_ENV", cfg.Telemetry.Environment)
	return nil
}

// parseOverrides reads "name=bool,name=bool".
func parseOverrides(raw string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("override %q: expected name=bool", part)
		}
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", part, err)
		}
		out[strings.TrimSpace(name)] = b
	}
	return out, nil
}

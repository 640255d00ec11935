// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"fmt"
)

// Config selects and configures a backend.
type Config struct {
	Backend    string // memory, file, redis or sqlite
	FilePath   string
	SQLitePath string
	Redis      RedisConfig
}

// Open builds the configured store seeded with defaultValues.
func Open(ctx context.Context, cfg Config, defaultValues map[string]bool) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(defaultValues), nil
	case BackendFile:
		return NewFile(cfg.FilePath, defaultValues)
	case BackendRedis:
		return NewRedis(ctx, cfg.Redis, defaultValues)
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, defaultValues)
	default:
		return nil, fmt.Errorf("unsupported flag backend %q (supported: memory, file, redis, sqlite)", cfg.Backend)
	}
}

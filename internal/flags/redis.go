// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/canplay/internal/log"
	"github.com/ManuGH/canplay/internal/metrics"
)

const BackendRedis = "redis"

const redisReadTimeout = 2 * time.Second

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr      string // Redis server address (host:port)
	Password  string // Redis password (optional)
	DB        int    // Redis database number
	KeyPrefix string // prefix of the flag hash key (default "canplay:")
}

// Redis shares flags between replicas through one Redis hash. Reads that
// fail fall back to the flag default so a resolver call never errors.
type Redis struct {
	client   *redis.Client
	key      string
	defaults defaults
	logger   zerolog.Logger
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig, defaultValues map[string]bool) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  redisReadTimeout,
		WriteTimeout: redisReadTimeout,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	r := newRedisWithClient(client, cfg.KeyPrefix, defaultValues)
	r.logger.Info().
		Str(xglog.FieldEvent, "flags.redis_connected").
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis flag store")
	return r, nil
}

func newRedisWithClient(client *redis.Client, prefix string, defaultValues map[string]bool) *Redis {
	if prefix == "" {
		prefix = "canplay:"
	}
	return &Redis{
		client:   client,
		key:      prefix + "flags",
		defaults: newDefaults(defaultValues),
		logger:   xglog.WithComponent("flags").With().Str(xglog.FieldBackend, BackendRedis).Logger(),
	}
}

// Flag implements capability.Flags.
func (r *Redis) Flag(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisReadTimeout)
	defer cancel()

	raw, err := r.client.HGet(ctx, r.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return r.defaults[name]
	}
	if err != nil {
		metrics.RecordFlagReadError(BackendRedis)
		r.logger.Warn().Err(err).Str(xglog.FieldFlag, name).Msg("redis flag read failed, using default")
		return r.defaults[name]
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		metrics.RecordFlagReadError(BackendRedis)
		r.logger.Warn().Err(err).Str(xglog.FieldFlag, name).Str("raw", raw).Msg("invalid flag value in redis, using default")
		return r.defaults[name]
	}
	return v
}

// Set writes a known flag.
func (r *Redis) Set(ctx context.Context, name string, value bool) error {
	if err := r.defaults.check(name); err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key, name, strconv.FormatBool(value)).Err(); err != nil {
		return fmt.Errorf("redis set flag %q: %w", name, err)
	}
	metrics.RecordFlagChange(BackendRedis, name, value)
	return nil
}

// Snapshot returns stored values overlaid on defaults.
func (r *Redis) Snapshot(ctx context.Context) (map[string]bool, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis snapshot: %w", err)
	}
	stored := make(map[string]bool, len(raw))
	for k, s := range raw {
		if v, err := strconv.ParseBool(s); err == nil {
			stored[k] = v
		}
	}
	return r.defaults.merged(stored), nil
}

func (r *Redis) Backend() string { return BackendRedis }

// HealthCheck checks if Redis is available.
func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/canplay/internal/capability"
)

// setupMiniRedis creates a flag store backed by miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newRedisWithClient(client, "test:", testDefaults())
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestRedis_DefaultsAndSet(t *testing.T) {
	ctx := context.Background()
	mr, store := setupMiniRedis(t)

	assert.True(t, store.Flag(capability.FlagAV1Enabled), "missing field reads as default")

	require.NoError(t, store.Set(ctx, capability.FlagAV1Enabled, false))
	assert.False(t, store.Flag(capability.FlagAV1Enabled))
	assert.Equal(t, "false", mr.HGet("test:flags", capability.FlagAV1Enabled))

	require.ErrorIs(t, store.Set(ctx, "nope", true), ErrUnknownFlag)
}

func TestRedis_ExternalWriteVisibleImmediately(t *testing.T) {
	mr, store := setupMiniRedis(t)
	r := capability.NewResolver(nil, store)

	assert.Equal(t, capability.Probably, r.Resolve(`video/mkv; codecs="av01"`))
	mr.HSet("test:flags", capability.FlagAV1Enabled, "false")
	assert.Equal(t, capability.Unsupported, r.Resolve(`video/mkv; codecs="av01"`))
}

func TestRedis_InvalidValueFallsBack(t *testing.T) {
	mr, store := setupMiniRedis(t)
	mr.HSet("test:flags", capability.FlagMatroskaEnabled, "sometimes")
	assert.True(t, store.Flag(capability.FlagMatroskaEnabled))
}

func TestRedis_Snapshot(t *testing.T) {
	ctx := context.Background()
	mr, store := setupMiniRedis(t)
	mr.HSet("test:flags", capability.FlagAV1Enabled, "false")
	mr.HSet("test:flags", "stray.flag", "true")

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{capability.FlagAV1Enabled: false, capability.FlagMatroskaEnabled: true}, snap)
}

func TestRedis_UnavailableFallsBackToDefault(t *testing.T) {
	mr, store := setupMiniRedis(t)
	require.NoError(t, store.HealthCheck(context.Background()))

	mr.Close()
	assert.True(t, store.Flag(capability.FlagAV1Enabled))
	assert.Error(t, store.HealthCheck(context.Background()))
}

func TestNewRedis_ConnectionFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), RedisConfig{Addr: addr}, testDefaults())
	assert.ErrorContains(t, err, "redis connection failed")
}

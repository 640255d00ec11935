// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/canplay/internal/capability"
)

var _ Store = (*Overlay)(nil)

func TestOverlay_PinsDoNotReachBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flags.yaml")

	// a value written at runtime by an earlier process
	first, err := NewFile(path, testDefaults())
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, capability.FlagMatroskaEnabled, false))
	require.NoError(t, first.Close())

	backend, err := NewFile(path, testDefaults())
	require.NoError(t, err)
	o, err := NewOverlay(backend, testDefaults(), map[string]bool{capability.FlagAV1Enabled: false})
	require.NoError(t, err)
	defer func() { _ = o.Close() }()

	assert.False(t, o.Flag(capability.FlagAV1Enabled), "pin wins")
	assert.True(t, backend.Flag(capability.FlagAV1Enabled), "backend untouched")
	assert.False(t, o.Flag(capability.FlagMatroskaEnabled), "runtime value survives restart")

	snap, err := o.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{capability.FlagAV1Enabled: false, capability.FlagMatroskaEnabled: false}, snap)

	reread, err := NewFile(path, testDefaults())
	require.NoError(t, err)
	assert.True(t, reread.Flag(capability.FlagAV1Enabled), "pin never persisted")
	assert.Equal(t, BackendFile, o.Backend())
}

func TestOverlay_SetReleasesPin(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(testDefaults())
	o, err := NewOverlay(mem, testDefaults(), map[string]bool{capability.FlagAV1Enabled: false})
	require.NoError(t, err)

	require.NoError(t, o.Set(ctx, capability.FlagAV1Enabled, true))
	assert.True(t, o.Flag(capability.FlagAV1Enabled))
	assert.True(t, mem.Flag(capability.FlagAV1Enabled))
	assert.Empty(t, o.Pinned())

	// a rejected write keeps the pin
	o2, err := NewOverlay(mem, testDefaults(), map[string]bool{capability.FlagMatroskaEnabled: false})
	require.NoError(t, err)
	require.ErrorIs(t, o2.Set(ctx, "media.bogus.enabled", true), ErrUnknownFlag)
	assert.Equal(t, map[string]bool{capability.FlagMatroskaEnabled: false}, o2.Pinned())
}

func TestOverlay_UnknownPin(t *testing.T) {
	_, err := NewOverlay(NewMemory(testDefaults()), testDefaults(), map[string]bool{"media.flac.enabled": true})
	require.ErrorIs(t, err, ErrUnknownFlag)
}

func TestOverlay_SharedRedisNotClobbered(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	replicaA, err := NewRedis(ctx, RedisConfig{Addr: mr.Addr(), KeyPrefix: "canplay:"}, testDefaults())
	require.NoError(t, err)
	defer func() { _ = replicaA.Close() }()
	require.NoError(t, replicaA.Set(ctx, capability.FlagAV1Enabled, true))

	// replica B restarts with a config pin
	replicaB, err := NewRedis(ctx, RedisConfig{Addr: mr.Addr(), KeyPrefix: "canplay:"}, testDefaults())
	require.NoError(t, err)
	o, err := NewOverlay(replicaB, testDefaults(), map[string]bool{capability.FlagAV1Enabled: false})
	require.NoError(t, err)
	defer func() { _ = o.Close() }()

	assert.False(t, o.Flag(capability.FlagAV1Enabled))
	assert.True(t, replicaA.Flag(capability.FlagAV1Enabled), "other replica keeps shared value")
}

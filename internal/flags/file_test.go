// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/canplay/internal/capability"
)

func TestFile_MissingFileStartsFromDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flags.yaml")
	f, err := NewFile(path, testDefaults())
	require.NoError(t, err)

	snap, err := f.Snapshot(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(testDefaults(), snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestFile_SetPersistsAtomically(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flags.yaml")
	f, err := NewFile(path, testDefaults())
	require.NoError(t, err)

	require.NoError(t, f.Set(ctx, capability.FlagAV1Enabled, false))
	assert.False(t, f.Flag(capability.FlagAV1Enabled))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "media.av1.enabled: false")
	assert.Contains(t, string(data), "media.mkv.enabled: true")

	reopened, err := NewFile(path, testDefaults())
	require.NoError(t, err)
	assert.False(t, reopened.Flag(capability.FlagAV1Enabled))

	require.ErrorIs(t, f.Set(ctx, "nope", true), ErrUnknownFlag)
}

func TestFile_InvalidContentRejected(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "unknown top-level key", content: "flag:\n  media.av1.enabled: true\n"},
		{name: "unknown flag", content: "flags:\n  media.bogus: true\n", wantErr: ErrUnknownFlag},
		{name: "non-bool value", content: "flags:\n  media.av1.enabled: maybe\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "flags.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := NewFile(path, testDefaults())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestFile_EmptyFileIsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	f, err := NewFile(path, testDefaults())
	require.NoError(t, err)
	assert.True(t, f.Flag(capability.FlagAV1Enabled))
}

func TestFile_WatchReloadsAndKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	require.NoError(t, os.WriteFile(path, []byte("flags:\n  media.av1.enabled: true\n"), 0o644))

	f, err := NewFile(path, testDefaults())
	require.NoError(t, err)
	f.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("flags:\n  media.av1.enabled: false\n"), 0o644))
	require.Eventually(t, func() bool { return !f.Flag(capability.FlagAV1Enabled) }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("flags: [broken\n"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.False(t, f.Flag(capability.FlagAV1Enabled), "invalid file must keep previous values")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Watch() didn't return after cancel")
	}
}

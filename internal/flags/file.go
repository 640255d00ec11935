// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	xglog "github.com/ManuGH/canplay/internal/log"
	"github.com/ManuGH/canplay/internal/metrics"
)

const BackendFile = "file"

// fileDocument is the on-disk YAML layout:
//
//	flags:
//	  media.av1.enabled: true
type fileDocument struct {
	Flags map[string]bool `yaml:"flags"`
}

// File is a flag store persisted as a YAML document. Reads are served from
// memory; Watch keeps memory in sync with external edits.
type File struct {
	path     string
	mem      *Memory
	logger   zerolog.Logger
	debounce time.Duration

	writeMu sync.Mutex
}

// NewFile loads path. A missing file is not an error: the store starts from
// defaults and the file is created on the first Set.
func NewFile(path string, defaultValues map[string]bool) (*File, error) {
	f := &File{
		path:     path,
		mem:      NewMemory(defaultValues),
		logger:   xglog.WithComponent("flags"),
		debounce: 500 * time.Millisecond,
	}
	if err := f.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return f, nil
}

// Load re-reads the file. On any error the previous values are kept.
func (f *File) Load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read flag file: %w", err)
	}
	values, err := f.decode(data)
	if err != nil {
		return err
	}
	f.mem.Replace(values)
	return nil
}

func (f *File) decode(data []byte) (map[string]bool, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse flag file %s: %w", f.path, err)
	}
	for name := range doc.Flags {
		if err := f.mem.defaults.check(name); err != nil {
			return nil, fmt.Errorf("flag file %s: %w", f.path, err)
		}
	}
	return doc.Flags, nil
}

// Flag implements capability.Flags.
func (f *File) Flag(name string) bool { return f.mem.Flag(name) }

// Set updates the flag and rewrites the file atomically.
func (f *File) Set(ctx context.Context, name string, value bool) error {
	if err := f.mem.defaults.check(name); err != nil {
		return err
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	snap, _ := f.mem.Snapshot(ctx)
	snap[name] = value
	if err := f.write(snap); err != nil {
		return err
	}
	f.mem.Replace(snap)
	metrics.RecordFlagChange(BackendFile, name, value)
	return nil
}

func (f *File) write(values map[string]bool) error {
	data, err := yaml.Marshal(fileDocument{Flags: values})
	if err != nil {
		return fmt.Errorf("encode flag file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create flag dir: %w", err)
	}
	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pendingFile, err := renameio.NewPendingFile(f.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending flag file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write flag file: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace flag file: %w", err)
	}
	return nil
}

// Snapshot returns the current values.
func (f *File) Snapshot(ctx context.Context) (map[string]bool, error) { return f.mem.Snapshot(ctx) }

func (f *File) Backend() string { return BackendFile }

func (f *File) Close() error { return nil }

func (f *File) Path() string { return f.path }

// Watch reloads the file whenever it changes until ctx is cancelled. The
// parent directory is watched because atomic replacement swaps the inode.
func (f *File) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create flag dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch flag dir: %w", err)
	}

	f.logger.Info().
		Str(xglog.FieldEvent, "flags.watcher_started").
		Str(xglog.FieldPath, f.path).
		Msg("watching flag file for changes")

	target := filepath.Clean(f.path)
	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info().Str(xglog.FieldEvent, "flags.watcher_stopped").Msg("flag watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			f.logger.Debug().
				Str(xglog.FieldEvent, "flags.file_changed").
				Str("op", event.Op.String()).
				Msg("flag file changed")

			// Debounce: reset timer on each event
			if debounce == nil {
				debounce = time.NewTimer(f.debounce)
			} else {
				debounce.Reset(f.debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			_ = f.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "flags.watcher_error").
				Msg("flag watcher error")
		}
	}
}

// Reload re-reads the file. On failure the previous values stay active.
func (f *File) Reload() error {
	if err := f.Load(); err != nil {
		metrics.RecordFlagReload(false)
		f.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "flags.reload_failed").
			Msg("flag file reload failed, keeping previous values")
		return err
	}
	metrics.RecordFlagReload(true)
	f.logger.Info().
		Str(xglog.FieldEvent, "flags.reloaded").
		Str(xglog.FieldPath, f.path).
		Msg("flag file reloaded")
	return nil
}

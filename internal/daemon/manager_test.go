// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/canplay/internal/log"
	"go.uber.org/goleak"
)

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve listen addr: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func TestNewManager_MissingAPIHandler(t *testing.T) {
	_, err := NewManager(ServerConfig{ListenAddr: "127.0.0.1:0"}, nil, log.WithComponent("test"))
	if !errors.Is(err, ErrMissingAPIHandler) {
		t.Fatalf("NewManager() error = %v, want %v", err, ErrMissingAPIHandler)
	}
}

func TestManager_StartStop_RunsHooksLIFO(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	addr := reserveListenAddr(t)
	mgr, err := NewManager(ServerConfig{
		ListenAddr:      addr,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 2 * time.Second,
	}, handler, log.WithComponent("test"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"first", "second", "third"} {
		mgr.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := make(chan error, 1)
	go func() { errChan <- mgr.Start(ctx) }()

	if err := waitForListen(addr, 2*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	if got := strings.Join(order, ","); got != "third,second,first" {
		t.Errorf("hook order = %s, want third,second,first", got)
	}

	// second shutdown is a no-op
	if err := mgr.Shutdown(context.Background()); err != nil {
		t.Errorf("repeated Shutdown() error = %v", err)
	}
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(ServerConfig{}, http.NotFoundHandler(), log.WithComponent("test"))
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.Shutdown(context.Background()); !errors.Is(err, ErrManagerNotStarted) {
		t.Fatalf("Shutdown() error = %v, want %v", err, ErrManagerNotStarted)
	}
}

func TestManager_HookErrorsAreJoined(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	addr := reserveListenAddr(t)
	mgr, err := NewManager(ServerConfig{ListenAddr: addr, ShutdownTimeout: time.Second},
		http.NotFoundHandler(), log.WithComponent("test"))
	if err != nil {
		t.Fatal(err)
	}
	hookErr := errors.New("close failed")
	mgr.RegisterShutdownHook("broken", func(context.Context) error { return hookErr })

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- mgr.Start(ctx) }()
	if err := waitForListen(addr, 2*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	cancel()

	if err := <-errChan; !errors.Is(err, hookErr) {
		t.Fatalf("Start() error = %v, want wrapped %v", err, hookErr)
	}
}

func TestManager_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = ln.Close() }()

	mgr, err := NewManager(ServerConfig{ListenAddr: ln.Addr().String(), ShutdownTimeout: time.Second},
		http.NotFoundHandler(), log.WithComponent("test"))
	if err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-startAsync(mgr):
		if err == nil || !strings.Contains(err.Error(), "API server") {
			t.Fatalf("Start() error = %v, want API server failure", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not fail on occupied address")
	}
}

func startAsync(mgr Manager) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- mgr.Start(context.Background()) }()
	return ch
}

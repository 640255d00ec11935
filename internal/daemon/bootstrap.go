// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ManuGH/canplay/internal/api"
	"github.com/ManuGH/canplay/internal/cache"
	"github.com/ManuGH/canplay/internal/capability"
	"github.com/ManuGH/canplay/internal/config"
	"github.com/ManuGH/canplay/internal/flags"
	"github.com/ManuGH/canplay/internal/health"
	"github.com/ManuGH/canplay/internal/log"
	"github.com/ManuGH/canplay/internal/metrics"
	"github.com/ManuGH/canplay/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

// readinessProbe is resolved by the readiness checker on every /readyz.
const readinessProbe = "video/x-matroska"

// Bootstrap opens every resource named by cfg and returns a ready-to-run
// App. Resources opened before a failure are released.
func Bootstrap(ctx context.Context, cfg config.AppConfig) (_ *App, err error) {
	logger := log.WithComponent("daemon")

	var cleanups []namedHook
	defer func() {
		if err == nil {
			return
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			_ = cleanups[i].hook(context.WithoutCancel(ctx))
		}
	}()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	cleanups = append(cleanups, namedHook{"telemetry", tp.Shutdown})

	reg := capability.DefaultRegistry()
	backend, err := OpenFlags(ctx, cfg.Flags, reg)
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, namedHook{"flag_store", func(context.Context) error { return backend.Close() }})

	store, err := pinOverrides(backend, reg, cfg.Flags.Overrides)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	var opts []capability.Option
	if cfg.Cache.Enabled {
		qc := cache.New(cache.Config{
			TTL:             cfg.Cache.TTL,
			MaxEntries:      cfg.Cache.MaxEntries,
			CleanupInterval: cfg.Cache.TTL,
		})
		cleanups = append(cleanups, namedHook{"query_cache", func(context.Context) error { qc.Stop(); return nil }})
		opts = append(opts, capability.WithQueryCache(qc))
		registry.MustRegister(metrics.NewCacheCollector(func() metrics.CacheStats {
			st := qc.Stats()
			return metrics.CacheStats{Hits: st.Hits, Misses: st.Misses, Evictions: st.Evictions, Size: st.CurrentSize}
		}))
	}
	resolver := capability.NewResolver(reg, store, opts...)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewResolverChecker(resolver, readinessProbe))
	if hc, ok := backend.(flags.HealthChecker); ok {
		hm.RegisterChecker(health.NewPingChecker("flag_store", hc.HealthCheck, 0))
	}

	var (
		watcher  Watcher
		reloader Reloader
	)
	if f, ok := backend.(*flags.File); ok {
		hm.RegisterChecker(health.NewFileChecker("flag_file", f.Path()))
		reloader = f
		if cfg.Flags.Watch {
			watcher = f
		}
	}

	tracing := ""
	if cfg.Telemetry.Enabled {
		tracing = cfg.LogService
	}
	srv, err := api.New(api.Config{
		Version:        cfg.Version,
		APIToken:       cfg.APIToken,
		MaxBatch:       cfg.Batch.MaxEntries,
		BatchQPS:       cfg.Batch.QueriesPerSecond,
		BatchBurst:     cfg.Batch.Burst,
		RateLimitRPM:   rateLimitRPM(cfg.RateLimit),
		TracingService: tracing,
		AccessLog:      true,
	}, api.Deps{
		Resolver: resolver,
		Flags:    store,
		Health:   hm,
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, registry},
	})
	if err != nil {
		return nil, fmt.Errorf("build api server: %w", err)
	}

	mgr, err := NewManager(ServerConfig{
		ListenAddr:      cfg.ListenAddr,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, srv.Handler(), logger)
	if err != nil {
		return nil, err
	}
	for _, c := range cleanups {
		mgr.RegisterShutdownHook(c.name, c.hook)
	}

	logger.Info().
		Str("event", "daemon.bootstrapped").
		Str(log.FieldBackend, store.Backend()).
		Bool("cache", cfg.Cache.Enabled).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Msg("canplay daemon ready")

	return NewApp(logger, mgr, watcher, reloader), nil
}

// OpenFlags opens the configured flag backend seeded with reg's defaults.
func OpenFlags(ctx context.Context, fc config.FlagsConfig, reg *capability.Registry) (flags.Store, error) {
	store, err := flags.Open(ctx, flags.Config{
		Backend:    fc.Backend,
		FilePath:   fc.File,
		SQLitePath: fc.SQLitePath,
		Redis: flags.RedisConfig{
			Addr:      fc.Redis.Addr,
			Password:  fc.Redis.Password,
			DB:        fc.Redis.DB,
			KeyPrefix: fc.Redis.KeyPrefix,
		},
	}, reg.DefaultFlags())
	if err != nil {
		return nil, fmt.Errorf("open flag store: %w", err)
	}
	return store, nil
}

// pinOverrides layers configured values over backend in memory. They are
// never written to the backend, so runtime writes made through the API and
// values shared with other replicas survive a restart.
func pinOverrides(backend flags.Store, reg *capability.Registry, overrides map[string]bool) (flags.Store, error) {
	if len(overrides) == 0 {
		return backend, nil
	}
	o, err := flags.NewOverlay(backend, reg.DefaultFlags(), overrides)
	if err != nil {
		return nil, fmt.Errorf("apply flag overrides: %w", err)
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	logger := log.WithComponent("daemon")
	logger.Info().
		Str("event", "flags.overrides_pinned").
		Strs("flags", names).
		Str(log.FieldBackend, backend.Backend()).
		Msg("configured flag overrides pinned in memory")
	return o, nil
}

func rateLimitRPM(cfg config.RateLimitConfig) int {
	if !cfg.Enabled {
		return 0
	}
	return cfg.RequestsPerMinute
}

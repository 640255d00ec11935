// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/canplay/internal/config"
	"github.com/ManuGH/canplay/internal/daemon"
	xglog "github.com/ManuGH/canplay/internal/log"
	"github.com/ManuGH/canplay/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "canplayd",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString("CANPLAY_CONFIG", ""))
	}

	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", path).
		Str(xglog.FieldBackend, cfg.Flags.Backend).
		Str("listen", cfg.ListenAddr).
		Msg("configuration loaded")

	app, err := daemon.Bootstrap(ctx, cfg)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "bootstrap.failed").
			Msg("failed to bootstrap daemon")
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Str("event", "daemon.failed").Msg("daemon exited with error")
		stop()
		os.Exit(1)
	}
	logger.Info().Str("event", "daemon.stopped").Msg("daemon stopped")
}

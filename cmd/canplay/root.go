// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ManuGH/canplay/internal/capability"
	"github.com/ManuGH/canplay/internal/config"
	"github.com/ManuGH/canplay/internal/daemon"
	"github.com/ManuGH/canplay/internal/flags"
	xglog "github.com/ManuGH/canplay/internal/log"
	"github.com/ManuGH/canplay/internal/version"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	server     string
	token      string
	timeout    time.Duration
	verbose    bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "canplay",
		Short: "Resolve media capability queries",
		Long: `canplay answers canPlayType-style questions such as
"video/x-matroska; codecs=\"av01.0.04M.08, opus\"".

Without --server it resolves offline against the built-in tables. With
--config it reads flag values from the configured backend. With --server
it talks to a running canplayd.`,
		// SilenceUsage is set to true to prevent printing usage message on
		// errors handled by us (bad flags, unreachable daemon)
		SilenceUsage: true,
		Version:      version.Version,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			xglog.Configure(xglog.Config{Level: level, Output: errOut, Service: "canplay", Version: version.Version})
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(`{{printf "canplay version %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "canplayd config file; flag values come from its backend")
	pf.StringVarP(&opts.server, "server", "s", "", "canplayd base URL, e.g. http://localhost:8088")
	pf.StringVar(&opts.token, "token", "", "API token for flag writes (default $CANPLAY_API_TOKEN)")
	pf.DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout in server mode")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newQueryCmd(opts))
	root.AddCommand(newCatalogCmd(opts))
	root.AddCommand(newFlagsCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// openBackend picks the remote client or a local resolver.
func (o *rootOptions) openBackend(ctx context.Context) (backend, error) {
	if o.server != "" {
		if o.configPath != "" {
			return nil, fmt.Errorf("--config and --server are mutually exclusive")
		}
		token := o.token
		if token == "" {
			token = config.ParseString("CANPLAY_API_TOKEN", "")
		}
		return newRemote(o.server, token, o.timeout)
	}

	reg := capability.DefaultRegistry()
	if o.configPath == "" {
		return newLocal(reg, flags.NewMemory(reg.DefaultFlags()), false), nil
	}
	cfg, err := config.NewLoader(o.configPath, version.Version).Load()
	if err != nil {
		return nil, err
	}
	store, err := daemon.OpenFlags(ctx, cfg.Flags, reg)
	if err != nil {
		return nil, err
	}
	return newLocal(reg, store, cfg.Flags.Backend != config.BackendMemory), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of canplay",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "canplay version %s\n", version.Version)
		},
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFlagsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Inspect or change feature flags",
	}
	cmd.AddCommand(newFlagsListCmd(root), newFlagsSetCmd(root))
	return cmd
}

func newFlagsListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show every flag and its current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := root.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			resp, err := b.Flags(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			names := make([]string, 0, len(resp.Flags))
			for name := range resp.Flags {
				names = append(names, name)
			}
			slices.Sort(names)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "FLAG\tENABLED\t(backend: %s)\n", resp.Backend)
			for _, name := range names {
				fmt.Fprintf(tw, "%s\t%t\t\n", name, resp.Flags[name])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print flags as JSON")
	return cmd
}

func newFlagsSetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "set <name> <true|false>",
		Short:   "Write a flag value",
		Example: "  canplay --server http://localhost:8088 flags set media.av1.enabled false",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			b, err := root.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			if err := b.SetFlag(cmd.Context(), args[0], enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%t\n", args[0], enabled)
			return nil
		},
	}
}

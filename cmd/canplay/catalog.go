// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ManuGH/canplay/internal/api"
	"github.com/spf13/cobra"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List known containers and codecs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := root.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			cat, err := b.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), cat)
			}
			return printCatalog(cmd.OutOrStdout(), cat)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func printCatalog(w io.Writer, cat api.CatalogResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTAINER\tFAMILY\tVIDEO\tFLAG\tENABLED")
	for _, c := range cat.Containers {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%t\n", c.Alias, c.Family, c.Video, dash(c.Flag), c.Enabled)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CODEC\tKIND\tPROFILED\tFLAG\tENABLED")
	for _, c := range cat.Codecs {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%t\n", c.Token, c.Kind, c.Profiled, dash(c.Flag), c.Enabled)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

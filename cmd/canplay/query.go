// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ManuGH/canplay/internal/api"
	"github.com/ManuGH/canplay/internal/capability"
	"github.com/spf13/cobra"
)

type queryOptions struct {
	flags   []string
	explain bool
	json    bool
	stdin   bool
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query [mime-type...]",
		Short: "Resolve one or more MIME type strings",
		Example: `  canplay query 'video/x-matroska; codecs="vp9, opus"'
  canplay query --flag media.av1.enabled=false 'video/x-matroska; codecs="av01.0.04M.08"'
  canplay query --stdin --json < types.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := args
			if opts.stdin {
				more, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				types = append(types, more...)
			}
			if len(types) == 0 {
				return fmt.Errorf("at least one MIME type is required")
			}
			overrides, err := parseFlagOverrides(opts.flags)
			if err != nil {
				return err
			}

			b, err := root.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			results, err := b.Query(cmd.Context(), types, overrides)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			return printResults(cmd.OutOrStdout(), results, opts.explain)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.flags, "flag", "f", nil, "override a flag as name=bool (repeatable, offline only)")
	cmd.Flags().BoolVarP(&opts.explain, "explain", "e", false, "show reason and rejected codec")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&opts.stdin, "stdin", false, "read additional MIME types from stdin, one per line")
	return cmd
}

// parseFlagOverrides reads repeated name=bool arguments.
func parseFlagOverrides(raw []string) (map[string]bool, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]bool, len(raw))
	for _, item := range raw {
		name, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("--flag %q: expected name=bool", item)
		}
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("--flag %q: %w", item, err)
		}
		out[strings.TrimSpace(name)] = b
	}
	return out, nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func printResults(w io.Writer, results []api.CanPlayResult, explain bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if explain {
		fmt.Fprintln(tw, "TYPE\tVERDICT\tREASON\tREJECTED")
	}
	for _, r := range results {
		verdict := capability.Verdict(r.Verdict).String()
		if explain {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Type, verdict, r.Reason, r.Rejected)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", r.Type, verdict)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

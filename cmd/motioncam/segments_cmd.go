// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ManuGH/motioncam/internal/catalog"
	"github.com/ManuGH/motioncam/internal/persistence/sqlite"
	"github.com/ManuGH/motioncam/internal/segment"
	"github.com/spf13/cobra"
)

type segmentsOptions struct {
	root    *rootOptions
	catalog string
}

// catalogPath prefers --catalog, then the configured catalog_path.
func (o *segmentsOptions) catalogPath() (string, error) {
	if p := strings.TrimSpace(o.catalog); p != "" {
		return p, nil
	}
	_, cfg, err := o.root.load()
	if err != nil {
		return "", err
	}
	if cfg.CatalogPath == "" {
		return "", errors.New("no catalog: set --catalog or catalog_path")
	}
	return cfg.CatalogPath, nil
}

func newSegmentsCmd(root *rootOptions) *cobra.Command {
	opts := &segmentsOptions{root: root}
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Query the segment catalog",
	}
	cmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "path to the catalog database")
	cmd.AddCommand(newSegmentsListCmd(opts), newSegmentsVerifyCmd(opts))
	return cmd
}

func newSegmentsListCmd(opts *segmentsOptions) *cobra.Command {
	var (
		cam     string
		outcome string
		since   time.Duration
		limit   int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded segments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := catalog.Filter{Camera: cam, Outcome: segment.Outcome(outcome), Limit: limit}
			if outcome != "" && !f.Outcome.Valid() {
				return fmt.Errorf("invalid outcome %q", outcome)
			}
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}

			path, err := opts.catalogPath()
			if err != nil {
				return err
			}
			cat, err := catalog.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()

			recs, err := cat.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			counts, err := cat.Counts(cmd.Context(), cam)
			if err != nil {
				return err
			}
			if asJSON {
				return writeSegmentsJSON(cmd.OutOrStdout(), recs, counts)
			}
			return writeSegmentsTable(cmd.OutOrStdout(), recs, counts)
		},
	}
	cmd.Flags().StringVar(&cam, "camera", "", "only this camera")
	cmd.Flags().StringVar(&outcome, "outcome", "", "only this outcome (kept, discarded, finalized_on_shutdown, failed)")
	cmd.Flags().DurationVar(&since, "since", 0, "only segments opened within this window, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func writeSegmentsJSON(w io.Writer, recs []segment.Record, counts map[segment.Outcome]int) error {
	if recs == nil {
		recs = []segment.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Segments []segment.Record        `json:"segments"`
		Counts   map[segment.Outcome]int `json:"counts"`
	}{recs, counts})
}

func writeSegmentsTable(w io.Writer, recs []segment.Record, counts map[segment.Outcome]int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "CAMERA\tINDEX\tOPENED\tOUTCOME\tFRAMES\tPERSONS\tPATH")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%s\n",
			r.Camera, r.Index, r.OpenedAt.Local().Format(time.DateTime), r.Outcome, r.Frames, r.Persons, r.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	keys := make([]string, 0, len(counts))
	for o := range counts {
		keys = append(keys, string(o))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[segment.Outcome(k)]))
	}
	_, err := fmt.Fprintf(w, "\n%d shown; totals: %s\n", len(recs), strings.Join(parts, " "))
	return err
}

func newSegmentsVerifyCmd(opts *segmentsOptions) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check catalog database integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode = strings.ToLower(strings.TrimSpace(mode))
			if mode != "quick" && mode != "full" {
				return fmt.Errorf("invalid mode %q, use quick or full", mode)
			}
			path, err := opts.catalogPath()
			if err != nil {
				return err
			}
			issues, err := sqlite.VerifyIntegrity(path, mode)
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", issue)
				}
				return fmt.Errorf("%s: %d integrity problems", path, len(issues))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%s)\n", path, mode)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "quick", "verification mode: quick or full")
	return cmd
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lawbook/internal/dedup"
	"github.com/pdiddy/lawbook/internal/ledger"
	"github.com/pdiddy/lawbook/pkg/types"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Remove outputs that already exist in the reference tree",
	Long: `Dedup deletes every Markdown file under the output directory whose
name also appears somewhere under the reference tree. Directories named
like the exclude segment are not searched. With --match content a file is
removed only when the reference copy is byte-identical.`,
	RunE: runDedup,
}

func init() {
	dedupCmd.Flags().Bool("dry-run", false, "report duplicates without deleting them")
	dedupCmd.Flags().String("match", "", "match mode: name or content")
	dedupCmd.Flags().String("output", "", "output directory")
	dedupCmd.Flags().String("reference", "", "reference tree")

	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetBool("dry-run"); v {
		cfg.Dedup.DryRun = true
	}
	if v, _ := cmd.Flags().GetString("match"); v != "" {
		mode := types.MatchMode(v)
		if mode != types.MatchName && mode != types.MatchContent {
			return fmt.Errorf("unknown match mode %q (want name or content)", v)
		}
		cfg.Dedup.Match = mode
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Dedup.OutputDir = v
	}
	if v, _ := cmd.Flags().GetString("reference"); v != "" {
		cfg.Dedup.ReferenceDir = v
	}

	store := openLedger(cfg.Ledger, logger)
	if store != nil {
		defer store.Close()
	}
	return suppress(context.Background(), cfg.Dedup, store, logger, os.Stdout)
}

// suppress runs one duplicate suppression pass, prints each removal, and
// logs removals to the ledger when one is open.
func suppress(ctx context.Context, cfg types.DedupConfig, store *ledger.Store, logger *slog.Logger, w io.Writer) error {
	report, err := dedup.Suppress(cfg, logger)

	verb := "removed"
	if report.DryRun {
		verb = "would remove"
	}
	for _, r := range report.Removed {
		fmt.Fprintf(w, "%s: %s\n", verb, r.Path)
		if store == nil || report.DryRun {
			continue
		}
		if lErr := store.RecordRemoval(ctx, r.Path, r.Matches); lErr != nil {
			logger.Warn("ledger removal failed", "path", r.Path, "error", lErr)
		}
	}
	fmt.Fprintf(w, "Dedup summary: %d scanned, %d %s\n", report.Scanned, len(report.Removed), verb)
	return err
}

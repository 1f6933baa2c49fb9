// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lawbook/internal/ledger"
	"github.com/pdiddy/lawbook/internal/pipeline"
	"github.com/pdiddy/lawbook/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download catalog documents and write them as Markdown",
	Long: `Fetch pages through the catalog, skips decisions and replies, and
writes every statute it can parse under the output directory. Each source
file of a document is tried in format preference order.

With --title only the first document whose title contains the value is
processed. Duplicate suppression always runs afterwards, including after an
error or an interrupt.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("page-from", 0, "first catalog page (default 1)")
	fetchCmd.Flags().Int("page-to", 0, "last catalog page (default 4)")
	fetchCmd.Flags().String("title", "", "process only the first document whose title contains this value")
	fetchCmd.Flags().String("output", "", "output directory")
	fetchCmd.Flags().String("reference", "", "reference tree checked for duplicates")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) (err error) {
	logger := newLogger(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetInt("page-from"); v > 0 {
		cfg.Pipeline.PageFrom = v
	}
	if v, _ := cmd.Flags().GetInt("page-to"); v > 0 {
		cfg.Pipeline.PageTo = v
	}
	if v, _ := cmd.Flags().GetString("title"); v != "" {
		cfg.Pipeline.SpecTitle = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Pipeline.OutputDir = v
		cfg.Dedup.OutputDir = v
	}
	if v, _ := cmd.Flags().GetString("reference"); v != "" {
		cfg.Dedup.ReferenceDir = v
	}

	store := openLedger(cfg.Ledger, logger)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, err := buildDriver(ctx, cfg, logger, os.Stdout, store)
	if err != nil {
		return err
	}
	return fetchAndClean(ctx, driver, cfg.Dedup, store, logger, os.Stdout)
}

// fetchAndClean runs the batch and then always runs duplicate suppression,
// whether the batch finished, failed or was interrupted. Suppression uses a
// fresh context so an interrupt still cleans up. An interrupt is not
// reported as an error.
func fetchAndClean(ctx context.Context, driver *pipeline.Driver, dedupCfg types.DedupConfig, store *ledger.Store, logger *slog.Logger, w io.Writer) (err error) {
	defer func() {
		if dErr := suppress(context.Background(), dedupCfg, store, logger, w); dErr != nil && err == nil {
			err = dErr
		}
	}()

	result, err := driver.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted", "written", result.Written)
		return nil
	}
	return err
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/pdiddy/lawbook/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the run ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents written by past runs",
	RunE:  runLedgerList,
}

func init() {
	ledgerListCmd.Flags().Bool("all", false, "include documents removed as duplicates")
	ledgerListCmd.Flags().Bool("json", false, "output as JSON")

	ledgerCmd.AddCommand(ledgerListCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	all, _ := cmd.Flags().GetBool("all")
	asJSON, _ := cmd.Flags().GetBool("json")
	return listLedger(context.Background(), store, all, asJSON, os.Stdout)
}

// listLedger prints the recorded documents, followed in table mode by the
// number of duplicate removals logged.
func listLedger(ctx context.Context, store *ledger.Store, all, asJSON bool, w io.Writer) error {
	entries, err := store.List(ctx, all)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	removals, err := store.Removals(ctx)
	if err != nil {
		return err
	}
	writeLedgerTable(w, entries)
	fmt.Fprintf(w, "\n%d duplicate removals recorded\n", removals)
	return nil
}

const titleWidth = 40

// writeLedgerTable prints entries as an aligned table. Titles are padded by
// display width so CJK text lines up.
func writeLedgerTable(w io.Writer, entries []ledger.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No documents recorded.")
		return
	}

	fmt.Fprintf(w, "%s  %-6s  %-10s  %-20s  %s\n",
		runewidth.FillRight("Title", titleWidth), "Format", "Publish", "Written", "Path")
	fmt.Fprintln(w, strings.Repeat("-", titleWidth+50))

	for _, e := range entries {
		title := runewidth.Truncate(e.Title, titleWidth, "...")
		if e.Removed {
			title = runewidth.Truncate("[removed] "+e.Title, titleWidth, "...")
		}
		fmt.Fprintf(w, "%s  %-6s  %-10s  %-20s  %s\n",
			runewidth.FillRight(title, titleWidth),
			e.Format, e.Publish, e.WrittenAt.Format("2006-01-02 15:04:05"), e.Path)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var fileCmd = &cobra.Command{
	Use:   "file <path> [publish]",
	Short: "Convert a local text file into a Markdown document",
	Long: `File reads a plain-text statute: the first non-empty line is the
title, the second the description, and the rest the body. The optional
publish date becomes part of the output filename.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFile,
}

func init() {
	fileCmd.Flags().String("output", "", "output directory")

	rootCmd.AddCommand(fileCmd)
}

func runFile(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Pipeline.OutputDir = v
	}
	var publish string
	if len(args) > 1 {
		publish = args[1]
	}

	store := openLedger(cfg.Ledger, logger)
	if store != nil {
		defer store.Close()
	}

	ctx := context.Background()
	driver, err := buildDriver(ctx, cfg, logger, os.Stdout, store)
	if err != nil {
		return err
	}
	_, err = driver.ParseFile(ctx, args[0], publish)
	return err
}

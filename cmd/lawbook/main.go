// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lawbook CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the lawbook CLI.
var rootCmd = &cobra.Command{
	Use:   "lawbook",
	Short: "Mirror statutes from the national law catalog as Markdown",
	Long: `lawbook pages through the national law catalog, downloads each
statute in its preferred source format (HTML, Word, PDF), and writes it as
sectioned Markdown grouped by category. Outputs that already exist in the
reference tree are removed after every fetch.

Use fetch for a catalog run, file to convert a local text file, dedup to
run duplicate suppression alone, and ledger to inspect past runs.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./lawbook.yaml or ~/.config/lawbook/lawbook.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lawbook")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lawbook"))
		}
	}

	setDefaults()
	viper.SetEnvPrefix("LAWBOOK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("catalog.base_url", "https://flk.npc.gov.cn/api")
	viper.SetDefault("catalog.file_base_url", "https://wb.flk.npc.gov.cn")
	viper.SetDefault("catalog.search_type", "1,3")
	viper.SetDefault("catalog.page_size", 10)
	viper.SetDefault("catalog.timeout", 60*time.Second)
	viper.SetDefault("catalog.user_agent", "lawbook/0.1")
	viper.SetDefault("catalog.max_retries", 5)
	viper.SetDefault("catalog.params", []map[string]any{
		{"key": "xlwj", "values": []string{"02", "03", "04", "05", "06", "07", "08"}},
	})

	viper.SetDefault("pipeline.formats", []string{"HTML", "WORD", "PDF"})
	viper.SetDefault("pipeline.page_from", 1)
	viper.SetDefault("pipeline.page_to", 4)
	viper.SetDefault("pipeline.output_dir", "__cache__/out")

	viper.SetDefault("dedup.reference_dir", "..")
	viper.SetDefault("dedup.exclude_segment", "scripts")
	viper.SetDefault("dedup.extension", ".md")
	viper.SetDefault("dedup.match", "name")

	viper.SetDefault("ledger.path", "__cache__/ledger.db")
}

// newLogger writes text logs to stderr at info level, or debug with --verbose.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/pdiddy/lawbook/internal/catalog"
	"github.com/pdiddy/lawbook/internal/classify"
	"github.com/pdiddy/lawbook/internal/container"
	"github.com/pdiddy/lawbook/internal/layout"
	"github.com/pdiddy/lawbook/internal/ledger"
	"github.com/pdiddy/lawbook/internal/parse"
	"github.com/pdiddy/lawbook/internal/pipeline"
	"github.com/pdiddy/lawbook/internal/sink"
	"github.com/pdiddy/lawbook/pkg/types"
)

// loadConfig decodes the merged viper settings.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Dedup.OutputDir == "" {
		cfg.Dedup.OutputDir = cfg.Pipeline.OutputDir
	}
	return cfg, nil
}

// buildDriver wires the catalog client, parsers and output stages.
// rec may be nil.
func buildDriver(ctx context.Context, cfg types.Config, logger *slog.Logger, out io.Writer, rec *ledger.Store) (*pipeline.Driver, error) {
	classifier, err := classify.New(cfg.Pipeline.LineRules)
	if err != nil {
		return nil, err
	}

	categories := cfg.Pipeline.Categories
	if cfg.Pipeline.CategoriesFile != "" {
		loaded, err := layout.LoadCategories(cfg.Pipeline.CategoriesFile)
		if err != nil {
			return nil, err
		}
		categories = append(categories, loaded...)
	}

	cat := catalog.New(nil, cfg.Catalog)
	registry := parse.NewRegistry(
		parse.NewHTMLParser(cat),
		parse.NewWordParser(cat, docRuntime(ctx, cfg.Pipeline.DocImage, logger), cfg.Pipeline.DocImage),
		parse.NewPDFParser(cat),
	)

	pcfg := pipeline.Config{
		Catalog:    cat,
		Parsers:    registry,
		Preference: cfg.Pipeline.Formats,
		Classifier: classifier,
		Resolver:   layout.NewResolver(cfg.Pipeline.TitlePrefix, categories),
		Sink:       sink.New(cfg.Pipeline.OutputDir),
		Filter:     pipeline.NewFilter(cfg.Pipeline.TitlePrefix, cfg.Pipeline.SpecTitle),
		PageFrom:   cfg.Pipeline.PageFrom,
		PageTo:     cfg.Pipeline.PageTo,
		Logger:     logger,
		Out:        out,
	}
	if rec != nil {
		pcfg.Recorder = rec
	}
	return pipeline.New(pcfg)
}

// docRuntime returns the container runtime for legacy Word files, or nil
// when no image is configured or no runtime is usable.
func docRuntime(ctx context.Context, image string, logger *slog.Logger) container.Runtime {
	if image == "" {
		return nil
	}
	rt, err := container.Detect(ctx)
	if err != nil {
		logger.Warn("legacy .doc conversion disabled", "error", err)
		return nil
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		logger.Warn("converter image not found locally", "runtime", rt.Name(), "image", image)
	}
	return rt
}

// openLedger opens the run ledger. Failures are logged and yield nil so a
// run never depends on it.
func openLedger(cfg types.LedgerConfig, logger *slog.Logger) *ledger.Store {
	if cfg.Path == "" {
		return nil
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Warn("ledger unavailable", "path", cfg.Path, "error", err)
		return nil
	}
	return store
}

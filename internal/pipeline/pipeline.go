// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives catalog documents through parsing, normalization,
// path resolution and writing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/lawbook/internal/catalog"
	"github.com/pdiddy/lawbook/internal/classify"
	"github.com/pdiddy/lawbook/internal/layout"
	"github.com/pdiddy/lawbook/internal/normalize"
	"github.com/pdiddy/lawbook/internal/parse"
	"github.com/pdiddy/lawbook/pkg/types"
)

// Catalog lists and describes remote documents.
type Catalog interface {
	ListPage(ctx context.Context, page int) ([]types.DocumentSummary, error)
	Detail(ctx context.Context, id string) (*types.DocumentDetail, error)
}

// Sink stores rendered documents at relative paths.
type Sink interface {
	Write(rel string, doc *types.CanonicalDocument) error
	Path(rel string) string
}

// Recorder is notified of every document written.
type Recorder interface {
	RecordWrite(ctx context.Context, path string, doc *types.CanonicalDocument) error
}

// Config holds everything a Driver needs. Catalog is only required by Run.
type Config struct {
	Catalog    Catalog
	Parsers    *parse.Registry
	Preference []types.FileFormat
	Classifier *classify.Classifier
	Resolver   *layout.Resolver
	Sink       Sink
	Filter     Filter

	// Recorder is optional. Its errors are logged and never stop a run.
	Recorder Recorder

	// PageFrom and PageTo bound the catalog pages read. PageTo <= 0 reads
	// until an empty page.
	PageFrom int
	PageTo   int

	Logger *slog.Logger

	// Out receives per-document status lines and the batch summary.
	Out io.Writer
}

// BatchResult holds the outcome of a run. Written, Skipped and Failed
// count source files; Bypassed counts catalog entries. Records lists the
// documents written, in order.
type BatchResult struct {
	Written  int
	Bypassed int
	Skipped  int
	Failed   int
	Records  []types.OutputRecord
}

// Total returns the number of files and entries handled.
func (r BatchResult) Total() int {
	return r.Written + r.Bypassed + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed to parse or fetch.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Driver runs the extraction pipeline.
type Driver struct {
	cfg Config
}

// New validates cfg and returns a Driver.
func New(cfg Config) (*Driver, error) {
	switch {
	case cfg.Parsers == nil:
		return nil, errors.New("pipeline: parser registry is required")
	case cfg.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case cfg.Resolver == nil:
		return nil, errors.New("pipeline: resolver is required")
	case cfg.Sink == nil:
		return nil, errors.New("pipeline: sink is required")
	}
	if cfg.PageFrom < 1 {
		cfg.PageFrom = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Filter.Prefix == "" {
		cfg.Filter = NewFilter(cfg.Resolver.Prefix, cfg.Filter.SpecTitle)
	}
	cfg.Preference = cfg.Parsers.Supported(cfg.Preference)
	return &Driver{cfg: cfg}, nil
}

// Run reads catalog pages in order and processes every document on them.
// It stops at the first empty page, after PageTo, after the first
// non-bypassed document when a spec title is set, or when ctx is done.
// Only catalog listing errors, write errors and cancellation are returned.
func (d *Driver) Run(ctx context.Context) (BatchResult, error) {
	var result BatchResult
	if d.cfg.Catalog == nil {
		return result, errors.New("pipeline: catalog is required")
	}
	log := d.cfg.Logger

	for page := d.cfg.PageFrom; d.cfg.PageTo <= 0 || page <= d.cfg.PageTo; page++ {
		if err := ctx.Err(); err != nil {
			return d.finish(result), err
		}
		summaries, err := d.cfg.Catalog.ListPage(ctx, page)
		if err != nil {
			return d.finish(result), fmt.Errorf("listing page %d: %w", page, err)
		}
		if len(summaries) == 0 {
			log.Debug("empty catalog page", "page", page)
			break
		}
		log.Debug("catalog page", "page", page, "documents", len(summaries))

		for _, s := range summaries {
			if err := ctx.Err(); err != nil {
				return d.finish(result), err
			}
			if d.cfg.Filter.Bypassed(s.Title) {
				log.Debug("bypassed", "title", s.Title)
				result.Bypassed++
				continue
			}
			if err := d.processDocument(ctx, s, &result); err != nil {
				return d.finish(result), err
			}
			if d.cfg.Filter.Restricted() {
				log.Info("spec title reached", "title", s.Title)
				return d.finish(result), nil
			}
		}
	}
	return d.finish(result), nil
}

func (d *Driver) finish(result BatchResult) BatchResult {
	fmt.Fprintf(d.cfg.Out, "\nBatch summary: %d written, %d bypassed, %d skipped, %d failed (total: %d)\n",
		result.Written, result.Bypassed, result.Skipped, result.Failed, result.Total())
	return result
}

// processDocument fetches the detail of s and runs every selected file
// through parse, normalize and write. Only write errors are returned.
func (d *Driver) processDocument(ctx context.Context, s types.DocumentSummary, result *BatchResult) error {
	w := d.cfg.Out
	publish := catalog.PublishDate(s.Publish)

	detail, err := d.cfg.Catalog.Detail(ctx, s.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		fmt.Fprintf(w, "failed:  %s (%v)\n", s.Title, err)
		result.Failed++
		return nil
	}
	title := detail.Title
	if title == "" {
		title = s.Title
	}

	files := parse.Select(detail.Body, d.cfg.Preference)
	if len(files) == 0 {
		fmt.Fprintf(w, "skipped: %s (no supported file)\n", title)
		result.Skipped++
		return nil
	}

	for _, f := range files {
		p, _ := d.cfg.Parsers.Lookup(f.Type)
		parsed, err := p.Parse(ctx, &types.DocumentDetail{
			ID: detail.ID, Title: title, Office: detail.Office, Publish: detail.Publish, Body: detail.Body,
		}, f)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			d.cfg.Logger.Warn("parse failed", "title", title, "format", f.Type, "url", f.URL, "error", err)
			fmt.Fprintf(w, "failed:  %s [%s] (%v)\n", title, f.Type, err)
			result.Failed++
			continue
		}

		meta := types.Metadata{ID: s.ID, Publish: publish, Office: detail.Office, Format: parsed.Format}
		rec, err := d.write(ctx, meta, title, parsed.Description, parsed.Lines)
		if errors.Is(err, normalize.ErrNotDocument) {
			d.cfg.Logger.Debug("not a document", "title", title, "format", f.Type)
			fmt.Fprintf(w, "skipped: %s [%s] (no content)\n", title, f.Type)
			result.Skipped++
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "written: %s [%s]\n", rec.Path, f.Type)
		result.Written++
		result.Records = append(result.Records, rec)
	}
	return nil
}

// write normalizes one document, resolves its path and stores it. The
// record holds the relative path written.
func (d *Driver) write(ctx context.Context, meta types.Metadata, title, description string, lines []string) (types.OutputRecord, error) {
	doc, err := normalize.Normalize(meta, title, description, lines, d.cfg.Classifier)
	if err != nil {
		return types.OutputRecord{}, err
	}
	rec := types.OutputRecord{Path: d.cfg.Resolver.Resolve(title, meta.Publish), Document: doc}
	if err := d.cfg.Sink.Write(rec.Path, rec.Document); err != nil {
		return types.OutputRecord{}, fmt.Errorf("writing %s: %w", rec.Path, err)
	}

	if d.cfg.Recorder != nil {
		path := d.cfg.Sink.Path(rec.Path)
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if err := d.cfg.Recorder.RecordWrite(ctx, path, rec.Document); err != nil {
			d.cfg.Logger.Warn("ledger write failed", "path", path, "error", err)
		}
	}
	return rec, nil
}

// ParseFile converts a local plain-text document. The first non-empty line
// is the title, the second the description and the rest the body. It
// returns the relative path written.
func (d *Driver) ParseFile(ctx context.Context, path, publish string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%s: %w", path, normalize.ErrNotDocument)
	}

	title := lines[0]
	var description string
	var body []string
	if len(lines) > 1 {
		description = lines[1]
		body = lines[2:]
	}

	meta := types.Metadata{Publish: strings.TrimSpace(publish)}
	rec, err := d.write(ctx, meta, title, description, body)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(d.cfg.Out, "written: %s\n", rec.Path)
	return rec.Path, nil
}

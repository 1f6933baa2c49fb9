// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup removes output files that already exist somewhere in a
// larger reference tree.
//
// Files are matched by name. A name collision between files with different
// content still counts as a duplicate in MatchName mode; MatchContent
// additionally compares SHA-256 digests.
package dedup

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/lawbook/pkg/types"
)

const defaultExtension = ".md"

// Removal records one deleted (or, in dry-run mode, deletable) output file.
type Removal struct {
	Path    string   `json:"path"`
	Matches []string `json:"matches"`
}

// Report summarizes a suppression pass.
type Report struct {
	Scanned int
	Removed []Removal
	DryRun  bool
}

// Suppress deletes every output file whose name also appears under the
// reference tree. Reference directories named cfg.ExcludeSegment and the
// output root itself are never searched. A missing output root is not an
// error.
func Suppress(cfg types.DedupConfig, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ext := cfg.Extension
	if ext == "" {
		ext = defaultExtension
	}
	match := cfg.Match
	if match == "" {
		match = types.MatchName
	}

	report := Report{DryRun: cfg.DryRun}

	outRoot, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return report, fmt.Errorf("resolving output directory: %w", err)
	}
	if _, err := os.Stat(outRoot); os.IsNotExist(err) {
		return report, nil
	}
	refRoot, err := filepath.Abs(cfg.ReferenceDir)
	if err != nil {
		return report, fmt.Errorf("resolving reference directory: %w", err)
	}

	index, err := indexReference(refRoot, outRoot, cfg.ExcludeSegment, ext, logger)
	if err != nil {
		return report, err
	}

	err = filepath.WalkDir(outRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		report.Scanned++

		matches := index[d.Name()]
		if match == types.MatchContent {
			matches, err = sameContent(path, matches)
			if err != nil {
				return err
			}
		}
		if len(matches) == 0 {
			return nil
		}

		if !cfg.DryRun {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("removing %s: %w", path, err)
			}
		}
		logger.Info("removed duplicate", "path", path, "matches", len(matches), "dry_run", cfg.DryRun)
		report.Removed = append(report.Removed, Removal{Path: path, Matches: matches})
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("scanning output directory: %w", err)
	}
	return report, nil
}

// indexReference maps file names to their locations under root. Entries
// below root that cannot be read are logged and skipped; only an unreadable
// root fails the pass.
func indexReference(root, outRoot, exclude, ext string, logger *slog.Logger) (map[string][]string, error) {
	index := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable reference entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == outRoot {
				return filepath.SkipDir
			}
			if path != root && exclude != "" && d.Name() == exclude {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ext) {
			index[d.Name()] = append(index[d.Name()], path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("indexing reference tree %s: %w", root, err)
	}
	return index, nil
}

// sameContent filters candidates down to those with the same digest as path.
func sameContent(path string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	want, err := digest(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range candidates {
		got, err := digest(c)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(want, got) {
			out = append(out, c)
		}
	}
	return out, nil
}

func digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

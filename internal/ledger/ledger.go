// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records written documents and duplicate removals in a
// SQLite database so runs can be audited afterwards.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lawbook/pkg/types"
)

// Entry is one row of the documents table.
type Entry struct {
	Path      string           `json:"path"`
	DocID     string           `json:"doc_id,omitempty"`
	Title     string           `json:"title"`
	Format    types.FileFormat `json:"format,omitempty"`
	Publish   string           `json:"publish,omitempty"`
	WrittenAt time.Time        `json:"written_at"`
	Removed   bool             `json:"removed"`
}

// Store manages the ledger database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.LedgerConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			doc_id TEXT,
			title TEXT NOT NULL,
			format TEXT,
			publish TEXT,
			written_at TEXT NOT NULL,
			removed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_doc_id ON documents(doc_id)`,
		`CREATE TABLE IF NOT EXISTS removals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			matches TEXT NOT NULL,
			removed_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordWrite upserts the document written at path.
func (s *Store) RecordWrite(ctx context.Context, path string, doc *types.CanonicalDocument) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (path, doc_id, title, format, publish, written_at, removed)
		 VALUES (?, ?, ?, ?, ?, ?, 0)
		 ON CONFLICT(path) DO UPDATE SET
			doc_id=excluded.doc_id, title=excluded.title, format=excluded.format,
			publish=excluded.publish, written_at=excluded.written_at, removed=0`,
		path, doc.Meta.ID, doc.Title, string(doc.Meta.Format), doc.Meta.Publish,
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording write of %s: %w", path, err)
	}
	return nil
}

// RecordRemoval logs a duplicate removal and flags the document row.
func (s *Store) RecordRemoval(ctx context.Context, path string, matches []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	matchesJSON, _ := json.Marshal(matches)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO removals (path, matches, removed_at) VALUES (?, ?, ?)`,
		path, string(matchesJSON), s.now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("inserting removal: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET removed = 1 WHERE path = ?`, path,
	); err != nil {
		return fmt.Errorf("flagging removed document: %w", err)
	}
	return tx.Commit()
}

// List returns documents ordered by path. Removed documents are included
// only when includeRemoved is set.
func (s *Store) List(ctx context.Context, includeRemoved bool) ([]Entry, error) {
	query := `SELECT path, COALESCE(doc_id, ''), title, COALESCE(format, ''), COALESCE(publish, ''), written_at, removed
		FROM documents`
	if !includeRemoved {
		query += ` WHERE removed = 0`
	}
	query += ` ORDER BY path`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var format, writtenAt string
		if err := rows.Scan(&e.Path, &e.DocID, &e.Title, &format, &e.Publish, &writtenAt, &e.Removed); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		e.Format = types.FileFormat(format)
		if t, err := time.Parse(time.RFC3339, writtenAt); err == nil {
			e.WrittenAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Removals returns how many removals have been logged.
func (s *Store) Removals(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM removals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting removals: %w", err)
	}
	return n, nil
}

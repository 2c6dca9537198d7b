// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists documents, chunks, mentions, and resolved
// entities in a single SQLite database. All correctness-critical
// resolution logic lives here. See docs/ARCHITECTURE § Ledger.
package ledger

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Config carries what the ledger needs beyond the store path. Zero values
// fall back to working defaults.
type Config struct {
	// Path is the SQLite database file. Parent directories are created.
	Path string

	// FuzzyThreshold is the minimum similarity for a fuzzy merge, in
	// (0,1]. Zero means the default of 0.6.
	FuzzyThreshold float64

	// Aliases maps alternate spellings to the normalized name they stand
	// for, applied during surface normalization.
	Aliases map[string]string

	// Logger receives resolution decisions. Nil means slog.Default().
	Logger *slog.Logger
}

// Ledger is the handle to one worldbuilding store. Safe for concurrent
// readers; writes serialize on SQLite's own locking.
type Ledger struct {
	db             *sql.DB
	path           string
	fuzzyThreshold float64
	aliases        map[string]string
	log            *slog.Logger
}

// Open opens or creates the store at cfg.Path and applies any pending
// migrations. Deleting the file and reopening yields a fresh, empty store.
func Open(cfg Config) (*Ledger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("opening ledger: empty store path")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	threshold := cfg.FuzzyThreshold
	if threshold <= 0 {
		threshold = 0.6
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	aliases := make(map[string]string, len(cfg.Aliases))
	for from, to := range cfg.Aliases {
		aliases[foldName(from)] = foldName(to)
	}

	l := &Ledger{
		db:             db,
		path:           cfg.Path,
		fuzzyThreshold: threshold,
		aliases:        aliases,
		log:            logger,
	}

	if err := l.applyMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the store file the ledger was opened on.
func (l *Ledger) Path() string {
	return l.path
}

// foldName lowercases a name and collapses runs of whitespace.
func foldName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// normalizeSurface folds a mention surface and applies the alias table.
// Entity identity within a type is defined on this form.
func (l *Ledger) normalizeSurface(s string) string {
	n := foldName(s)
	if target, ok := l.aliases[n]; ok {
		return target
	}
	return n
}

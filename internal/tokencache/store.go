// Package tokencache persists token counts in SQLite so repeated texts are
// measured once per tokenizer.
package tokencache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// Store is a SQLite table of token counts keyed by tokenizer namespace and
// content digest. SQLite serialises writes, so the store holds a single
// connection.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used to stamp and prune rows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the cache database described by cfg and
// migrates its schema.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("tokencache: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("tokencache: open %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	if cfg.walEnabled() {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("tokencache: enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tokencache: set busy_timeout: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the cached count for digest and refreshes its last-used stamp.
func (s *Store) Get(ctx context.Context, namespace string, digest []byte) (int, bool, error) {
	var tokens int
	err := s.db.QueryRowContext(ctx,
		`SELECT tokens FROM token_counts WHERE namespace = ? AND digest = ?`,
		namespace, digest,
	).Scan(&tokens)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("tokencache: get: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE token_counts SET last_used = ? WHERE namespace = ? AND digest = ?`,
		s.now().Unix(), namespace, digest,
	); err != nil {
		return tokens, true, fmt.Errorf("tokencache: touch: %w", err)
	}
	return tokens, true, nil
}

// Put stores a count, replacing any previous one.
func (s *Store) Put(ctx context.Context, namespace string, digest []byte, tokens int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_counts (namespace, digest, tokens, last_used)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, digest) DO UPDATE SET tokens = excluded.tokens, last_used = excluded.last_used`,
		namespace, digest, tokens, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("tokencache: put: %w", err)
	}
	return nil
}

// Prune deletes counts unused for longer than olderThan and returns how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM token_counts WHERE last_used < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("tokencache: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tokencache: prune: %w", err)
	}
	return n, nil
}

// Len returns the number of cached counts.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM token_counts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("tokencache: count: %w", err)
	}
	return n, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

package hashcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one remembered digest.
type Entry struct {
	Path      string
	Size      int64
	ModTimeNS int64
	Hash      string
	UpdatedAt time.Time
}

// Stats summarizes the cache contents.
type Stats struct {
	Path    string
	Entries int64
	Oldest  time.Time
	Newest  time.Time
}

// Store manages digest persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the cache database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps every statement on one handle; runs are
	// single-threaded anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the digest recorded for path if size and mtime still match.
func (s *Store) Lookup(ctx context.Context, path string, size, modTimeNS int64) (string, bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash FROM file_hashes WHERE path = ? AND size = ? AND mtime_ns = ?`,
		path, size, modTimeNS,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup hash: %w", err)
	}
	return hash, true, nil
}

// Put records or replaces the digest for entry.Path.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	if entry.Path == "" || entry.Hash == "" {
		return errors.New("hash cache entry requires path and hash")
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_hashes (path, size, mtime_ns, hash, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             size = excluded.size,
             mtime_ns = excluded.mtime_ns,
             hash = excluded.hash,
             updated_at = excluded.updated_at`,
		entry.Path, entry.Size, entry.ModTimeNS, entry.Hash,
		entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store hash: %w", err)
	}
	return nil
}

// Forget drops the entry for path, if any.
func (s *Store) Forget(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM file_hashes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("forget hash: %w", err)
	}
	return nil
}

// Prune removes entries whose path no longer satisfies keep (typically
// "still exists on disk"). It returns the number of entries removed.
func (s *Store) Prune(ctx context.Context, keep func(path string) bool) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM file_hashes`)
	if err != nil {
		return 0, fmt.Errorf("list cached paths: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan cached path: %w", err)
		}
		if !keep(path) {
			stale = append(stale, path)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, path := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM file_hashes WHERE path = ?`, path); err != nil {
			return 0, fmt.Errorf("prune %s: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return len(stale), nil
}

// Clear removes every entry and returns how many were dropped.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM file_hashes`)
	if err != nil {
		return 0, fmt.Errorf("clear hash cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports entry count and the update-time range.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), MIN(updated_at), MAX(updated_at) FROM file_hashes`,
	).Scan(&stats.Entries, &oldest, &newest)
	if err != nil {
		return stats, fmt.Errorf("hash cache stats: %w", err)
	}
	stats.Oldest = parseTime(oldest)
	stats.Newest = parseTime(newest)
	return stats, nil
}

func parseTime(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}
	}
	return ts
}

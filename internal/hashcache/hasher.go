package hashcache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"mediashelf/internal/hashing"
	"mediashelf/internal/logging"
)

// CachedHasher consults the Store before delegating to an inner hasher and
// records fresh digests afterwards.
type CachedHasher struct {
	store  *Store
	inner  hashing.Hasher
	fs     afero.Fs
	logger *slog.Logger

	hits   int
	misses int
}

// NewCachedHasher wraps inner with store. fs must be the filesystem inner reads.
func NewCachedHasher(store *Store, inner hashing.Hasher, fs afero.Fs, logger *slog.Logger) *CachedHasher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &CachedHasher{
		store:  store,
		inner:  inner,
		fs:     fs,
		logger: logging.NewComponentLogger(logger, "hashcache"),
	}
}

// Sum returns the cached digest when the file is unchanged, otherwise hashes
// it. Database errors are logged and never fail the call; read errors from
// the inner hasher always do, as does a done ctx.
func (c *CachedHasher) Sum(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s for hashing: %w", path, err)
	}
	size, mtime := info.Size(), info.ModTime().UnixNano()

	if hash, ok, err := c.store.Lookup(ctx, key, size, mtime); err != nil {
		c.logger.Debug("hash cache lookup failed", logging.String("path", key), logging.Error(err))
	} else if ok {
		c.hits++
		return hash, nil
	}

	hash, err := c.inner.Sum(ctx, path)
	if err != nil {
		return "", err
	}
	c.misses++
	if err := c.store.Put(ctx, Entry{Path: key, Size: size, ModTimeNS: mtime, Hash: hash}); err != nil {
		c.logger.Debug("hash cache store failed", logging.String("path", key), logging.Error(err))
	}
	return hash, nil
}

// Rename moves a cached entry to a new path after the file itself moved.
// Renames keep size and mtime, so the entry stays valid.
func (c *CachedHasher) Rename(ctx context.Context, from, to, hash string) {
	fromKey, err := filepath.Abs(from)
	if err != nil {
		fromKey = from
	}
	toKey, err := filepath.Abs(to)
	if err != nil {
		toKey = to
	}
	info, err := c.fs.Stat(to)
	if err != nil {
		return
	}
	if err := c.store.Forget(ctx, fromKey); err != nil {
		c.logger.Debug("hash cache forget failed", logging.String("path", fromKey), logging.Error(err))
	}
	entry := Entry{Path: toKey, Size: info.Size(), ModTimeNS: info.ModTime().UnixNano(), Hash: hash}
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Debug("hash cache store failed", logging.String("path", toKey), logging.Error(err))
	}
}

// Counts reports cache hits and misses since construction.
func (c *CachedHasher) Counts() (hits, misses int) {
	return c.hits, c.misses
}

// Package hashing computes content digests used for duplicate detection.
package hashing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// chunkSize bounds the read buffer so large videos never load into memory.
const chunkSize = 1 << 20

// Hasher yields a content digest for a path.
type Hasher interface {
	Sum(ctx context.Context, path string) (string, error)
}

// SHA256 streams files through SHA-256 and returns the lowercase hex digest.
type SHA256 struct {
	fs afero.Fs
}

// NewSHA256 returns a hasher reading from fs (the OS filesystem when nil).
func NewSHA256(fs afero.Fs) *SHA256 {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &SHA256{fs: fs}
}

// Sum hashes the full content of path. Read errors are returned; a digest is
// never guessed. ctx is checked before every chunk.
func (h *SHA256) Sum(ctx context.Context, path string) (string, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s for hashing: %w", path, err)
	}
	defer f.Close()

	return SumReader(contextReader{ctx: ctx, r: f})
}

// SumReader hashes everything r yields.
func SumReader(r io.Reader) (string, error) {
	digest := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(onlyWriter{digest}, onlyReader{r}, buf); err != nil {
		return "", fmt.Errorf("read for hashing: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// contextReader fails the next read once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// onlyReader and onlyWriter hide ReaderFrom/WriterTo so io.CopyBuffer really
// uses the bounded buffer.
type onlyReader struct{ io.Reader }

type onlyWriter struct{ io.Writer }

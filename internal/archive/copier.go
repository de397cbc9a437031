package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"

	"mediashelf/internal/faults"
	"mediashelf/internal/fileutil"
	"mediashelf/internal/logging"
)

// Copier copies one file to a destination that must not exist yet and
// returns the number of bytes written.
type Copier interface {
	Copy(src, dst string) (int64, error)
}

// PlainCopier copies bytes and permission bits only.
type PlainCopier struct {
	fs afero.Fs
}

// NewPlainCopier returns a PlainCopier over fs.
func NewPlainCopier(fs afero.Fs) *PlainCopier {
	return &PlainCopier{fs: fs}
}

// Copy implements Copier.
func (c *PlainCopier) Copy(src, dst string) (int64, error) {
	if err := fileutil.CopyFile(c.fs, src, dst); err != nil {
		return 0, err
	}
	info, err := c.fs.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("stat copied file: %w", err)
	}
	return info.Size(), nil
}

// PreservingCopier copies bytes, then carries the source mode and
// modification time onto the destination. When the destination filesystem
// rejects the attributes, the new file is removed again and the error is
// marked faults.ErrAttributesUnsupported.
type PreservingCopier struct {
	fs afero.Fs
}

// NewPreservingCopier returns a PreservingCopier over fs.
func NewPreservingCopier(fs afero.Fs) *PreservingCopier {
	return &PreservingCopier{fs: fs}
}

// Copy implements Copier.
func (c *PreservingCopier) Copy(src, dst string) (int64, error) {
	info, err := c.fs.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if err := fileutil.CopyFile(c.fs, src, dst); err != nil {
		return 0, err
	}
	if err := c.applyAttributes(dst, info); err != nil {
		if IsAttributeUnsupported(err) {
			_ = c.fs.Remove(dst)
			return 0, faults.Wrap(faults.ErrAttributesUnsupported, "archive", "preserve attributes", dst, err)
		}
		return 0, fmt.Errorf("preserve attributes on %s: %w", dst, err)
	}
	return info.Size(), nil
}

func (c *PreservingCopier) applyAttributes(dst string, info os.FileInfo) error {
	if err := c.fs.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return c.fs.Chtimes(dst, info.ModTime(), info.ModTime())
}

// unsupportedErrnos are the errors filesystems without a POSIX attribute
// model (exFAT, FAT32, some network mounts) return for chmod/utimes.
var unsupportedErrnos = []unix.Errno{unix.EPERM, unix.ENOTSUP, unix.EOPNOTSUPP, unix.EINVAL, unix.ENOSYS}

// IsAttributeUnsupported reports whether err means the filesystem refused the
// requested attributes rather than failed outright.
func IsAttributeUnsupported(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, faults.ErrAttributesUnsupported) {
		return true
	}
	for _, errno := range unsupportedErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// FallbackCopier tries primary and, only when it reports unsupported
// attributes, warns and retries with fallback. Any other failure is returned.
type FallbackCopier struct {
	primary   Copier
	fallback  Copier
	logger    *slog.Logger
	fallbacks int
}

// NewFallbackCopier composes the two tiers.
func NewFallbackCopier(primary, fallback Copier, logger *slog.Logger) *FallbackCopier {
	return &FallbackCopier{
		primary:  primary,
		fallback: fallback,
		logger:   logging.NewComponentLogger(logger, "archive"),
	}
}

// Copy implements Copier.
func (c *FallbackCopier) Copy(src, dst string) (int64, error) {
	n, err := c.primary.Copy(src, dst)
	if err == nil || !faults.Recoverable(err) {
		return n, err
	}
	c.fallbacks++
	logging.WarnWithContext(c.logger, "destination rejected file attributes; copying bytes only", "attribute_fallback",
		logging.String("source", src),
		logging.String("destination", dst),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "destination filesystem may not support POSIX modes or timestamps"),
		logging.String(logging.FieldImpact, "file copied without original modification time"),
	)
	return c.fallback.Copy(src, dst)
}

// Fallbacks reports how many copies needed the plain retry.
func (c *FallbackCopier) Fallbacks() int {
	return c.fallbacks
}

// NewCopier returns the copier for a run: attribute preserving with a plain
// fallback when preserve is set, otherwise plain.
func NewCopier(fs afero.Fs, preserve bool, logger *slog.Logger) Copier {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if !preserve {
		return NewPlainCopier(fs)
	}
	return NewFallbackCopier(NewPreservingCopier(fs), NewPlainCopier(fs), logger)
}

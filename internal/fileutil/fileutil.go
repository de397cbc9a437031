// Package fileutil holds the copy and move primitives shared by placement and
// archive sync. Every write opens its destination exclusively so existing
// content is never replaced.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
)

const copyBufferSize = 1 << 20

// ErrDestinationExists reports that a copy target is already occupied.
var ErrDestinationExists = errors.New("destination already exists")

// CopyFile streams src to dst. dst must not exist; it is created with the
// source's permission bits. A partially written dst is removed on failure.
func CopyFile(fs afero.Fs, src, dst string) error {
	_, err := copyContents(fs, src, dst, nil, nil)
	return err
}

// CopyFileVerified streams src to dst with SHA256 + size integrity
// verification. Removes dst on mismatch.
func CopyFileVerified(fs afero.Fs, src, dst string) error {
	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := copyContents(fs, src, dst, srcHasher, dstHasher)
	if err != nil {
		return err
	}

	info, err := fs.Stat(src)
	if err != nil {
		_ = fs.Remove(dst)
		return fmt.Errorf("stat source: %w", err)
	}
	if written != info.Size() {
		_ = fs.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = fs.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

func copyContents(fs afero.Fs, src, dst string, srcTap, dstTap io.Writer) (int64, error) {
	in, err := fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, fmt.Errorf("%s: %w", dst, ErrDestinationExists)
		}
		return 0, fmt.Errorf("create destination: %w", err)
	}

	var reader io.Reader = in
	if srcTap != nil {
		reader = io.TeeReader(in, srcTap)
	}
	var writer io.Writer = out
	if dstTap != nil {
		writer = io.MultiWriter(out, dstTap)
	}

	written, err := io.CopyBuffer(struct{ io.Writer }{writer}, struct{ io.Reader }{reader}, make([]byte, copyBufferSize))
	if err != nil {
		out.Close()
		_ = fs.Remove(dst)
		return written, fmt.Errorf("copy data: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		_ = fs.Remove(dst)
		return written, fmt.Errorf("sync destination: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = fs.Remove(dst)
		return written, fmt.Errorf("close destination: %w", err)
	}
	return written, nil
}

// MoveFile renames src to dst, creating dst's parent. When the rename crosses
// devices the file is copied with verification and the source removed.
// Callers choose a free dst; MoveFile refuses an occupied one.
func MoveFile(fs afero.Fs, src, dst string) error {
	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if _, err := fs.Stat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, ErrDestinationExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat target: %w", err)
	}

	if err := fs.Rename(src, dst); err != nil {
		if !IsCrossDevice(err) {
			return fmt.Errorf("move file: %w", err)
		}
		if err := CopyFileVerified(fs, src, dst); err != nil {
			return fmt.Errorf("copy file across devices: %w", err)
		}
		if info, statErr := fs.Stat(src); statErr == nil {
			_ = fs.Chtimes(dst, info.ModTime(), info.ModTime())
		}
		if err := fs.Remove(src); err != nil {
			return fmt.Errorf("remove source after copy: %w", err)
		}
	}
	return nil
}

// IsCrossDevice reports whether err is a rename failure across filesystems.
func IsCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}

// CountFiles returns the number of regular files beneath root.
func CountFiles(fs afero.Fs, root string) (int, error) {
	count := 0
	err := afero.Walk(fs, root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count files under %s: %w", root, err)
	}
	return count, nil
}

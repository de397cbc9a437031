package archive

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// maxLinkDepth bounds how many symlinked directories one path may pass
// through, which also stops link cycles.
const maxLinkDepth = 16

var errLinkDepth = errors.New("too many levels of symbolic links")

// visitFunc receives every entry of a walk. For a symlink, info describes the
// link target.
type visitFunc func(path string, info os.FileInfo) error

// skipFunc receives entries a walk could not follow: dangling links and
// links nested deeper than maxLinkDepth.
type skipFunc func(path string, err error)

// walkFollow visits root and everything beneath it depth-first in name order.
// Symlinks are resolved so the mirror receives the content they point at.
func walkFollow(fs afero.Fs, root string, visit visitFunc, skip skipFunc) error {
	info, err := fs.Stat(root)
	if err != nil {
		return err
	}
	return walkEntry(fs, root, info, 0, visit, skip)
}

func walkEntry(fs afero.Fs, path string, info os.FileInfo, depth int, visit visitFunc, skip skipFunc) error {
	if err := visit(path, info); err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}
	entries, err := afero.ReadDir(fs, path)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		childDepth := depth
		if entry.Mode()&os.ModeSymlink != 0 {
			target, err := fs.Stat(child)
			if err != nil {
				skip(child, err)
				continue
			}
			if target.IsDir() {
				childDepth++
				if childDepth > maxLinkDepth {
					skip(child, errLinkDepth)
					continue
				}
			}
			entry = target
		}
		if err := walkEntry(fs, child, entry, childDepth, visit, skip); err != nil {
			return err
		}
	}
	return nil
}

// countRegular counts the regular files walkFollow would visit under root.
func countRegular(fs afero.Fs, root string) (int, error) {
	count := 0
	err := walkFollow(fs, root, func(_ string, info os.FileInfo) error {
		if info.Mode().IsRegular() {
			count++
		}
		return nil
	}, func(string, error) {})
	return count, err
}

// Package placement moves files into target directories without ever
// replacing existing content.
package placement

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"mediashelf/internal/faults"
	"mediashelf/internal/fileutil"
)

const maxProbeAttempts = 10000

// Placer moves files into directories on fs.
type Placer struct {
	fs afero.Fs
}

// New returns a Placer over fs (the OS filesystem when nil).
func New(fs afero.Fs) *Placer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Placer{fs: fs}
}

// Place moves src into targetDir, keeping its file name unless that name is
// taken, in which case the first free `stem_N.ext` is used. A file whose
// parent already is targetDir stays where it is and moved is false.
func (p *Placer) Place(src, targetDir string) (dst string, moved bool, err error) {
	if AlreadyPlaced(src, targetDir) {
		return src, false, nil
	}
	if err := p.fs.MkdirAll(targetDir, 0o755); err != nil {
		return "", false, faults.Wrap(faults.ErrIO, "placement", "ensure target", "Failed to create target directory", err)
	}
	dst, err = NextFreeName(p.fs, targetDir, filepath.Base(src))
	if err != nil {
		return "", false, faults.Wrap(faults.ErrIO, "placement", "allocate name", "Unable to allocate a free file name", err)
	}
	if err := fileutil.MoveFile(p.fs, src, dst); err != nil {
		return "", false, faults.Wrap(faults.ErrIO, "placement", "move", fmt.Sprintf("Failed to move %s", src), err)
	}
	return dst, true, nil
}

// AlreadyPlaced reports whether src's parent directory is targetDir. Both
// sides are cleaned and NFC-normalized so decomposed names from other
// platforms compare equal.
func AlreadyPlaced(src, targetDir string) bool {
	return normalizedPath(filepath.Dir(src)) == normalizedPath(targetDir)
}

func normalizedPath(path string) string {
	return norm.NFC.String(filepath.Clean(path))
}

// NextFreeName returns dir/name when unused, otherwise dir/stem_1.ext,
// dir/stem_2.ext and so on. The probe is linear and deterministic.
func NextFreeName(fs afero.Fs, dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	free, err := isFree(fs, candidate)
	if err != nil || free {
		return candidate, err
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for attempt := 1; attempt <= maxProbeAttempts; attempt++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, attempt, ext))
		free, err := isFree(fs, candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s in %s after %d attempts", name, dir, maxProbeAttempts)
}

func isFree(fs afero.Fs, path string) (bool, error) {
	if _, err := fs.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

package organizer

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"mediashelf/internal/logging"
	"mediashelf/internal/media"
)

// scan is the outcome of a collection walk.
type scan struct {
	files   []media.File
	scanned int
	skipped int
}

// collect walks dir and returns its media files in walk order. Hidden and
// marker-prefixed names are ignored, as are the excluded directories.
// Symlinks and other non-regular entries are counted as skipped and never
// moved, so a link is not carried away from the file it points at.
func collect(fs afero.Fs, dir string, exclude map[string]struct{}, logger *slog.Logger) (scan, error) {
	var result scan
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path == dir {
				return nil
			}
			if strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			if _, ok := exclude[filepath.Clean(path)]; ok {
				return filepath.SkipDir
			}
			return nil
		}
		if isHiddenName(info.Name()) {
			return nil
		}
		result.scanned++
		if !info.Mode().IsRegular() {
			result.skipped++
			reason := "not a regular file"
			if info.Mode()&os.ModeSymlink != 0 {
				reason = "symbolic link"
			}
			logger.Debug("skipped entry",
				logging.String("path", path),
				logging.String("reason", reason),
				logging.String(logging.FieldEventType, "entry_skipped"),
			)
			return nil
		}
		file, ok := media.FromPath(path)
		if !ok {
			result.skipped++
			return nil
		}
		result.files = append(result.files, file)
		return nil
	})
	return result, err
}

func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

package organizer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"mediashelf/internal/fileutil"
	"mediashelf/internal/logging"
)

// CleanupResult contains the outcome of a legacy directory cleanup.
type CleanupResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanupLegacy removes directories under root whose name matches one of
// legacyNames (case-insensitive) and that hold no regular file anywhere below
// them. Hidden directories and those in exclude are not entered.
func CleanupLegacy(ctx context.Context, fs afero.Fs, root string, legacyNames []string, exclude []string, logger *slog.Logger) CleanupResult {
	result := CleanupResult{}

	root = strings.TrimSpace(root)
	if root == "" || len(legacyNames) == 0 {
		return result
	}
	names := make(map[string]struct{}, len(legacyNames))
	for _, name := range legacyNames {
		names[strings.ToLower(name)] = struct{}{}
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, dir := range exclude {
		skip[filepath.Clean(dir)] = struct{}{}
	}

	var candidates []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !info.IsDir() || path == root {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if _, ok := skip[filepath.Clean(path)]; ok {
			return filepath.SkipDir
		}
		if _, ok := names[strings.ToLower(info.Name())]; !ok {
			return nil
		}
		count, err := fileutil.CountFiles(fs, path)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			return filepath.SkipDir
		}
		if count == 0 {
			candidates = append(candidates, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		return result
	}

	for _, dirPath := range candidates {
		if err := fs.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove empty legacy directory",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "legacy_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check directory permissions"),
					logging.String(logging.FieldImpact, "empty legacy folder left in place"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed empty legacy directory",
				logging.String("path", dirPath),
				logging.String(logging.FieldEventType, "legacy_cleanup"),
			)
		}
	}

	return result
}

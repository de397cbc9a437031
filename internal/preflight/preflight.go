package preflight

import (
	"path/filepath"

	"mediashelf/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the directories the configuration writes into. Checks are
// only run when the corresponding feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if cfg.Logging.File {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, ReadWrite))
	}
	if cfg.Organize.HashCache {
		results = append(results, CheckDirectoryAccess("Hash cache directory", filepath.Dir(cfg.Paths.HashCachePath), ReadWrite))
	}
	return results
}

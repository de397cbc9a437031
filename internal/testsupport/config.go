// Package testsupport provides fixtures shared by package tests: isolated
// configs, deterministic file payloads, and minimal EXIF-bearing JPEGs.
package testsupport

import (
	"path/filepath"
	"testing"

	"mediashelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config whose state paths live in a per-test temp dir.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.HashCachePath = filepath.Join(base, "cache", "hashes.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithoutHashCache disables the persisted hash cache.
func WithoutHashCache() ConfigOption {
	return func(c *config.Config) {
		c.Organize.HashCache = false
	}
}

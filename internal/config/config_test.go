package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediashelf/internal/config"
	"mediashelf/internal/faults"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "mediashelf", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	wantCache := filepath.Join(tempHome, ".cache", "mediashelf", "hashes.db")
	if cfg.Paths.HashCachePath != wantCache {
		t.Fatalf("unexpected hash cache path: got %q want %q", cfg.Paths.HashCachePath, wantCache)
	}
	if cfg.Organize.InboxDir != "_inbox" {
		t.Fatalf("unexpected inbox dir: %q", cfg.Organize.InboxDir)
	}
	if cfg.Organize.DuplicatesDir != "_duplicates" {
		t.Fatalf("unexpected duplicates dir: %q", cfg.Organize.DuplicatesDir)
	}
	if !cfg.Organize.HashCache {
		t.Fatal("expected hash cache enabled by default")
	}
	if !cfg.Sync.PreserveAttributes {
		t.Fatal("expected attribute preservation enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(cfg.Paths.HashCachePath)); err != nil || !info.IsDir() {
		t.Fatalf("expected hash cache directory to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediashelf.toml")

	type payload struct {
		Organize struct {
			InboxDir   string   `toml:"inbox_dir"`
			LegacyDirs []string `toml:"legacy_dirs"`
			HashCache  bool     `toml:"hash_cache"`
		} `toml:"organize"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Organize.InboxDir = " _drop "
	custom.Organize.LegacyDirs = []string{"pictures", " pictures ", ""}
	custom.Organize.HashCache = false
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Organize.InboxDir != "_drop" {
		t.Fatalf("expected trimmed inbox dir, got %q", cfg.Organize.InboxDir)
	}
	if len(cfg.Organize.LegacyDirs) != 1 || cfg.Organize.LegacyDirs[0] != "pictures" {
		t.Fatalf("expected deduplicated legacy dirs, got %v", cfg.Organize.LegacyDirs)
	}
	if cfg.Organize.HashCache {
		t.Fatal("expected hash cache disabled")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercased format, got %q", cfg.Logging.Format)
	}
	if cfg.Organize.DuplicatesDir != "_duplicates" {
		t.Fatalf("expected default duplicates dir to survive, got %q", cfg.Organize.DuplicatesDir)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mediashelf.toml")
	if err := os.WriteFile(configPath, []byte("[organize]\ninbox = \"_x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestEnvOverridesLogLevel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIASHELF_LOG_LEVEL", "DEBUG")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadFolders(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"nested inbox", func(c *config.Config) { c.Organize.InboxDir = "a/b" }, "single folder name"},
		{"dot duplicates", func(c *config.Config) { c.Organize.DuplicatesDir = ".." }, "single folder name"},
		{"same folder", func(c *config.Config) { c.Organize.DuplicatesDir = c.Organize.InboxDir }, "must differ"},
		{"month named inbox", func(c *config.Config) { c.Organize.InboxDir = "2024-01" }, "month folder"},
		{"legacy is current leaf", func(c *config.Config) { c.Organize.LegacyDirs = []string{"jpeg"} }, "current layout"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, faults.ErrConfiguration) {
				t.Fatalf("expected configuration marker, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to be found")
	}
	if cfg.Organize.InboxDir != "_inbox" {
		t.Fatalf("unexpected inbox dir from sample: %q", cfg.Organize.InboxDir)
	}
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrganize()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HashCachePath) == "" {
		c.Paths.HashCachePath = defaultHashCachePath()
	}
	if c.Paths.HashCachePath, err = expandPath(c.Paths.HashCachePath); err != nil {
		return fmt.Errorf("paths.hash_cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeOrganize() {
	c.Organize.InboxDir = strings.TrimSpace(c.Organize.InboxDir)
	if c.Organize.InboxDir == "" {
		c.Organize.InboxDir = DefaultInboxDir
	}
	c.Organize.DuplicatesDir = strings.TrimSpace(c.Organize.DuplicatesDir)
	if c.Organize.DuplicatesDir == "" {
		c.Organize.DuplicatesDir = DefaultDuplicatesDir
	}
	seen := make(map[string]struct{}, len(c.Organize.LegacyDirs))
	legacy := c.Organize.LegacyDirs[:0]
	for _, name := range c.Organize.LegacyDirs {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		legacy = append(legacy, name)
	}
	c.Organize.LegacyDirs = legacy
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("MEDIASHELF_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

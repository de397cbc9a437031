package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"mediashelf/internal/faults"
	"mediashelf/internal/layout"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "config", "validate", "", err)
	}
	if err := c.validateLogging(); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "config", "validate", "", err)
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if err := validateFolderName("organize.inbox_dir", c.Organize.InboxDir); err != nil {
		return err
	}
	if err := validateFolderName("organize.duplicates_dir", c.Organize.DuplicatesDir); err != nil {
		return err
	}
	if c.Organize.InboxDir == c.Organize.DuplicatesDir {
		return errors.New("organize.inbox_dir and organize.duplicates_dir must differ")
	}
	for _, name := range c.Organize.LegacyDirs {
		if err := validateFolderName("organize.legacy_dirs", name); err != nil {
			return err
		}
		if layout.IsLeafName(name) {
			return fmt.Errorf("organize.legacy_dirs: %q is a current layout folder", name)
		}
	}
	return nil
}

// validateFolderName rejects anything that is not a single path element, so a
// configured folder can never point outside the library root.
func validateFolderName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s must be set", field)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%s: %q must be a single folder name", field, name)
	}
	if layout.IsMonthFolder(name) {
		return fmt.Errorf("%s: %q collides with month folder naming", field, name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

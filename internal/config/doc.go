// Package config loads, normalizes, and validates mediashelf configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIASHELF_LOG_LEVEL. The Config type centralizes the knobs the organize and
// sync pipelines need, so folder conventions and cache locations are resolved
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package config loads and validates the application configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables prefixed with REVLENS (for example
// REVLENS_LOGGING_LEVEL). Later layers win. Validation combines struct-tag
// rules with the engine's own threshold consistency checks, so an invalid
// configuration is rejected at startup rather than surfacing mid-analysis.
package config

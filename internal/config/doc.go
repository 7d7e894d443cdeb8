// Package config loads, normalizes, and validates scenewall configuration.
//
// Configuration lives in a TOML file (default ~/.config/scenewall/config.toml,
// or ./scenewall.toml for project-local setups). Load applies defaults,
// expands home-relative paths, and rejects invalid values before any session
// work begins.
package config

// Package logging assembles the structured slog loggers used across scenewall.
//
// It owns the console/JSON handler split, centralizes level and output
// plumbing, and exposes context-aware helpers so session code can tag log
// lines with scene and monitor identifiers. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging

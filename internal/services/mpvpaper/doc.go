// Package mpvpaper launches and supervises the mpvpaper playback process that
// displays a synthesized proxy clip on a monitor. One process serves one
// monitor; the session orchestrator owns the lifecycle.
package mpvpaper

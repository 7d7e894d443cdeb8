// Package session orchestrates render sessions: one active wallpaper per
// monitor, prepared fully before any process spawns, supervised while
// playing, and torn down gracefully. The Session owns its supervised process
// handles and is the sole mutator of its state.
package session

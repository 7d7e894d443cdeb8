// Package main hosts the scenewall CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into render
// session orchestration, library compatibility scans, overlay planning, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

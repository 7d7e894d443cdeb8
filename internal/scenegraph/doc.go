// Package scenegraph builds a typed scene graph from a decoded wallpaper
// package.
//
// Every node carries a support tag computed from a static feature-equivalence
// table, so the rest of the pipeline can reason about compatibility without
// consulting rendering code. Unknown effect kinds never abort a build; they
// are tagged Unsupported and reported through the diagnostics list returned
// alongside the graph.
package scenegraph

// Package spectrum integrates with the external spectrum visualizer that
// renders the stable audio overlay. scenewall never draws the overlay itself;
// it installs plan artifacts into the visualizer's config directory and nudges
// a running instance to reload them.
package spectrum

// Package overlay plans the audio-reactive bar overlay for a scene. The plan
// is advisory: scenewall never composites the overlay into the proxy clip,
// it only describes geometry and styling for the external spectrum
// visualizer, which renders on its own audio clock.
package overlay

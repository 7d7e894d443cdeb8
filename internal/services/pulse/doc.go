// Package pulse probes desktop audio through PulseAudio tooling. pactl names
// the default sink monitor; parec captures raw s16le samples from it, which
// are reduced to per-window peak and RMS levels for overlay planning.
package pulse

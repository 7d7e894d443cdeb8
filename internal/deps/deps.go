// Package deps reports the availability of the external tools scenewall
// drives: encoders, players, and audio utilities resolved from PATH.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"scenewall/internal/config"
)

// Requirement defines an external binary scenewall relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external tools for a configuration. Required tools
// block playback; optional ones degrade single features.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "ffmpeg", Command: cfg.Tools.FFmpeg, Description: "Proxy clip synthesis and loop frame sampling"},
		{Name: "ffprobe", Command: cfg.Tools.FFprobe, Description: "Media metadata probing"},
		{Name: "mpvpaper", Command: cfg.Playback.Binary, Description: "Wallpaper playback"},
		{Name: "pactl", Command: cfg.Tools.Pactl, Description: "PulseAudio sink discovery", Optional: true},
		{Name: "parec", Command: cfg.Tools.Parec, Description: "Audio level probing", Optional: true},
		{Name: "spectrum", Command: cfg.Overlay.SpectrumBin, Description: "External audio visualizer", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

package proxy

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"scenewall/internal/config"
)

// Tune is the resolved encode quality for one synthesis run.
type Tune struct {
	Preset string
	Width  int
	FPS    int
	CRF    int
}

var presets = map[string]Tune{
	"eco":      {Preset: "eco", Width: 1280, FPS: 24, CRF: 30},
	"balanced": {Preset: "balanced", Width: 1920, FPS: 30, CRF: 28},
	"ultra":    {Preset: "ultra", Width: 2560, FPS: 60, CRF: 22},
}

// ResolveTune maps the proxy config onto a concrete tune. Preset "auto"
// inspects the hardware; explicit width/fps/crf values override the preset.
func ResolveTune(ctx context.Context, cfg config.Proxy) Tune {
	name := strings.ToLower(strings.TrimSpace(cfg.Preset))
	tune, ok := presets[name]
	if !ok {
		tune = autoTune(ctx)
	}
	if cfg.Width > 0 {
		tune.Width = cfg.Width
	}
	if cfg.FPS > 0 {
		tune.FPS = cfg.FPS
	}
	if cfg.CRF > 0 {
		tune.CRF = cfg.CRF
	}
	return tune
}

// autoTune picks a preset from core count and memory: modest machines get
// eco, workstations ultra, everything else balanced.
func autoTune(ctx context.Context) Tune {
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		cores = 0
	}
	var totalBytes uint64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		totalBytes = vm.Total
	}

	const gib = 1 << 30
	switch {
	case cores > 0 && cores <= 4, totalBytes > 0 && totalBytes < 8*gib:
		return presets["eco"]
	case cores >= 12 && totalBytes >= 16*gib:
		return presets["ultra"]
	default:
		return presets["balanced"]
	}
}

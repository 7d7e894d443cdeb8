package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProxy()
	c.normalizePlayback()
	c.normalizeOverlay()
	c.normalizeScanner()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DownloadsRoot, err = expandPath(c.Paths.DownloadsRoot); err != nil {
		return fmt.Errorf("paths.downloads_root: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProxy() {
	c.Proxy.Preset = strings.ToLower(strings.TrimSpace(c.Proxy.Preset))
	if c.Proxy.Preset == "" {
		c.Proxy.Preset = defaultProxyPreset
	}
	if c.Proxy.LoopSampleCount <= 0 {
		c.Proxy.LoopSampleCount = defaultLoopSampleCount
	}
	if c.Proxy.LoopThreshold <= 0 {
		c.Proxy.LoopThreshold = defaultLoopThreshold
	}
	if c.Proxy.CrossfadeMillis < 0 {
		c.Proxy.CrossfadeMillis = 0
	}
}

func (c *Config) normalizePlayback() {
	c.Playback.Binary = strings.TrimSpace(c.Playback.Binary)
	if c.Playback.Binary == "" {
		c.Playback.Binary = defaultPlaybackBinary
	}
	c.Playback.Profile = strings.ToLower(strings.TrimSpace(c.Playback.Profile))
	if c.Playback.Profile == "" {
		c.Playback.Profile = defaultPlayProfile
	}
	if c.Playback.StopGraceSec <= 0 {
		c.Playback.StopGraceSec = defaultStopGraceSec
	}
}

func (c *Config) normalizeOverlay() {
	c.Overlay.SpectrumBin = strings.TrimSpace(c.Overlay.SpectrumBin)
	if c.Overlay.SpectrumBin == "" {
		c.Overlay.SpectrumBin = defaultSpectrumBinary
	}
	c.Overlay.AudioSource = strings.TrimSpace(c.Overlay.AudioSource)
}

func (c *Config) normalizeScanner() {
	if c.Scanner.Workers <= 0 {
		c.Scanner.Workers = defaultScannerWorkers
	}
	if c.Scanner.TopEffects <= 0 {
		c.Scanner.TopEffects = defaultTopEffects
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if strings.TrimSpace(c.Tools.Pactl) == "" {
		c.Tools.Pactl = "pactl"
	}
	if strings.TrimSpace(c.Tools.Parec) == "" {
		c.Tools.Parec = "parec"
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrInvalid wraps every validation failure so callers can reject bad
// configuration before a session enters Preparing.
var ErrInvalid = errors.New("config invalid")

// Paths contains directory configuration.
type Paths struct {
	DownloadsRoot string `toml:"downloads_root"`
	CacheDir      string `toml:"cache_dir"`
	LogDir        string `toml:"log_dir"`
}

// Proxy contains settings for the proxy transport synthesizer.
type Proxy struct {
	Preset          string  `toml:"preset"`
	Width           int     `toml:"width"`
	FPS             int     `toml:"fps"`
	CRF             int     `toml:"crf"`
	MuteAudio       bool    `toml:"mute_audio"`
	LoopDetection   bool    `toml:"loop_detection"`
	LoopSampleCount int     `toml:"loop_sample_count"`
	LoopThreshold   int     `toml:"loop_threshold"`
	CrossfadeMillis int     `toml:"crossfade_ms"`
	Quality         float64 `toml:"quality"`
}

// Playback contains settings for the external wallpaper player.
type Playback struct {
	Binary       string `toml:"binary"`
	Profile      string `toml:"profile"`
	StopGraceSec int    `toml:"stop_grace_seconds"`
}

// Native contains settings for the experimental direct composition path.
type Native struct {
	Enabled bool `toml:"enabled"`
	FPS     int  `toml:"fps"`
}

// Overlay contains settings for the audio-reactive overlay planner.
type Overlay struct {
	Enabled     bool   `toml:"enabled"`
	AutoApply   bool   `toml:"auto_apply"`
	SpectrumBin string `toml:"spectrum_bin"`
	AudioSource string `toml:"audio_source"`
}

// Scanner contains settings for library compatibility scans.
type Scanner struct {
	Workers    int `toml:"workers"`
	TopEffects int `toml:"top_effects"`
}

// Tools names the external binaries scenewall drives.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	Pactl   string `toml:"pactl"`
	Parec   string `toml:"parec"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scenewall.
//
// Configuration sections by subsystem:
//   - Paths: downloads root, session cache, and log directories
//   - Proxy: synthesized clip resolution/fps/quality and loop handling
//   - Playback: external player binary and mpv option profile
//   - Native: experimental direct composition path
//   - Overlay: audio-reactive overlay planning and auto-application
//   - Scanner: library scan parallelism and report shape
//   - Tools: external binary names/paths
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Proxy    Proxy    `toml:"proxy"`
	Playback Playback `toml:"playback"`
	Native   Native   `toml:"native"`
	Overlay  Overlay  `toml:"overlay"`
	Scanner  Scanner  `toml:"scanner"`
	Tools    Tools    `toml:"tools"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scenewall/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. A
// missing file yields defaults; an invalid one fails with ErrInvalid.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scenewall.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

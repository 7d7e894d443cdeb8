package config

import (
	"fmt"
)

var proxyPresets = map[string]struct{}{
	"auto":     {},
	"eco":      {},
	"balanced": {},
	"ultra":    {},
}

var playbackProfiles = map[string]struct{}{
	"performance": {},
	"balanced":    {},
	"quality":     {},
}

// Validate ensures the configuration is usable. All failures wrap ErrInvalid.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProxy(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadsRoot == "" {
		return fmt.Errorf("%w: paths.downloads_root must be set", ErrInvalid)
	}
	if c.Paths.CacheDir == "" {
		return fmt.Errorf("%w: paths.cache_dir must be set", ErrInvalid)
	}
	return nil
}

func (c *Config) validateProxy() error {
	if _, ok := proxyPresets[c.Proxy.Preset]; !ok {
		return fmt.Errorf("%w: proxy.preset must be one of auto, eco, balanced, ultra (got %q)", ErrInvalid, c.Proxy.Preset)
	}
	if c.Proxy.Width < 0 || c.Proxy.FPS < 0 {
		return fmt.Errorf("%w: proxy.width and proxy.fps must not be negative", ErrInvalid)
	}
	if c.Proxy.CRF < 0 || c.Proxy.CRF > 51 {
		return fmt.Errorf("%w: proxy.crf must be between 0 and 51", ErrInvalid)
	}
	if c.Proxy.LoopThreshold > 64 {
		return fmt.Errorf("%w: proxy.loop_threshold must be at most 64 (hash bits)", ErrInvalid)
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if _, ok := playbackProfiles[c.Playback.Profile]; !ok {
		return fmt.Errorf("%w: playback.profile must be one of performance, balanced, quality (got %q)", ErrInvalid, c.Playback.Profile)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json (got %q)", ErrInvalid, c.Logging.Format)
	}
	return nil
}

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scenewall/internal/config"
	"scenewall/internal/logging"
	"scenewall/internal/proxy"
	"scenewall/internal/services"
	"scenewall/internal/services/ffmpeg"
	"scenewall/internal/services/mpvpaper"
	"scenewall/internal/services/spectrum"
	"scenewall/internal/session"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", path, err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
	})
	return c.logger, c.loggerErr
}

// newManager wires the full session orchestrator: proxy synthesizer on the
// configured ffmpeg, the mpvpaper player, and the overlay consumer.
func (c *commandContext) newManager() (*session.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	synth := proxy.New(ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.Tools.FFmpeg)), cfg.Proxy, cfg.Tools, logger)
	player := mpvpaper.NewCLI(mpvpaper.WithBinary(cfg.Playback.Binary))
	consumer := spectrum.NewConsumer(
		spectrumConfigDir(cfg),
		spectrum.WithBinary(cfg.Overlay.SpectrumBin),
	)

	deps := session.Deps{Synthesizer: synth, Player: player, Consumer: consumer}
	return session.NewManager(cfg, deps, logger), nil
}

// spectrumConfigDir is where the external visualizer reads overlay artifacts.
func spectrumConfigDir(cfg *config.Config) string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(cfg.Paths.CacheDir, "spectrum")
	}
	return filepath.Join(base, cfg.Overlay.SpectrumBin)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

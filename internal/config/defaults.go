package config

const (
	defaultDownloadsRoot   = "~/.local/share/Steam/steamapps/workshop/content/431960"
	defaultCacheDir        = "~/.cache/scenewall"
	defaultLogDir          = "~/.local/share/scenewall/logs"
	defaultProxyPreset     = "auto"
	defaultLoopSampleCount = 48
	defaultLoopThreshold   = 10
	defaultCrossfadeMillis = 400
	defaultPlaybackBinary  = "mpvpaper"
	defaultPlayProfile     = "performance"
	defaultStopGraceSec    = 5
	defaultNativeFPS       = 30
	defaultSpectrumBinary  = "spectrum"
	defaultScannerWorkers  = 4
	defaultTopEffects      = 15
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadsRoot: defaultDownloadsRoot,
			CacheDir:      defaultCacheDir,
			LogDir:        defaultLogDir,
		},
		Proxy: Proxy{
			Preset:          defaultProxyPreset,
			LoopDetection:   true,
			LoopSampleCount: defaultLoopSampleCount,
			LoopThreshold:   defaultLoopThreshold,
			CrossfadeMillis: defaultCrossfadeMillis,
		},
		Playback: Playback{
			Binary:       defaultPlaybackBinary,
			Profile:      defaultPlayProfile,
			StopGraceSec: defaultStopGraceSec,
		},
		Native: Native{
			Enabled: false,
			FPS:     defaultNativeFPS,
		},
		Overlay: Overlay{
			Enabled:     true,
			AutoApply:   false,
			SpectrumBin: defaultSpectrumBinary,
		},
		Scanner: Scanner{
			Workers:    defaultScannerWorkers,
			TopEffects: defaultTopEffects,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			Pactl:   "pactl",
			Parec:   "parec",
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"scenewall/internal/config"
	"scenewall/internal/logging"
	"scenewall/internal/media/ffprobe"
	"scenewall/internal/scenegraph"
	"scenewall/internal/scenepkg"
	"scenewall/internal/services"
	"scenewall/internal/services/ffmpeg"
)

// stillClipSeconds is the synthesized duration when the base media is a
// still image.
const stillClipSeconds = 12.0

var inspect = ffprobe.Inspect

// Request describes one synthesis run.
type Request struct {
	SceneID string
	// Root is the wallpaper root directory holding the base media.
	Root    string
	Project *scenepkg.Project
	Graph   *scenegraph.Graph
	// OutDir receives the proxy clip and loop-scan scratch files.
	OutDir string
}

// Result is a finished synthesis.
type Result struct {
	ProxyPath   string
	Tune        Tune
	FilterGraph string
	// Loop is nil when no seamless loop was rendered.
	Loop  *LoopPlan
	Muted bool
	// Diagnostics collects the non-fatal findings of the run.
	Diagnostics []string
}

// Synthesizer drives ffmpeg to build proxy clips.
type Synthesizer struct {
	client ffmpeg.Client
	cfg    config.Proxy
	tools  config.Tools
	logger *slog.Logger
}

// New constructs a synthesizer.
func New(client ffmpeg.Client, cfg config.Proxy, tools config.Tools, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synthesizer{client: client, cfg: cfg, tools: tools, logger: logger}
}

// Synthesize encodes the proxy clip for one scene. Loop detection failures
// degrade to a hard cut; encode failures are fatal.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*Result, error) {
	logger := s.logger
	if id, ok := services.SessionIDFromContext(ctx); ok {
		logger = logger.With(logging.String(logging.FieldSession, id))
	}
	if transport, ok := services.TransportFromContext(ctx); ok {
		logger = logger.With(logging.String("transport", transport))
	}

	base, still, err := SelectBaseMedia(req.Root, req.Project)
	if err != nil {
		return nil, err
	}

	tune := ResolveTune(ctx, s.cfg)
	duration := stillClipSeconds
	if !still {
		if result, err := inspect(ctx, s.tools.FFprobe, base); err == nil {
			if probed := result.DurationSeconds(); probed > 0 {
				duration = probed
			}
			// Encoding above the source rate only duplicates frames.
			if stream, ok := result.PrimaryVideoStream(); ok {
				if fps := int(math.Round(stream.FPS())); fps > 0 && fps < tune.FPS {
					tune.FPS = fps
				}
			}
		} else {
			logger.Warn("ffprobe failed, assuming default duration",
				logging.String(logging.FieldScene, req.SceneID), logging.Error(err))
		}
	}
	filterGraph := BuildFilterGraph(req.Graph, tune)

	result := &Result{
		ProxyPath:   filepath.Join(req.OutDir, "proxy.mp4"),
		Tune:        tune,
		FilterGraph: filterGraph,
		Muted:       s.cfg.MuteAudio,
	}
	logger.Info("synthesizing proxy clip",
		logging.String(logging.FieldScene, req.SceneID),
		logging.String("preset", tune.Preset),
		logging.Int("width", tune.Width),
		logging.Int("fps", tune.FPS))

	encodeReq := ffmpeg.EncodeRequest{
		Input:           base,
		LoopInput:       still,
		FilterGraph:     filterGraph,
		DurationSeconds: duration,
		CRF:             tune.CRF,
		MuteAudio:       s.cfg.MuteAudio,
		Output:          result.ProxyPath,
	}
	if err := s.client.Encode(ctx, encodeReq, nil); err != nil {
		return nil, fmt.Errorf("%w: scene %s: %v", ErrEncodeFailure, req.SceneID, err)
	}

	if s.cfg.LoopDetection && !still {
		s.detectLoop(ctx, req, result, duration, logger)
	}
	return result, nil
}

// detectLoop searches the encoded proxy for a seamless loop and, in mute
// mode, re-renders the clip trimmed to the loop body with a crossfaded seam.
// All failures here are diagnostics, never errors.
func (s *Synthesizer) detectLoop(ctx context.Context, req Request, result *Result, duration float64, logger *slog.Logger) {
	count := s.cfg.LoopSampleCount
	if count < 2 || duration <= 0 {
		return
	}
	scanDir := filepath.Join(req.OutDir, "loopscan")
	defer os.RemoveAll(scanDir)

	frames, err := s.client.SampleFrames(ctx, result.ProxyPath, scanDir, float64(count)/duration, count)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, "loop scan: "+err.Error())
		return
	}

	interval := duration / float64(count)
	plan, err := FindLoop(frames, interval, s.cfg.LoopThreshold)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, "loop scan: "+err.Error())
		return
	}
	plan = plan.WithCrossfade(float64(s.cfg.CrossfadeMillis) / 1000)

	if !s.cfg.MuteAudio {
		// Trimming the video without reworking the audio would desync
		// the track, so audio-bearing proxies keep the full clip.
		result.Diagnostics = append(result.Diagnostics, "loop found but not rendered: audio track preserved")
		result.Loop = &plan
		return
	}

	loopPath := filepath.Join(req.OutDir, "proxy-loop.mp4")
	encodeReq := ffmpeg.EncodeRequest{
		Input:       result.ProxyPath,
		FilterGraph: loopFilterGraph(plan),
		Complex:     plan.CrossfadeSeconds > 0,
		CRF:         result.Tune.CRF,
		MuteAudio:   true,
		Output:      loopPath,
	}
	if err := s.client.Encode(ctx, encodeReq, nil); err != nil {
		result.Diagnostics = append(result.Diagnostics, "loop render: "+err.Error())
		return
	}
	result.ProxyPath = loopPath
	result.Loop = &plan
	logger.Info("seamless loop rendered",
		logging.String(logging.FieldScene, req.SceneID),
		logging.Float64("loop_seconds", plan.Duration()),
		logging.Int("distance", plan.Distance))
}

// loopFilterGraph trims the clip to the loop body and, when a crossfade is
// requested, blends the tail into the first frames of the body.
func loopFilterGraph(plan LoopPlan) string {
	start := formatSeconds(plan.StartSeconds)
	end := formatSeconds(plan.EndSeconds)
	if plan.CrossfadeSeconds <= 0 {
		return fmt.Sprintf("trim=start=%s:end=%s,setpts=PTS-STARTPTS", start, end)
	}
	fade := formatSeconds(plan.CrossfadeSeconds)
	headEnd := formatSeconds(plan.StartSeconds + plan.CrossfadeSeconds)
	offset := formatSeconds(plan.Duration() - plan.CrossfadeSeconds)
	return fmt.Sprintf(
		"[0:v]split[a][b];"+
			"[a]trim=start=%s:end=%s,setpts=PTS-STARTPTS[main];"+
			"[b]trim=start=%s:end=%s,setpts=PTS-STARTPTS[head];"+
			"[main][head]xfade=transition=fade:duration=%s:offset=%s",
		start, end, start, headEnd, fade, offset)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// SelectBaseMedia picks the source file synthesis starts from: the declared
// video file for video wallpapers, otherwise the scene's preview media.
func SelectBaseMedia(root string, project *scenepkg.Project) (string, bool, error) {
	if project != nil && scenepkg.ParseWallpaperType(project.Type) == scenepkg.TypeVideo && project.File != "" {
		path := filepath.Join(root, project.File)
		if _, err := os.Stat(path); err == nil {
			return path, false, nil
		}
	}

	stills := map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}
	for _, name := range []string{
		"preview.mp4", "preview.webm", "preview.gif",
		"preview.png", "preview.jpg", "preview.jpeg", "preview.webp",
	} {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, stills[strings.ToLower(filepath.Ext(name))], nil
		}
	}
	return "", false, fmt.Errorf("%w: no base media in %s", scenepkg.ErrMissingAsset, root)
}

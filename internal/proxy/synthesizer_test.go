package proxy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenewall/internal/config"
	"scenewall/internal/media/ffprobe"
	"scenewall/internal/scenegraph"
	"scenewall/internal/scenepkg"
	"scenewall/internal/services/ffmpeg"
)

type fakeFFmpeg struct {
	encodes   []ffmpeg.EncodeRequest
	encodeErr error
	frames    []string
}

func (f *fakeFFmpeg) Encode(_ context.Context, req ffmpeg.EncodeRequest, _ func(ffmpeg.ProgressUpdate)) error {
	f.encodes = append(f.encodes, req)
	if f.encodeErr != nil {
		return f.encodeErr
	}
	return os.WriteFile(req.Output, []byte("clip"), 0o644)
}

func (f *fakeFFmpeg) SampleFrames(_ context.Context, _, _ string, _ float64, _ int) ([]string, error) {
	return f.frames, nil
}

func stubInspect(t *testing.T, result ffprobe.Result, err error) {
	t.Helper()
	original := inspect
	inspect = func(context.Context, string, string) (ffprobe.Result, error) {
		return result, err
	}
	t.Cleanup(func() { inspect = original })
}

func proxyConfig() config.Proxy {
	return config.Proxy{
		Preset:          "balanced",
		MuteAudio:       true,
		LoopDetection:   true,
		LoopSampleCount: 8,
		LoopThreshold:   10,
		CrossfadeMillis: 400,
	}
}

func testRequest(t *testing.T, preview string) Request {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, preview), []byte("media"), 0o644); err != nil {
		t.Fatalf("write preview: %v", err)
	}
	outDir := t.TempDir()
	return Request{
		SceneID: "3148100",
		Root:    root,
		Graph:   &scenegraph.Graph{SceneID: "3148100"},
		OutDir:  outDir,
	}
}

func TestSynthesizeStillImage(t *testing.T) {
	client := &fakeFFmpeg{}
	synth := New(client, proxyConfig(), config.Tools{}, nil)

	result, err := synth.Synthesize(context.Background(), testRequest(t, "preview.png"))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(client.encodes) != 1 {
		t.Fatalf("encodes = %d, want 1 (no loop pass for stills)", len(client.encodes))
	}
	encode := client.encodes[0]
	if !encode.LoopInput {
		t.Error("expected -loop 1 for a still image")
	}
	if encode.DurationSeconds != stillClipSeconds {
		t.Errorf("duration = %v, want %v", encode.DurationSeconds, stillClipSeconds)
	}
	if !encode.MuteAudio {
		t.Error("expected muted encode")
	}
	if result.Loop != nil {
		t.Error("stills should not carry a loop plan")
	}
	if !strings.HasSuffix(result.ProxyPath, "proxy.mp4") {
		t.Errorf("unexpected proxy path %q", result.ProxyPath)
	}
}

func TestSynthesizeVideoWithSeamlessLoop(t *testing.T) {
	dir := t.TempDir()
	// Endpoint frames identical, middles distinct.
	var frames []string
	phases := []float64{0, 1.3, 2.1, 2.9, 3.6, 4.4, 5.2, 0}
	for i, phase := range phases {
		frames = append(frames, writeFrame(t, dir, i, phase))
	}
	client := &fakeFFmpeg{frames: frames}
	stubInspect(t, ffprobe.Result{Format: ffprobe.Format{Duration: "8.0"}}, nil)

	synth := New(client, proxyConfig(), config.Tools{}, nil)
	result, err := synth.Synthesize(context.Background(), testRequest(t, "preview.mp4"))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	if result.Loop == nil {
		t.Fatalf("expected a loop plan, diagnostics: %v", result.Diagnostics)
	}
	if result.Loop.CrossfadeSeconds != 0.4 {
		t.Errorf("crossfade = %v, want 0.4", result.Loop.CrossfadeSeconds)
	}
	if !strings.HasSuffix(result.ProxyPath, "proxy-loop.mp4") {
		t.Errorf("expected loop render output, got %q", result.ProxyPath)
	}
	if len(client.encodes) != 2 {
		t.Fatalf("encodes = %d, want base + loop pass", len(client.encodes))
	}
	loopPass := client.encodes[1]
	if !loopPass.Complex || !strings.Contains(loopPass.FilterGraph, "xfade") {
		t.Errorf("expected crossfade filter graph, got %+v", loopPass)
	}
}

func TestSynthesizeCapsFPSAtSource(t *testing.T) {
	client := &fakeFFmpeg{}
	stubInspect(t, ffprobe.Result{
		Format: ffprobe.Format{Duration: "8.0"},
		Streams: []ffprobe.Stream{
			{CodecType: "video", FrameRate: "24000/1001"},
		},
	}, nil)

	cfg := proxyConfig()
	cfg.LoopDetection = false
	synth := New(client, cfg, config.Tools{}, nil)
	result, err := synth.Synthesize(context.Background(), testRequest(t, "preview.mp4"))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	// The balanced preset asks for 30fps but the source only carries ~24.
	if result.Tune.FPS != 24 {
		t.Errorf("fps = %d, want 24", result.Tune.FPS)
	}
	if !strings.Contains(result.FilterGraph, "fps=24") {
		t.Errorf("filter graph should carry the capped rate, got %q", result.FilterGraph)
	}
}

func TestSynthesizeKeepsAudioUnloopRendered(t *testing.T) {
	dir := t.TempDir()
	var frames []string
	for i, phase := range []float64{0, 1.3, 2.1, 0} {
		frames = append(frames, writeFrame(t, dir, i, phase))
	}
	client := &fakeFFmpeg{frames: frames}
	stubInspect(t, ffprobe.Result{Format: ffprobe.Format{Duration: "4.0"}}, nil)

	cfg := proxyConfig()
	cfg.MuteAudio = false
	synth := New(client, cfg, config.Tools{}, nil)
	result, err := synth.Synthesize(context.Background(), testRequest(t, "preview.mp4"))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(client.encodes) != 1 {
		t.Fatalf("encodes = %d, want 1 (no loop render with audio)", len(client.encodes))
	}
	if result.Loop == nil {
		t.Fatal("loop plan should still be reported")
	}
	if len(result.Diagnostics) == 0 {
		t.Fatal("expected a diagnostic about preserving audio")
	}
}

func TestSynthesizeEncodeFailureIsFatal(t *testing.T) {
	client := &fakeFFmpeg{encodeErr: errors.New("boom")}
	synth := New(client, proxyConfig(), config.Tools{}, nil)

	_, err := synth.Synthesize(context.Background(), testRequest(t, "preview.png"))
	if !errors.Is(err, ErrEncodeFailure) {
		t.Fatalf("err = %v, want ErrEncodeFailure", err)
	}
}

func TestSelectBaseMedia(t *testing.T) {
	root := t.TempDir()
	if _, _, err := SelectBaseMedia(root, nil); !errors.Is(err, scenepkg.ErrMissingAsset) {
		t.Fatalf("err = %v, want ErrMissingAsset for empty root", err)
	}

	if err := os.WriteFile(filepath.Join(root, "preview.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, still, err := SelectBaseMedia(root, nil)
	if err != nil || !still || filepath.Base(path) != "preview.jpg" {
		t.Fatalf("unexpected selection: %q still=%v err=%v", path, still, err)
	}

	if err := os.WriteFile(filepath.Join(root, "clip.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	project := &scenepkg.Project{Type: "video", File: "clip.mp4"}
	path, still, err = SelectBaseMedia(root, project)
	if err != nil || still || filepath.Base(path) != "clip.mp4" {
		t.Fatalf("unexpected video selection: %q still=%v err=%v", path, still, err)
	}
}

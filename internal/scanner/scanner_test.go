package scanner

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"scenewall/internal/testsupport"
)

const scanTestScene = `{
  "general": {"orthogonalprojection": {"width": 1920, "height": 1080}},
  "objects": [
    {"name": "Background", "origin": "960 540 0", "size": "1920 1080",
     "effects": [{"file": "effects/genericimage2/effect.json"}]},
    {"name": "Warp", "origin": "960 540 0", "size": "1920 1080",
     "effects": [{"file": "effects/chromawarp/effect.json"}]},
    {"name": "Visualizer", "origin": "960 120 0", "size": "800 160",
     "effects": [{"file": "effects/audiobars/effect.json"}]}
  ]
}`

func writeTypedWallpaper(t *testing.T, parent, id, wallpaperType string) {
	t.Helper()
	root := filepath.Join(parent, id)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	project := `{"type":"` + wallpaperType + `","title":"` + wallpaperType + ` ` + id + `"}`
	if err := os.WriteFile(filepath.Join(root, "project.json"), []byte(project), 0o644); err != nil {
		t.Fatalf("write project.json: %v", err)
	}
}

func TestScanGradesLibrary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSceneWallpaper(t, cfg.Paths.DownloadsRoot, "100", []byte(scanTestScene))
	writeTypedWallpaper(t, cfg.Paths.DownloadsRoot, "200", "video")
	writeTypedWallpaper(t, cfg.Paths.DownloadsRoot, "300", "web")
	// Empty directory: no project.json, no package.
	if err := os.MkdirAll(filepath.Join(cfg.Paths.DownloadsRoot, "400"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	scanner := New(*cfg, nil, nil)
	report, err := scanner.Scan(context.Background(), false)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if report.TotalScenes != 4 {
		t.Fatalf("TotalScenes = %d, want 4", report.TotalScenes)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}

	byID := make(map[string]SceneReport)
	for _, scene := range report.Scenes {
		byID[scene.SceneID] = scene
	}

	sceneRep := byID["100"]
	if sceneRep.Err != "" {
		t.Fatalf("scene 100 failed: %s", sceneRep.Err)
	}
	if sceneRep.Supported == 0 || sceneRep.Unsupported == 0 {
		t.Errorf("scene 100 support mix = %d/%d/%d, want supported and unsupported passes",
			sceneRep.Supported, sceneRep.Partial, sceneRep.Unsupported)
	}
	if sceneRep.Percent <= 0 || sceneRep.Percent >= 100 {
		t.Errorf("scene 100 percent = %v, want strictly between 0 and 100", sceneRep.Percent)
	}
	if sceneRep.Tier != tierFor(sceneRep.Percent) {
		t.Errorf("scene 100 tier = %s, inconsistent with percent %v", sceneRep.Tier, sceneRep.Percent)
	}
	if len(sceneRep.UnsupportedFamilies) != 1 || sceneRep.UnsupportedFamilies[0] != "chromawarp" {
		t.Errorf("UnsupportedFamilies = %v, want [chromawarp]", sceneRep.UnsupportedFamilies)
	}
	for _, want := range []string{"layer-composite", "effects", "audio-overlay"} {
		found := false
		for _, got := range sceneRep.Capabilities {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("scene 100 capabilities %v missing %s", sceneRep.Capabilities, want)
		}
	}

	video := byID["200"]
	if video.Tier != TierExcellent || video.Percent != 100 {
		t.Errorf("video wallpaper graded %s/%v, want excellent/100", video.Tier, video.Percent)
	}
	if len(video.Capabilities) != 1 || video.Capabilities[0] != "video-passthrough" {
		t.Errorf("video capabilities = %v", video.Capabilities)
	}

	web := byID["300"]
	if web.Tier != TierLimited {
		t.Errorf("web wallpaper graded %s, want limited", web.Tier)
	}
	if len(web.Issues) == 0 || !strings.Contains(web.Issues[0], "no scene graph") {
		t.Errorf("web issues = %v", web.Issues)
	}

	broken := byID["400"]
	if broken.Err == "" {
		t.Error("expected empty wallpaper dir to record a scan error")
	}

	if report.EffectHistogram["chromawarp"] != 1 || report.EffectHistogram["audiobars"] != 1 {
		t.Errorf("histogram = %v", report.EffectHistogram)
	}
}

func TestScanReportsAreDeterministic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSceneWallpaper(t, cfg.Paths.DownloadsRoot, "100", []byte(scanTestScene))
	testsupport.WriteSceneWallpaper(t, cfg.Paths.DownloadsRoot, "101", []byte(scanTestScene))
	writeTypedWallpaper(t, cfg.Paths.DownloadsRoot, "200", "video")

	scanner := New(*cfg, nil, nil)
	first, err := scanner.Scan(context.Background(), true)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := scanner.Scan(context.Background(), true)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	// Only the wall-clock stamp may differ between runs over an
	// unchanged library.
	first.GeneratedAt = second.GeneratedAt
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reports differ across runs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestScanUsesCacheUnlessRefreshed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSceneWallpaper(t, cfg.Paths.DownloadsRoot, "100", []byte(scanTestScene))

	store, err := OpenStore(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	scanner := New(*cfg, store, nil)
	first, err := scanner.Scan(context.Background(), false)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}

	// A wallpaper added after the scan is invisible until refresh.
	writeTypedWallpaper(t, cfg.Paths.DownloadsRoot, "200", "video")

	cached, err := scanner.Scan(context.Background(), false)
	if err != nil {
		t.Fatalf("cached scan: %v", err)
	}
	if cached.TotalScenes != first.TotalScenes {
		t.Errorf("cached scan rescanned: %d scenes, want %d", cached.TotalScenes, first.TotalScenes)
	}
	if !cached.GeneratedAt.Equal(first.GeneratedAt) {
		t.Errorf("cached GeneratedAt = %v, want %v", cached.GeneratedAt, first.GeneratedAt)
	}

	refreshed, err := scanner.Scan(context.Background(), true)
	if err != nil {
		t.Fatalf("refresh scan: %v", err)
	}
	if refreshed.TotalScenes != 2 {
		t.Errorf("refresh saw %d scenes, want 2", refreshed.TotalScenes)
	}
}

func TestScanMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.DownloadsRoot = filepath.Join(testsupport.BaseDir(cfg), "nope")

	scanner := New(*cfg, nil, nil)
	if _, err := scanner.Scan(context.Background(), false); err == nil {
		t.Fatal("expected error for missing downloads root")
	}
}

package overlay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testPlan() Plan {
	return Plan{
		SceneID:      "3148100",
		Experimental: true,
		Enabled:      true,
		Bands:        24,
		Geometry:     Geometry{CenterX: 0.5, CenterY: 0.9, Width: 0.8, Height: 0.15},
		Color:        "#4fc3f7",
		Opacity:      0.85,
		Transparency: "blend",
	}
}

// The .group and .profile formats are read by the external visualizer.
// These golden strings are the compatibility contract.
const (
	goldenGroup = "layer=1,bars,24,0.500,0.900,0.800,0.150,#4fc3f7,0.850\n"

	goldenProfile = "height_scale=0.150\n" +
		"side_padding=0.100\n" +
		"bottom_padding=0.025\n" +
		"bar_gap=2\n" +
		"min_bar_height_px=2\n"
)

func TestArtifactFilesGolden(t *testing.T) {
	files, err := ArtifactFiles(testPlan())
	if err != nil {
		t.Fatalf("ArtifactFiles returned error: %v", err)
	}

	if got := string(files[GroupFileName]); got != goldenGroup {
		t.Errorf("group artifact:\n got %q\nwant %q", got, goldenGroup)
	}
	if got := string(files[ProfileFileName]); got != goldenProfile {
		t.Errorf("profile artifact:\n got %q\nwant %q", got, goldenProfile)
	}

	var decoded Plan
	if err := json.Unmarshal(files[PlanFileName], &decoded); err != nil {
		t.Fatalf("plan artifact is not valid JSON: %v", err)
	}
	if decoded != testPlan() {
		t.Fatalf("plan artifact round trip mismatch: %+v", decoded)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteArtifacts(dir, testPlan())
	if err != nil {
		t.Fatalf("WriteArtifacts returned error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths = %v, want 3 artifacts", paths)
	}
	for _, path := range paths {
		if filepath.Dir(path) != dir {
			t.Errorf("artifact %q outside session dir", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact missing: %v", err)
		}
	}
}

package native

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"scenewall/internal/passgraph"
	"scenewall/internal/scenegraph"
)

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode image: %v", err)
	}
}

func testPlan(t *testing.T, layers ...*scenegraph.Node) *passgraph.Plan {
	t.Helper()
	plan, err := passgraph.Compile(&scenegraph.Graph{
		SceneID: "demo",
		Width:   128,
		Height:  96,
		Layers:  layers,
	})
	if err != nil {
		t.Fatalf("compile plan: %v", err)
	}
	return plan
}

func imageLayer(name string, refs ...string) *scenegraph.Node {
	return &scenegraph.Node{
		Kind:        scenegraph.KindLayer,
		Name:        name,
		Visible:     true,
		Alpha:       1,
		Scale:       scenegraph.Vec2{X: 1, Y: 1},
		Origin:      scenegraph.Vec2{X: 64, Y: 48},
		Size:        scenegraph.Vec2{X: 32, Y: 32},
		Support:     scenegraph.Supported,
		TextureRefs: refs,
	}
}

func TestRenderFrameComposites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "background.png")
	writeTestImage(t, src)

	plan := testPlan(t, imageLayer("back", "background.tex"))
	renderer := NewRenderer(plan, map[string]string{"background.tex": src}, 30, nil)

	frame, warnings, err := renderer.RenderFrame(0)
	if err != nil {
		t.Fatalf("RenderFrame returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	bounds := frame.Bounds()
	if bounds.Dx() != 128 || bounds.Dy() != 96 {
		t.Fatalf("frame bounds = %v, want 128x96", bounds)
	}
}

func TestRenderFrameWarnsOnMissingSource(t *testing.T) {
	plan := testPlan(t, imageLayer("back", "background.tex"))
	renderer := NewRenderer(plan, nil, 30, nil)

	_, warnings, err := renderer.RenderFrame(0)
	if err != nil {
		t.Fatalf("RenderFrame returned error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one missing-source warning", warnings)
	}

	// The warning is not repeated on subsequent frames.
	_, warnings, err = renderer.RenderFrame(1)
	if err != nil {
		t.Fatalf("RenderFrame returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected cached miss to stay silent, got %v", warnings)
	}
}

func TestRenderFrameSkipsTextElements(t *testing.T) {
	text := &scenegraph.Node{
		Kind:    scenegraph.KindTextElement,
		Name:    "caption",
		Visible: true,
		Alpha:   1,
		Text:    "hello",
		Support: scenegraph.Partial,
	}
	plan := testPlan(t, text)
	renderer := NewRenderer(plan, nil, 30, nil)

	_, warnings, err := renderer.RenderFrame(0)
	if err != nil {
		t.Fatalf("RenderFrame returned error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one text warning", warnings)
	}
}

func TestRenderFrameReportsUnsupportedEffects(t *testing.T) {
	layer := imageLayer("back")
	layer.Children = []*scenegraph.Node{{
		Kind:          scenegraph.KindEffect,
		Name:          "warp",
		Visible:       true,
		Support:       scenegraph.Unsupported,
		SupportReason: "no equivalence",
	}}
	plan := testPlan(t, layer)
	renderer := NewRenderer(plan, nil, 30, nil)

	_, warnings, err := renderer.RenderFrame(0)
	if err != nil {
		t.Fatalf("RenderFrame returned error: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Reason != "no equivalence" {
		t.Fatalf("warnings = %v, want unsupported effect warning", warnings)
	}
}

func TestMotionOffset(t *testing.T) {
	layer := imageLayer("back")
	layer.Children = []*scenegraph.Node{{
		Kind:    scenegraph.KindEffect,
		Name:    "drift",
		Family:  "flowimage",
		Visible: true,
		Support: scenegraph.Partial,
	}}
	x0, y0 := motionOffset(layer, 0)
	x1, y1 := motionOffset(layer, 3)
	if x0 == x1 && y0 == y1 {
		t.Fatal("expected drift offset to change over time")
	}

	still := imageLayer("plain")
	if x, y := motionOffset(still, 5); x != 0 || y != 0 {
		t.Fatalf("expected no offset without motion effects, got %v,%v", x, y)
	}
}

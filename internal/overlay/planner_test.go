package overlay

import (
	"testing"

	"scenewall/internal/scenegraph"
)

func reactiveGraph(uniforms map[string]any) *scenegraph.Graph {
	bars := &scenegraph.Node{
		Kind:     scenegraph.KindAudioReactive,
		Name:     "bars",
		Visible:  true,
		Family:   "audiobars",
		Uniforms: uniforms,
	}
	layer := &scenegraph.Node{
		Kind:     scenegraph.KindLayer,
		Name:     "visualizer",
		Visible:  true,
		Alpha:    1,
		Origin:   scenegraph.Vec2{X: 960, Y: 972},
		Size:     scenegraph.Vec2{X: 1536, Y: 162},
		Scale:    scenegraph.Vec2{X: 1, Y: 1},
		Children: []*scenegraph.Node{bars},
	}
	return &scenegraph.Graph{
		SceneID: "3148100",
		Width:   1920,
		Height:  1080,
		Layers:  []*scenegraph.Node{layer},
	}
}

func TestBuildPlanDisabledWithoutReactiveNodes(t *testing.T) {
	plan := BuildPlan(&scenegraph.Graph{SceneID: "plain", Width: 1920, Height: 1080})
	if plan.Enabled {
		t.Fatal("expected disabled plan for non-reactive scene")
	}
	if !plan.Experimental {
		t.Fatal("plans are always experimental")
	}
	if plan.Bands != defaultBands {
		t.Fatalf("bands = %d, want default %d", plan.Bands, defaultBands)
	}
}

func TestBuildPlanGeometryFromOwningLayer(t *testing.T) {
	plan := BuildPlan(reactiveGraph(nil))
	if !plan.Enabled {
		t.Fatal("expected enabled plan")
	}
	geom := plan.Geometry
	if geom.CenterX != 0.5 || geom.CenterY != 0.9 {
		t.Fatalf("center = %v,%v, want 0.5,0.9", geom.CenterX, geom.CenterY)
	}
	if geom.Width != 0.8 || geom.Height != 0.15 {
		t.Fatalf("size = %v,%v, want 0.8,0.15", geom.Width, geom.Height)
	}
}

func TestBuildPlanHonorsUniforms(t *testing.T) {
	plan := BuildPlan(reactiveGraph(map[string]any{
		"bars":  32.0,
		"color": "1 0 0",
		"alpha": 0.5,
	}))
	if plan.Bands != 32 {
		t.Errorf("bands = %d, want 32", plan.Bands)
	}
	if plan.Color != "#ff0000" {
		t.Errorf("color = %q, want #ff0000", plan.Color)
	}
	if plan.Opacity != 0.5 {
		t.Errorf("opacity = %v, want 0.5", plan.Opacity)
	}
}

func TestBuildPlanIsPure(t *testing.T) {
	graph := reactiveGraph(map[string]any{"bars": 16.0})
	first := BuildPlan(graph)
	second := BuildPlan(graph)
	if first != second {
		t.Fatalf("plans differ: %+v vs %+v", first, second)
	}
}

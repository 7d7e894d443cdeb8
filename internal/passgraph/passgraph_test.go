package passgraph

import (
	"errors"
	"testing"

	"scenewall/internal/scenegraph"
)

func layer(name string, effects ...*scenegraph.Node) *scenegraph.Node {
	return &scenegraph.Node{
		Kind:     scenegraph.KindLayer,
		Name:     name,
		Visible:  true,
		Alpha:    1,
		Support:  scenegraph.Supported,
		Children: effects,
	}
}

func effect(name string, targets, binds []string) *scenegraph.Node {
	return &scenegraph.Node{
		Kind:    scenegraph.KindEffect,
		Name:    name,
		Visible: true,
		Alpha:   1,
		Support: scenegraph.Supported,
		Targets: targets,
		Binds:   binds,
	}
}

func TestCompileOrdersPassesPerLayer(t *testing.T) {
	graph := &scenegraph.Graph{
		SceneID: "demo",
		Width:   1920,
		Height:  1080,
		Layers: []*scenegraph.Node{
			layer("back", effect("blur", nil, nil)),
			layer("front"),
		},
	}

	plan, err := Compile(graph)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	wantIDs := []string{
		"asset-decode:back",
		"effect-eval:back/blur",
		"composite:back",
		"asset-decode:front",
		"composite:front",
		"post-fx:frame",
	}
	if len(plan.Passes) != len(wantIDs) {
		t.Fatalf("passes = %d, want %d", len(plan.Passes), len(wantIDs))
	}
	for i, want := range wantIDs {
		if plan.Passes[i].ID != want {
			t.Errorf("pass %d = %q, want %q", i, plan.Passes[i].ID, want)
		}
	}

	final := plan.Passes[len(plan.Passes)-1]
	if len(final.Inputs) != 2 || final.Inputs[0] != "composite:back" || final.Inputs[1] != "composite:front" {
		t.Errorf("post-fx inputs = %v, want both composites in layer order", final.Inputs)
	}
}

func TestCompileInvisibleLayerProducesNoPasses(t *testing.T) {
	hidden := layer("hidden")
	hidden.Visible = false
	graph := &scenegraph.Graph{SceneID: "demo", Layers: []*scenegraph.Node{hidden}}

	plan, err := Compile(graph)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(plan.Passes) != 1 || plan.Passes[0].Stage != StagePostFX {
		t.Fatalf("passes = %+v, want only the post-fx pass", plan.Passes)
	}
}

func TestCompileEffectChainInputs(t *testing.T) {
	graph := &scenegraph.Graph{
		SceneID: "demo",
		Layers: []*scenegraph.Node{
			layer("back", effect("first", nil, nil), effect("second", nil, nil)),
		},
	}

	plan, err := Compile(graph)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	byID := map[string]Pass{}
	for _, pass := range plan.Passes {
		byID[pass.ID] = pass
	}
	second := byID["effect-eval:back/second"]
	if len(second.Inputs) != 1 || second.Inputs[0] != "effect-eval:back/first" {
		t.Errorf("second inputs = %v, want the first effect", second.Inputs)
	}
}

func TestCompileDetectsRenderTargetCycle(t *testing.T) {
	graph := &scenegraph.Graph{
		SceneID: "demo",
		Layers: []*scenegraph.Node{
			layer("back",
				effect("consumer", nil, []string{"_rt_late"}),
				effect("middle", nil, nil),
				effect("producer", []string{"_rt_late"}, nil),
			),
		},
	}

	_, err := Compile(graph)
	if !errors.Is(err, ErrCyclicEffectDependency) {
		t.Fatalf("err = %v, want ErrCyclicEffectDependency", err)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	graph := &scenegraph.Graph{
		SceneID: "demo",
		Layers: []*scenegraph.Node{
			layer("a", effect("x", []string{"_rt_x"}, nil), effect("y", nil, []string{"_rt_x"})),
			layer("b"),
		},
	}

	first, err := Compile(graph)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := Compile(graph)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(first.Passes) != len(second.Passes) {
		t.Fatalf("pass counts differ: %d vs %d", len(first.Passes), len(second.Passes))
	}
	for i := range first.Passes {
		if first.Passes[i].ID != second.Passes[i].ID {
			t.Errorf("pass %d differs: %q vs %q", i, first.Passes[i].ID, second.Passes[i].ID)
		}
	}
}

func TestSupportSummary(t *testing.T) {
	bad := effect("warp", nil, nil)
	bad.Support = scenegraph.Unsupported
	soft := layer("soft", bad)
	soft.Support = scenegraph.Partial

	graph := &scenegraph.Graph{SceneID: "demo", Layers: []*scenegraph.Node{soft}}
	plan, err := Compile(graph)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	supported, partial, unsupported := plan.SupportSummary()
	// decode+composite carry the layer tag, the effect its own, post-fx is supported.
	if supported != 1 || partial != 2 || unsupported != 1 {
		t.Errorf("summary = %d/%d/%d, want 1/2/1", supported, partial, unsupported)
	}
}

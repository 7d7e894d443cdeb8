// Package passgraph compiles a scene graph into the ordered pass plan the
// renderers execute. Compilation is deterministic: the same graph always
// yields the same pass list, with descriptor order breaking ties.
package passgraph

import (
	"errors"
	"fmt"

	"scenewall/internal/scenegraph"
)

// ErrCyclicEffectDependency reports render-target bindings that form a loop
// between sibling effects.
var ErrCyclicEffectDependency = errors.New("cyclic effect dependency")

// Stage orders the coarse phases of a frame.
type Stage string

const (
	StageAssetDecode Stage = "asset-decode"
	StageEffectEval  Stage = "effect-eval"
	StageComposite   Stage = "composite"
	StagePostFX      Stage = "post-fx"
)

// Pass is one schedulable unit of work.
type Pass struct {
	ID    string
	Stage Stage
	Layer string
	// Node is nil for the final post-fx pass.
	Node *scenegraph.Node
	// Inputs are the IDs of passes that must complete first.
	Inputs  []string
	Support scenegraph.Support
}

// Plan is the compiled pass list in execution order.
type Plan struct {
	SceneID string
	Width   int
	Height  int
	Passes  []Pass
}

// SupportSummary tallies compiled passes per support tag.
func (p *Plan) SupportSummary() (supported, partial, unsupported int) {
	for _, pass := range p.Passes {
		switch pass.Support {
		case scenegraph.Supported:
			supported++
		case scenegraph.Partial:
			partial++
		default:
			unsupported++
		}
	}
	return supported, partial, unsupported
}

// Compile lowers the scene graph into an executable pass plan. Invisible
// layers produce no passes. Unsupported nodes still compile; the renderer
// decides whether to skip them.
func Compile(graph *scenegraph.Graph) (*Plan, error) {
	plan := &Plan{
		SceneID: graph.SceneID,
		Width:   graph.Width,
		Height:  graph.Height,
	}

	var composites []string
	for _, layer := range graph.Layers {
		if !layer.Visible {
			continue
		}
		compositeID, err := compileLayer(plan, layer)
		if err != nil {
			return nil, err
		}
		composites = append(composites, compositeID)
	}

	final := Pass{
		ID:      "post-fx:frame",
		Stage:   StagePostFX,
		Inputs:  composites,
		Support: scenegraph.Supported,
	}
	plan.Passes = append(plan.Passes, final)
	return plan, nil
}

func compileLayer(plan *Plan, layer *scenegraph.Node) (string, error) {
	decodeID := fmt.Sprintf("%s:%s", StageAssetDecode, layer.Name)
	plan.Passes = append(plan.Passes, Pass{
		ID:      decodeID,
		Stage:   StageAssetDecode,
		Layer:   layer.Name,
		Node:    layer,
		Support: layer.Support,
	})

	effects, err := orderEffects(layer)
	if err != nil {
		return "", err
	}

	previous := decodeID
	for _, effect := range effects {
		id := fmt.Sprintf("%s:%s/%s", StageEffectEval, layer.Name, effect.Name)
		plan.Passes = append(plan.Passes, Pass{
			ID:      id,
			Stage:   StageEffectEval,
			Layer:   layer.Name,
			Node:    effect,
			Inputs:  []string{previous},
			Support: effect.Support,
		})
		previous = id
	}

	compositeID := fmt.Sprintf("%s:%s", StageComposite, layer.Name)
	plan.Passes = append(plan.Passes, Pass{
		ID:      compositeID,
		Stage:   StageComposite,
		Layer:   layer.Name,
		Node:    layer,
		Inputs:  []string{previous},
		Support: layer.Support,
	})
	return compositeID, nil
}

// orderEffects validates the render-target dependencies between a layer's
// effects and returns them in execution order. Effects run in descriptor
// order; a target bound before any sibling produces it is a backward edge,
// and together with the sequential chain that is a cycle.
func orderEffects(layer *scenegraph.Node) ([]*scenegraph.Node, error) {
	var effects []*scenegraph.Node
	for _, child := range layer.Children {
		if !child.Visible {
			continue
		}
		effects = append(effects, child)
	}
	if len(effects) < 2 {
		return effects, nil
	}

	producer := map[string]int{}
	for index, effect := range effects {
		for _, target := range effect.Targets {
			if _, taken := producer[target]; !taken {
				producer[target] = index
			}
		}
	}

	// edges[i] lists the effects that must run before effect i.
	edges := make([][]int, len(effects))
	for index, effect := range effects {
		if index > 0 {
			edges[index] = append(edges[index], index-1)
		}
		for _, bind := range effect.Binds {
			from, ok := producer[bind]
			if !ok || from == index {
				continue
			}
			edges[index] = append(edges[index], from)
		}
	}

	order, ok := topoSort(edges)
	if !ok {
		return nil, fmt.Errorf("%w: layer %s", ErrCyclicEffectDependency, layer.Name)
	}
	sorted := make([]*scenegraph.Node, len(order))
	for position, index := range order {
		sorted[position] = effects[index]
	}
	return sorted, nil
}

// topoSort runs Kahn's algorithm, always taking the lowest ready index so the
// result is stable.
func topoSort(edges [][]int) ([]int, bool) {
	n := len(edges)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for to, froms := range edges {
		for _, from := range froms {
			indegree[to]++
			dependents[from] = append(dependents[from], to)
		}
	}

	done := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, false
		}
		done[next] = true
		order = append(order, next)
		for _, to := range dependents[next] {
			indegree[to]--
		}
	}
	return order, true
}

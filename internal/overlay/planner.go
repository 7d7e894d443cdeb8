package overlay

import (
	"fmt"
	"strings"

	"scenewall/internal/scenegraph"
)

// Advisory accompanies every plan: the in-tree overlay path stays
// experimental while the external visualizer is the stable surface.
const Advisory = "audio overlay planning is experimental; the external spectrum visualizer is the stable rendering path"

const defaultBands = 24

// Geometry places the overlay in normalized scene coordinates (0..1, origin
// top-left).
type Geometry struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Plan is the full overlay description for one scene.
type Plan struct {
	SceneID      string   `json:"scene_id"`
	Experimental bool     `json:"experimental"`
	Enabled      bool     `json:"enabled"`
	Bands        int      `json:"bands"`
	Geometry     Geometry `json:"geometry"`
	Color        string   `json:"color"`
	Opacity      float64  `json:"opacity"`
	Transparency string   `json:"transparency"`
}

// BuildPlan derives the overlay plan from the scene graph. Pure: same graph,
// same plan. Scenes without audio-reactive nodes yield a disabled plan.
func BuildPlan(graph *scenegraph.Graph) Plan {
	plan := Plan{
		SceneID:      graph.SceneID,
		Experimental: true,
		Bands:        defaultBands,
		Color:        "#4fc3f7",
		Opacity:      0.85,
		Transparency: "blend",
	}

	reactive := graph.AudioReactive()
	if len(reactive) == 0 {
		// Bottom strip defaults so a manually enabled overlay still has
		// sane geometry.
		plan.Geometry = Geometry{CenterX: 0.5, CenterY: 0.9, Width: 0.8, Height: 0.15}
		return plan
	}
	plan.Enabled = true

	node := reactive[0]
	anchor := node
	if anchor.Size.X == 0 && anchor.Size.Y == 0 {
		// Effects carry no geometry of their own; use the owning layer.
		if owner := owningLayer(graph, node); owner != nil {
			anchor = owner
		}
	}
	plan.Geometry = normalizeGeometry(anchor, graph.Width, graph.Height)

	if bands, ok := uniformInt(node.Uniforms, "bars", "bands", "count"); ok && bands > 0 {
		plan.Bands = bands
	}
	if color, ok := uniformColor(node.Uniforms, "color", "barcolor"); ok {
		plan.Color = color
	}
	if opacity, ok := uniformFloat(node.Uniforms, "alpha", "opacity"); ok && opacity > 0 && opacity <= 1 {
		plan.Opacity = opacity
	}
	return plan
}

func owningLayer(graph *scenegraph.Graph, target *scenegraph.Node) *scenegraph.Node {
	for _, layer := range graph.Layers {
		for _, child := range layer.Children {
			if child == target {
				return layer
			}
		}
	}
	return nil
}

func normalizeGeometry(node *scenegraph.Node, sceneWidth, sceneHeight int) Geometry {
	if sceneWidth <= 0 || sceneHeight <= 0 || (node.Size.X == 0 && node.Size.Y == 0) {
		return Geometry{CenterX: 0.5, CenterY: 0.9, Width: 0.8, Height: 0.15}
	}
	geom := Geometry{
		CenterX: node.Origin.X / float64(sceneWidth),
		CenterY: node.Origin.Y / float64(sceneHeight),
		Width:   node.Size.X * node.Scale.X / float64(sceneWidth),
		Height:  node.Size.Y * node.Scale.Y / float64(sceneHeight),
	}
	geom.CenterX = clamp01(geom.CenterX)
	geom.CenterY = clamp01(geom.CenterY)
	geom.Width = clamp01(geom.Width)
	geom.Height = clamp01(geom.Height)
	return geom
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func uniformFloat(uniforms map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := uniforms[key].(type) {
		case float64:
			return v, true
		case map[string]any:
			if f, ok := v["value"].(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func uniformInt(uniforms map[string]any, keys ...string) (int, bool) {
	if f, ok := uniformFloat(uniforms, keys...); ok {
		return int(f), true
	}
	return 0, false
}

// uniformColor converts a "r g b" float triplet (0..1) into a hex color.
func uniformColor(uniforms map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		raw, ok := uniforms[key]
		if !ok {
			continue
		}
		if wrapped, ok := raw.(map[string]any); ok {
			raw = wrapped["value"]
		}
		text, ok := raw.(string)
		if !ok {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			continue
		}
		var rgb [3]int
		valid := true
		for i, field := range fields {
			var f float64
			if _, err := fmt.Sscanf(field, "%g", &f); err != nil || f < 0 || f > 1 {
				valid = false
				break
			}
			rgb[i] = int(f*255 + 0.5)
		}
		if !valid {
			continue
		}
		return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), true
	}
	return "", false
}

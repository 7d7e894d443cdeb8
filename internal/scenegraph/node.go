package scenegraph

import "strings"

// NodeKind discriminates the scene node variants.
type NodeKind string

const (
	KindLayer         NodeKind = "layer"
	KindEffect        NodeKind = "effect"
	KindTextElement   NodeKind = "text"
	KindAudioReactive NodeKind = "audio-reactive"
)

// Support is the compatibility tag attached to every node.
type Support string

const (
	Supported   Support = "supported"
	Partial     Support = "partial"
	Unsupported Support = "unsupported"
)

// Vec2 is a two component vector parsed from a descriptor "x y" string.
type Vec2 struct {
	X float64
	Y float64
}

// Vec3 is a three component vector parsed from a descriptor "x y z" string.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Node is one element of the scene graph. Order is the compositing index:
// unique within a sibling list, later indices composite on top.
type Node struct {
	Kind    NodeKind
	Name    string
	Order   int
	Visible bool

	Origin Vec2
	Size   Vec2
	Scale  Vec2
	Angle  float64
	Alpha  float64

	// EffectFile identifies the effect kind for Effect and AudioReactive
	// nodes (the effect.json path inside the package).
	EffectFile string
	// Family is the normalized shader/effect family used for support lookup.
	Family string
	// TextureRefs are container entry names this node depends on.
	TextureRefs []string
	// Targets are render-target names the node's passes write to; Binds are
	// render-target names its passes sample from.
	Targets []string
	Binds   []string
	// Uniforms holds the effective shader parameter values for effect nodes.
	Uniforms map[string]any
	// Text carries the literal content for text elements.
	Text string

	Support       Support
	SupportReason string

	Children []*Node
}

// Graph is the typed scene tree plus scene-level metadata.
type Graph struct {
	SceneID string
	Title   string
	Width   int
	Height  int
	Layers  []*Node
}

// Walk visits every node depth first in compositing order.
func (g *Graph) Walk(visit func(*Node)) {
	var rec func(nodes []*Node)
	rec = func(nodes []*Node) {
		for _, node := range nodes {
			visit(node)
			rec(node.Children)
		}
	}
	rec(g.Layers)
}

// AudioReactive returns every audio-reactive node in compositing order.
func (g *Graph) AudioReactive() []*Node {
	var out []*Node
	g.Walk(func(n *Node) {
		if n.Kind == KindAudioReactive {
			out = append(out, n)
		}
	})
	return out
}

// SupportCounts tallies nodes per support tag.
func (g *Graph) SupportCounts() (supported, partial, unsupported int) {
	g.Walk(func(n *Node) {
		switch n.Support {
		case Supported:
			supported++
		case Partial:
			partial++
		default:
			unsupported++
		}
	})
	return supported, partial, unsupported
}

// EffectFamily normalizes a shader or effect file reference to its family
// name used by the feature-equivalence table.
func EffectFamily(ref string) string {
	normalized := strings.ToLower(strings.TrimSpace(ref))
	if normalized == "" {
		return "unknown"
	}
	normalized = strings.TrimSuffix(normalized, "/effect.json")
	if idx := strings.LastIndex(normalized, "/"); idx >= 0 {
		normalized = normalized[idx+1:]
	}
	normalized = strings.TrimSuffix(normalized, ".json")
	switch {
	case strings.Contains(normalized, "audio") && strings.Contains(normalized, "bar"):
		return "audiobars"
	case strings.HasPrefix(normalized, "genericimage"):
		return "genericimage"
	case normalized == "particle" || strings.HasPrefix(normalized, "genericparticle"):
		return "particle"
	case strings.HasPrefix(normalized, "generic"):
		return "generic"
	}
	return normalized
}

package scenegraph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"scenewall/internal/scenepkg"
)

const (
	defaultSceneWidth  = 1920
	defaultSceneHeight = 1080
)

// Build walks the decoded scene descriptor and produces the typed graph.
// Unknown effect kinds become Unsupported nodes plus a diagnostic; the only
// hard failures are structural (no object list) or a dangling asset
// reference, which wraps scenepkg.ErrMissingAsset naming the asset.
func Build(container *scenepkg.Container, descriptor *scenepkg.Descriptor) (*Graph, []Diagnostic, error) {
	graph := &Graph{
		SceneID: descriptor.SceneID,
		Title:   descriptor.Title(),
	}
	graph.Width, graph.Height = sceneDimensions(descriptor.Scene)

	objects, ok := descriptor.Scene["objects"].([]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: scene %s has no object list", scenepkg.ErrCorruptPackage, descriptor.SceneID)
	}

	var diags []Diagnostic
	for index, raw := range objects {
		object, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		node, nodeDiags, err := buildLayer(container, object, index, graph.Height)
		if err != nil {
			return nil, nil, err
		}
		diags = append(diags, nodeDiags...)
		graph.Layers = append(graph.Layers, node)
	}

	if reactive := graph.AudioReactive(); len(reactive) > 0 {
		diags = append(diags, Diagnostic{
			Code:    DiagAudioReactive,
			Message: fmt.Sprintf("%d audio-reactive element(s); honored only through the external overlay plan", len(reactive)),
		})
	}
	return graph, diags, nil
}

func buildLayer(container *scenepkg.Container, object map[string]any, order, sceneHeight int) (*Node, []Diagnostic, error) {
	node := &Node{
		Kind:    KindLayer,
		Name:    stringField(object, "name"),
		Order:   order,
		Visible: visibleField(object),
		Origin:  parseVec2(stringField(object, "origin")),
		Size:    parseVec2(stringField(object, "size")),
		Scale:   scaleField(object),
		Angle:   parseVec3(stringField(object, "angles")).Z,
		Alpha:   floatField(object, "alpha", 1),
	}
	if node.Name == "" {
		node.Name = fmt.Sprintf("layer-%d", order)
	}
	// Descriptor origins are measured from the bottom edge; compositing
	// coordinates grow downward from the top.
	node.Origin.Y = float64(sceneHeight) - node.Origin.Y

	if text, ok := object["text"].(string); ok {
		node.Kind = KindTextElement
		node.Text = text
		node.Support, node.SupportReason, _ = Classify("text")
		return node, nil, nil
	}

	if image := stringField(object, "image"); image != "" {
		refs, err := resolveImageRefs(container, image)
		if err != nil {
			return nil, nil, err
		}
		node.TextureRefs = refs
	}
	node.Support = Supported

	var diags []Diagnostic
	effects, _ := object["effects"].([]any)
	for index, raw := range effects {
		effect, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		child, diag := buildEffect(effect, index, node.Name)
		if diag != nil {
			diags = append(diags, *diag)
		}
		node.Children = append(node.Children, child)
	}

	// A layer inherits the weakest tag among its effects: an effect the
	// renderer cannot approximate drags the whole layer down.
	for _, child := range node.Children {
		if supportRank(child.Support) > supportRank(node.Support) {
			node.Support = child.Support
			node.SupportReason = child.SupportReason
		}
	}
	return node, diags, nil
}

func buildEffect(effect map[string]any, order int, layerName string) (*Node, *Diagnostic) {
	file := stringField(effect, "file")
	node := &Node{
		Kind:       KindEffect,
		Name:       stringField(effect, "name"),
		Order:      order,
		Visible:    visibleField(effect),
		Alpha:      1,
		EffectFile: file,
		Family:     EffectFamily(file),
		Uniforms:   uniformsField(effect),
	}
	node.Targets, node.Binds = renderTargetRefs(effect)
	if node.Name == "" {
		node.Name = node.Family
	}
	if node.Family == "audiobars" || hasReactiveHint(file) {
		node.Kind = KindAudioReactive
	}

	support, reason, known := Classify(node.Family)
	node.Support = support
	node.SupportReason = reason
	if !known {
		return node, &Diagnostic{
			Code:    DiagUnknownEffectKind,
			Node:    layerName + "/" + node.Name,
			Message: fmt.Sprintf("effect family %q has no known equivalence", node.Family),
		}
	}
	return node, nil
}

// resolveImageRefs follows the model -> material -> texture chain inside the
// container and returns the texture entry names the layer depends on.
func resolveImageRefs(container *scenepkg.Container, imageRef string) ([]string, error) {
	model, err := readJSONEntry(container, imageRef)
	if err != nil {
		return nil, err
	}
	materialRef := stringField(model, "material")
	if materialRef == "" {
		return nil, nil
	}
	material, err := readJSONEntry(container, materialRef)
	if err != nil {
		return nil, err
	}

	var refs []string
	passes, _ := material["passes"].([]any)
	for _, raw := range passes {
		pass, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		textures, _ := pass["textures"].([]any)
		for _, t := range textures {
			name, ok := t.(string)
			if !ok || name == "" {
				continue
			}
			// _rt_ entries are render targets resolved at runtime,
			// not packed assets.
			if strings.HasPrefix(name, "_rt_") {
				continue
			}
			entry := name + ".tex"
			if _, ok := container.Lookup(entry); !ok {
				return nil, fmt.Errorf("%w: texture %s referenced by %s", scenepkg.ErrMissingAsset, entry, materialRef)
			}
			refs = append(refs, entry)
		}
	}
	return refs, nil
}

func readJSONEntry(container *scenepkg.Container, name string) (map[string]any, error) {
	raw, err := container.ReadEntry(name)
	if err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON in entry %s: %v", scenepkg.ErrCorruptPackage, name, err)
	}
	return decoded, nil
}

// ReactiveHints scans a raw descriptor for tokens that suggest audio-driven
// behavior. It is advisory input for overlay planning, not a support verdict.
func ReactiveHints(scene map[string]any) []string {
	seen := map[string]bool{}
	var hints []string
	var rec func(value any)
	rec = func(value any) {
		switch v := value.(type) {
		case string:
			lower := strings.ToLower(v)
			for _, token := range reactiveTokens {
				if strings.Contains(lower, token) && !seen[token] {
					seen[token] = true
					hints = append(hints, token)
				}
			}
		case map[string]any:
			for _, item := range v {
				rec(item)
			}
		case []any:
			for _, item := range v {
				rec(item)
			}
		}
	}
	rec(scene)
	return hints
}

var reactiveTokens = []string{"audio", "visualizer", "spectrum", "fft", "bass", "beat", "vu", "music"}

func hasReactiveHint(ref string) bool {
	lower := strings.ToLower(ref)
	for _, token := range reactiveTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// renderTargetRefs collects the _rt_ targets an effect's passes write and the
// ones they sample, which become dependency edges between sibling effects.
func renderTargetRefs(effect map[string]any) (targets, binds []string) {
	passes, _ := effect["passes"].([]any)
	for _, raw := range passes {
		pass, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if target := stringField(pass, "target"); strings.HasPrefix(target, "_rt_") {
			targets = append(targets, target)
		}
		textures, _ := pass["textures"].([]any)
		for _, t := range textures {
			if name, ok := t.(string); ok && strings.HasPrefix(name, "_rt_") {
				binds = append(binds, name)
			}
		}
	}
	return targets, binds
}

// uniformsField merges the constant shader values across an effect's passes.
// Later passes win on key collision, mirroring descriptor precedence.
func uniformsField(effect map[string]any) map[string]any {
	merged := map[string]any{}
	collect := func(m map[string]any) {
		values, ok := m["constantshadervalues"].(map[string]any)
		if !ok {
			return
		}
		for key, value := range values {
			merged[key] = value
		}
	}
	collect(effect)
	passes, _ := effect["passes"].([]any)
	for _, raw := range passes {
		if pass, ok := raw.(map[string]any); ok {
			collect(pass)
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

func supportRank(s Support) int {
	switch s {
	case Supported:
		return 0
	case Partial:
		return 1
	default:
		return 2
	}
}

func sceneDimensions(scene map[string]any) (int, int) {
	width, height := defaultSceneWidth, defaultSceneHeight
	general, ok := scene["general"].(map[string]any)
	if !ok {
		return width, height
	}
	projection, ok := general["orthogonalprojection"].(map[string]any)
	if !ok {
		return width, height
	}
	if w := intField(projection, "width"); w > 0 {
		width = w
	}
	if h := intField(projection, "height"); h > 0 {
		height = h
	}
	return width, height
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func floatField(m map[string]any, key string, fallback float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	case map[string]any:
		// User-editable properties wrap the value: {"value": 0.5, ...}.
		if inner, ok := v["value"]; ok {
			if f, ok := inner.(float64); ok {
				return f
			}
		}
	}
	return fallback
}

func intField(m map[string]any, key string) int {
	return int(floatField(m, key, 0))
}

func visibleField(m map[string]any) bool {
	switch v := m["visible"].(type) {
	case bool:
		return v
	case map[string]any:
		if inner, ok := v["value"].(bool); ok {
			return inner
		}
	}
	return true
}

func scaleField(m map[string]any) Vec2 {
	raw := stringField(m, "scale")
	if raw == "" {
		return Vec2{X: 1, Y: 1}
	}
	return parseVec2(raw)
}

func parseVec2(raw string) Vec2 {
	v := parseVec3(raw)
	return Vec2{X: v.X, Y: v.Y}
}

func parseVec3(raw string) Vec3 {
	fields := strings.Fields(raw)
	var out Vec3
	parts := []*float64{&out.X, &out.Y, &out.Z}
	for i, field := range fields {
		if i >= len(parts) {
			break
		}
		if f, err := strconv.ParseFloat(field, 64); err == nil {
			*parts[i] = f
		}
	}
	return out
}

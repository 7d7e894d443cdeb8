package proxy

import (
	"fmt"
	"strconv"
	"strings"

	"scenewall/internal/scenegraph"
)

// motion approximates one effect family with an ffmpeg filter fragment. The
// fragments operate on the full frame, so only the dominant (first matching)
// profile is applied.
type motion struct {
	family string
	filter string
}

// Motion profiles for the effect families the proxy can approximate. Drift
// uses a slow crop scan, shake a small sinusoidal jitter, pulse a brightness
// oscillation, iris a soft vignette.
var motionProfiles = []motion{
	{family: "flowimage", filter: "crop=w=iw-16:h=ih-16:x='8+7*sin(t/7)':y='8+7*cos(t/9)'"},
	{family: "shake", filter: "crop=w=iw-8:h=ih-8:x='4+3*sin(t*11)':y='4+3*cos(t*13)'"},
	{family: "pulse", filter: "eq=brightness='0.02*sin(t*2)'"},
	{family: "iris", filter: "vignette=PI/5"},
}

// BuildFilterGraph derives the -vf chain for a synthesis encode: an optional
// motion profile, eq tuning from the scene's effective uniforms, drawtext
// fragments for the scene's text elements, then the mandatory
// scale/fps/format tail.
func BuildFilterGraph(graph *scenegraph.Graph, tune Tune) string {
	var chain []string
	if m, ok := dominantMotion(graph); ok {
		chain = append(chain, m.filter)
	}
	if eq, ok := eqTuning(graph); ok {
		chain = append(chain, eq)
	}
	chain = append(chain, drawtextFragments(graph)...)
	chain = append(chain,
		fmt.Sprintf("scale=%d:-2", tune.Width),
		fmt.Sprintf("fps=%d", tune.FPS),
		"format=yuv420p",
	)
	return strings.Join(chain, ",")
}

func dominantMotion(graph *scenegraph.Graph) (motion, bool) {
	families := map[string]bool{}
	graph.Walk(func(n *scenegraph.Node) {
		if n.Kind == scenegraph.KindEffect && n.Visible {
			families[n.Family] = true
		}
	})
	for _, profile := range motionProfiles {
		if families[profile.family] {
			return profile, true
		}
	}
	return motion{}, false
}

// eqTuning folds scene uniforms that map cleanly onto ffmpeg's eq filter.
// Values already at their neutral defaults emit nothing.
func eqTuning(graph *scenegraph.Graph) (string, bool) {
	contrast, saturation := 1.0, 1.0
	graph.Walk(func(n *scenegraph.Node) {
		if n.Kind != scenegraph.KindEffect || n.Uniforms == nil {
			return
		}
		if v, ok := uniformFloat(n.Uniforms, "contrast"); ok {
			contrast = v
		}
		if v, ok := uniformFloat(n.Uniforms, "saturation"); ok {
			saturation = v
		}
	})

	var parts []string
	if contrast != 1.0 {
		parts = append(parts, "contrast="+formatEq(contrast, 0.5, 2))
	}
	if saturation != 1.0 {
		parts = append(parts, "saturation="+formatEq(saturation, 0, 3))
	}
	if len(parts) == 0 {
		return "", false
	}
	return "eq=" + strings.Join(parts, ":"), true
}

// drawtextFragments renders the scene's visible text elements onto the proxy
// frame. Positions and sizes are emitted as frame fractions so the fragments
// hold regardless of where the scale filter lands in the chain.
func drawtextFragments(graph *scenegraph.Graph) []string {
	var frags []string
	for _, layer := range graph.Layers {
		if layer.Kind != scenegraph.KindTextElement || !layer.Visible || layer.Text == "" {
			continue
		}
		frag := fmt.Sprintf("drawtext=text='%s':x=%s:y=%s:fontsize=%s:fontcolor=white@%s",
			escapeDrawtext(layer.Text),
			frameFraction("w", layer.Origin.X, graph.Width),
			frameFraction("h", layer.Origin.Y, graph.Height),
			fontsizeExpr(layer, graph.Height),
			formatEq(layer.Alpha, 0, 1))
		frags = append(frags, frag)
	}
	return frags
}

// frameFraction maps a scene coordinate onto the frame dimension exposed by
// drawtext (w or h).
func frameFraction(dim string, v float64, sceneDim int) string {
	if sceneDim <= 0 {
		return "0"
	}
	frac := v / float64(sceneDim)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return fmt.Sprintf("%s*%s", dim, strconv.FormatFloat(frac, 'f', 4, 64))
}

func fontsizeExpr(layer *scenegraph.Node, sceneHeight int) string {
	if layer.Size.Y > 0 && sceneHeight > 0 {
		return frameFraction("h", layer.Size.Y, sceneHeight)
	}
	return "24"
}

// escapeDrawtext protects the text value inside its surrounding single
// quotes. A quote closes the string, emits an escaped quote, and reopens it.
func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `'\''`)
}

func uniformFloat(uniforms map[string]any, key string) (float64, bool) {
	switch v := uniforms[key].(type) {
	case float64:
		return v, true
	case map[string]any:
		if f, ok := v["value"].(float64); ok {
			return f, true
		}
	}
	return 0, false
}

func formatEq(v, min, max float64) string {
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

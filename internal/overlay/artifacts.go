package overlay

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"scenewall/internal/fileutil"
)

// Artifact file names inside a session directory.
const (
	PlanFileName    = "audio-overlay.plan.json"
	GroupFileName   = "audio-overlay.group"
	ProfileFileName = "audio-overlay.profile"
)

// ArtifactFiles renders the plan into its on-disk artifact set. The .group
// and .profile schemas are a compatibility boundary with the external
// visualizer; change them only with a schema bump on both sides.
func ArtifactFiles(plan Plan) (map[string][]byte, error) {
	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode overlay plan: %w", err)
	}
	planJSON = append(planJSON, '\n')

	return map[string][]byte{
		PlanFileName:    planJSON,
		GroupFileName:   []byte(groupText(plan)),
		ProfileFileName: []byte(profileText(plan)),
	}, nil
}

// groupText emits the single visualizer group line:
// layer=<idx>,bars,<bands>,<centerX>,<centerY>,<width>,<height>,<color>,<opacity>
func groupText(plan Plan) string {
	return fmt.Sprintf("layer=1,bars,%d,%s,%s,%s,%s,%s,%s\n",
		plan.Bands,
		formatRatio(plan.Geometry.CenterX),
		formatRatio(plan.Geometry.CenterY),
		formatRatio(plan.Geometry.Width),
		formatRatio(plan.Geometry.Height),
		plan.Color,
		formatRatio(plan.Opacity))
}

// profileText emits the bar layout profile keys in fixed order.
func profileText(plan Plan) string {
	heightScale := plan.Geometry.Height
	sidePadding := (1 - plan.Geometry.Width) / 2
	bottomPadding := 1 - (plan.Geometry.CenterY + plan.Geometry.Height/2)
	if bottomPadding < 0 {
		bottomPadding = 0
	}
	return "height_scale=" + formatRatio(heightScale) + "\n" +
		"side_padding=" + formatRatio(sidePadding) + "\n" +
		"bottom_padding=" + formatRatio(bottomPadding) + "\n" +
		"bar_gap=2\n" +
		"min_bar_height_px=2\n"
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// WriteArtifacts writes the artifact set into dir atomically and returns the
// written paths in stable order.
func WriteArtifacts(dir string, plan Plan) ([]string, error) {
	files, err := ArtifactFiles(plan)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := fileutil.WriteFileAtomic(path, files[name], 0o644); err != nil {
			return paths, fmt.Errorf("write overlay artifact %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

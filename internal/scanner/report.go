package scanner

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Tier buckets a compatibility score.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierPartial   Tier = "partial"
	TierLimited   Tier = "limited"
)

// tierFor maps a percent score onto its tier.
func tierFor(percent float64) Tier {
	switch {
	case percent >= 90:
		return TierExcellent
	case percent >= 75:
		return TierGood
	case percent >= 55:
		return TierPartial
	default:
		return TierLimited
	}
}

// SceneReport is the compatibility verdict for one wallpaper.
type SceneReport struct {
	SceneID string `json:"scene_id"`
	Title   string `json:"title"`
	Type    string `json:"type"`

	Supported   int     `json:"supported"`
	Partial     int     `json:"partial"`
	Unsupported int     `json:"unsupported"`
	Percent     float64 `json:"percent"`
	Tier        Tier    `json:"tier"`

	Capabilities []string `json:"capabilities,omitempty"`
	Issues       []string `json:"issues,omitempty"`
	// UnsupportedFamilies feeds the roadmap ranking.
	UnsupportedFamilies []string `json:"unsupported_families,omitempty"`
	// Err is set when the scene could not be scanned at all.
	Err string `json:"error,omitempty"`
}

// Report aggregates a full library scan.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Scenes      []SceneReport `json:"scenes"`

	TotalScenes int `json:"total_scenes"`
	Failed      int `json:"failed"`

	AggregateSupported   int `json:"aggregate_supported"`
	AggregatePartial     int `json:"aggregate_partial"`
	AggregateUnsupported int `json:"aggregate_unsupported"`

	// EffectHistogram counts effect family occurrences across the library.
	EffectHistogram map[string]int `json:"effect_histogram,omitempty"`
}

// score computes the percent compatibility from node counts. Partial nodes
// count half. An empty scene is fully compatible.
func score(supported, partial, unsupported int) float64 {
	total := supported + partial + unsupported
	if total == 0 {
		return 100
	}
	return (float64(supported) + 0.5*float64(partial)) / float64(total) * 100
}

// finalize sorts the scenes deterministically and fills the aggregates.
// Titles collate case-insensitively; the scene id breaks exact ties.
func (r *Report) finalize() {
	collator := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(r.Scenes, func(i, j int) bool {
		if cmp := collator.CompareString(r.Scenes[i].Title, r.Scenes[j].Title); cmp != 0 {
			return cmp < 0
		}
		return r.Scenes[i].SceneID < r.Scenes[j].SceneID
	})

	r.TotalScenes = len(r.Scenes)
	r.Failed = 0
	r.AggregateSupported, r.AggregatePartial, r.AggregateUnsupported = 0, 0, 0
	for _, scene := range r.Scenes {
		if scene.Err != "" {
			r.Failed++
			continue
		}
		r.AggregateSupported += scene.Supported
		r.AggregatePartial += scene.Partial
		r.AggregateUnsupported += scene.Unsupported
	}
}

// AggregatePercent is the library-wide compatibility score.
func (r *Report) AggregatePercent() float64 {
	return score(r.AggregateSupported, r.AggregatePartial, r.AggregateUnsupported)
}

package scanner

import "sort"

// RoadmapEntry ranks one unsupported effect family by how much native
// coverage would improve if it were implemented.
type RoadmapEntry struct {
	Family string `json:"family"`
	// Affected is the number of wallpapers containing the family.
	Affected int `json:"affected"`
	// EstimatedGain is the share of the library that would stop being
	// blocked by this family, in percent.
	EstimatedGain float64 `json:"estimated_gain"`
}

// BuildRoadmap ranks the unsupported effect families in a report by the
// number of wallpapers they block. top limits the result; top <= 0 returns
// every family.
func BuildRoadmap(report *Report, top int) []RoadmapEntry {
	affected := make(map[string]int)
	for _, scene := range report.Scenes {
		for _, family := range scene.UnsupportedFamilies {
			affected[family]++
		}
	}
	if len(affected) == 0 {
		return nil
	}

	entries := make([]RoadmapEntry, 0, len(affected))
	for family, count := range affected {
		entry := RoadmapEntry{Family: family, Affected: count}
		if report.TotalScenes > 0 {
			entry.EstimatedGain = float64(count) / float64(report.TotalScenes) * 100
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Affected != entries[j].Affected {
			return entries[i].Affected > entries[j].Affected
		}
		return entries[i].Family < entries[j].Family
	})
	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}
	return entries
}

package mpvpaper

import "strings"

// Profile selects the mpv option set traded between battery use and quality.
type Profile string

const (
	ProfilePerformance Profile = "performance"
	ProfileBalanced    Profile = "balanced"
	ProfileQuality     Profile = "quality"
)

// ParseProfile normalizes a configured profile name, defaulting to balanced.
func ParseProfile(input string) Profile {
	switch Profile(strings.ToLower(strings.TrimSpace(input))) {
	case ProfilePerformance:
		return ProfilePerformance
	case ProfileQuality:
		return ProfileQuality
	default:
		return ProfileBalanced
	}
}

// Options returns the mpv option string passed through mpvpaper's -o flag.
// Every profile loops forever; audio is governed separately.
func (p Profile) Options(muteAudio bool) string {
	opts := []string{"loop"}
	if muteAudio {
		opts = append(opts, "no-audio")
	}
	switch p {
	case ProfilePerformance:
		opts = append(opts, "hwdec=auto-safe", "profile=fast", "vd-lavc-fast", "scale=bilinear")
	case ProfileQuality:
		opts = append(opts, "hwdec=auto", "profile=high-quality")
	default:
		opts = append(opts, "hwdec=auto", "scale=bilinear")
	}
	return strings.Join(opts, " ")
}

package scenepkg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WallpaperType classifies a wallpaper root directory.
type WallpaperType string

const (
	TypeScene       WallpaperType = "scene"
	TypeVideo       WallpaperType = "video"
	TypeWeb         WallpaperType = "web"
	TypeApplication WallpaperType = "application"
	TypeUnknown     WallpaperType = "unknown"
)

// ParseWallpaperType maps a project.json type string to a WallpaperType.
func ParseWallpaperType(input string) WallpaperType {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "scene":
		return TypeScene
	case "video":
		return TypeVideo
	case "web":
		return TypeWeb
	case "application":
		return TypeApplication
	default:
		return TypeUnknown
	}
}

// Project holds the project.json sidecar that accompanies a wallpaper package.
type Project struct {
	Type       string          `json:"type"`
	File       string          `json:"file"`
	Title      string          `json:"title"`
	WorkshopID string          `json:"workshopid"`
	General    json.RawMessage `json:"general"`
}

// SupportsAudioProcessing reports whether the project declares audio-reactive support.
func (p *Project) SupportsAudioProcessing() bool {
	return p.generalBool("supportsaudioprocessing")
}

func (p *Project) generalBool(key string) bool {
	if p == nil || len(p.General) == 0 {
		return false
	}
	var general map[string]json.RawMessage
	if err := json.Unmarshal(p.General, &general); err != nil {
		return false
	}
	raw, ok := general[key]
	if !ok {
		return false
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}
	return value
}

// Descriptor is a decoded scene descriptor (scene.json or gifscene.json)
// together with its wallpaper metadata.
type Descriptor struct {
	Root      string
	SceneID   string
	EntryName string
	Scene     map[string]any
	Project   *Project
}

// Title returns the project title, falling back to the scene id.
func (d *Descriptor) Title() string {
	if d.Project != nil {
		if title := strings.TrimSpace(d.Project.Title); title != "" {
			return title
		}
	}
	return d.SceneID
}

// LoadProject reads project.json from the wallpaper root, when present.
func LoadProject(root string) (*Project, error) {
	path := filepath.Join(root, "project.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var project Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON in %s: %v", ErrCorruptPackage, path, err)
	}
	return &project, nil
}

// OpenScene opens the wallpaper at root and decodes its scene descriptor from
// the container. The descriptor entry is scene.json, falling back to
// gifscene.json for GIF scenes.
func OpenScene(root string) (*Container, *Descriptor, error) {
	pkgPath, ok := PickPackagePath(root)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no scene.pkg/gifscene.pkg in %s", ErrMissingAsset, root)
	}

	container, err := Open(pkgPath)
	if err != nil {
		return nil, nil, err
	}

	entryName := "scene.json"
	raw, err := container.ReadEntry(entryName)
	if err != nil {
		entryName = "gifscene.json"
		raw, err = container.ReadEntry(entryName)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: no scene descriptor in %s", ErrMissingAsset, pkgPath)
		}
	}

	var scene map[string]any
	if err := json.Unmarshal(raw, &scene); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid JSON in entry %s of %s: %v", ErrCorruptPackage, entryName, pkgPath, err)
	}

	project, err := LoadProject(root)
	if err != nil {
		return nil, nil, err
	}

	descriptor := &Descriptor{
		Root:      root,
		SceneID:   SceneID(root),
		EntryName: entryName,
		Scene:     scene,
		Project:   project,
	}
	return container, descriptor, nil
}

// SceneID derives the stable scene identifier from a wallpaper root path.
func SceneID(root string) string {
	base := filepath.Base(filepath.Clean(root))
	if base == "." || base == string(filepath.Separator) {
		return strings.ReplaceAll(root, string(filepath.Separator), "_")
	}
	return base
}

// PickPackagePath locates the packed container inside a wallpaper root.
func PickPackagePath(root string) (string, bool) {
	for _, name := range []string{"scene.pkg", "gifscene.pkg"} {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// ResolveRoot maps a wallpaper identifier to its directory. Existing paths are
// used verbatim; all-digit workshop ids are joined to the downloads root.
func ResolveRoot(wallpaper, downloadsRoot string) string {
	if _, err := os.Stat(wallpaper); err == nil {
		return wallpaper
	}
	if wallpaper != "" && strings.IndexFunc(wallpaper, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
		return filepath.Join(downloadsRoot, wallpaper)
	}
	return wallpaper
}

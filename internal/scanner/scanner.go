package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"scenewall/internal/config"
	"scenewall/internal/passgraph"
	"scenewall/internal/scenegraph"
	"scenewall/internal/scenepkg"
)

// Scanner walks the downloads root and grades every wallpaper it finds.
type Scanner struct {
	cfg    config.Config
	store  *Store
	logger *slog.Logger
}

// New returns a Scanner. store may be nil to disable the report cache.
func New(cfg config.Config, store *Store, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{cfg: cfg, store: store, logger: logger}
}

// Scan produces a compatibility report for the whole library. A cached report
// is returned when one exists, unless refresh forces a rescan. Individual
// scene failures are recorded in the report rather than aborting the scan.
func (s *Scanner) Scan(ctx context.Context, refresh bool) (*Report, error) {
	if !refresh && s.store != nil {
		cached, err := s.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			s.logger.Debug("using cached scan report", "generated_at", cached.GeneratedAt)
			return cached, nil
		}
	}

	roots, err := listWallpaperRoots(s.cfg.Paths.DownloadsRoot)
	if err != nil {
		return nil, err
	}
	s.logger.Info("scanning wallpaper library",
		"root", s.cfg.Paths.DownloadsRoot,
		"count", len(roots),
		"workers", s.cfg.Scanner.Workers)

	report := &Report{
		GeneratedAt:     time.Now().UTC(),
		EffectHistogram: make(map[string]int),
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.Scanner.Workers)
	for _, root := range roots {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			scene, families := s.scanOne(root)
			mu.Lock()
			report.Scenes = append(report.Scenes, scene)
			for _, family := range families {
				report.EffectHistogram[family]++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	report.finalize()
	if s.store != nil {
		if err := s.store.Save(ctx, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// scanOne grades a single wallpaper root. The second return value lists the
// effect family of every effect node, one entry per occurrence, for the
// library histogram.
func (s *Scanner) scanOne(root string) (SceneReport, []string) {
	sceneID := scenepkg.SceneID(root)
	scene := SceneReport{SceneID: sceneID, Title: sceneID, Tier: TierLimited}

	project, err := scenepkg.LoadProject(root)
	if err != nil {
		scene.Err = err.Error()
		return scene, nil
	}
	if project != nil {
		if title := project.Title; title != "" {
			scene.Title = title
		}
		scene.Type = string(scenepkg.ParseWallpaperType(project.Type))
	}

	switch scenepkg.ParseWallpaperType(scene.Type) {
	case scenepkg.TypeVideo:
		// Video wallpapers bypass the scene pipeline entirely; the file
		// plays as-is through the proxy transport.
		scene.Supported = 1
		scene.Percent = 100
		scene.Tier = TierExcellent
		scene.Capabilities = append(scene.Capabilities, "video-passthrough")
		return scene, nil
	case scenepkg.TypeWeb, scenepkg.TypeApplication:
		scene.Percent = 0
		scene.Tier = TierLimited
		scene.Issues = append(scene.Issues,
			fmt.Sprintf("%s wallpapers have no scene graph to render", scene.Type))
		return scene, nil
	}

	container, descriptor, err := scenepkg.OpenScene(root)
	if err != nil {
		scene.Err = err.Error()
		return scene, nil
	}
	scene.Title = descriptor.Title()

	graph, diagnostics, err := scenegraph.Build(container, descriptor)
	if err != nil {
		scene.Err = err.Error()
		return scene, nil
	}
	plan, err := passgraph.Compile(graph)
	if err != nil {
		scene.Err = err.Error()
		return scene, nil
	}

	scene.Supported, scene.Partial, scene.Unsupported = plan.SupportSummary()
	scene.Percent = score(scene.Supported, scene.Partial, scene.Unsupported)
	scene.Tier = tierFor(scene.Percent)
	for _, diag := range diagnostics {
		scene.Issues = append(scene.Issues, diag.Message)
	}

	var families []string
	unsupportedFamilies := make(map[string]struct{})
	graph.Walk(func(node *scenegraph.Node) {
		if node.Family == "" {
			return
		}
		families = append(families, node.Family)
		if node.Support == scenegraph.Unsupported {
			unsupportedFamilies[node.Family] = struct{}{}
		}
	})
	for family := range unsupportedFamilies {
		scene.UnsupportedFamilies = append(scene.UnsupportedFamilies, family)
	}
	sort.Strings(scene.UnsupportedFamilies)

	scene.Capabilities = capabilities(graph)
	return scene, families
}

// capabilities summarizes what the renderer can do with the scene.
func capabilities(graph *scenegraph.Graph) []string {
	var caps []string
	hasLayer, hasEffect, hasText := false, false, false
	graph.Walk(func(node *scenegraph.Node) {
		switch node.Kind {
		case scenegraph.KindLayer:
			hasLayer = true
		case scenegraph.KindEffect:
			hasEffect = true
		case scenegraph.KindTextElement:
			hasText = true
		}
	})
	if hasLayer {
		caps = append(caps, "layer-composite")
	}
	if hasEffect {
		caps = append(caps, "effects")
	}
	if hasText {
		caps = append(caps, "text-elements")
	}
	if len(graph.AudioReactive()) > 0 {
		caps = append(caps, "audio-overlay")
	}
	return caps
}

// listWallpaperRoots returns every directory directly under the downloads
// root, sorted by name.
func listWallpaperRoots(downloadsRoot string) ([]string, error) {
	entries, err := os.ReadDir(downloadsRoot)
	if err != nil {
		return nil, fmt.Errorf("read downloads root: %w", err)
	}
	var roots []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		roots = append(roots, filepath.Join(downloadsRoot, entry.Name()))
	}
	sort.Strings(roots)
	return roots, nil
}

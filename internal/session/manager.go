package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scenewall/internal/config"
	"scenewall/internal/fileutil"
	"scenewall/internal/logging"
	"scenewall/internal/native"
	"scenewall/internal/overlay"
	"scenewall/internal/passgraph"
	"scenewall/internal/proxy"
	"scenewall/internal/scenegraph"
	"scenewall/internal/scenepkg"
	"scenewall/internal/services"
	"scenewall/internal/services/mpvpaper"
	"scenewall/internal/services/spectrum"
)

// Synthesizer is the proxy transport the manager drives.
type Synthesizer interface {
	Synthesize(ctx context.Context, req proxy.Request) (*proxy.Result, error)
}

// Deps are the external integrations the manager orchestrates.
type Deps struct {
	Synthesizer Synthesizer
	Player      mpvpaper.Client
	Consumer    spectrum.Client
}

// PlayRequest asks for a wallpaper on a monitor.
type PlayRequest struct {
	// Wallpaper is a path or an all-digit workshop id.
	Wallpaper string
	Monitor   string
	// DryRun prepares and reports without spawning any process.
	DryRun bool
}

// Manager owns all active sessions in this process, at most one per monitor.
type Manager struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager constructs a session manager.
func NewManager(cfg *config.Config, deps Deps, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		sessions: map[string]*Session{},
	}
}

// Session returns the active session for a monitor, if any.
func (m *Manager) Session(monitor string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[monitor]
	return sess, ok
}

// Play resolves, prepares, and starts a wallpaper on a monitor. A monitor
// with an active session is reconfigured: the old session stops gracefully
// before the new one spawns.
func (m *Manager) Play(ctx context.Context, req PlayRequest) (*Session, error) {
	if req.Monitor == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "play", "monitor required", nil)
	}

	root := scenepkg.ResolveRoot(req.Wallpaper, m.cfg.Paths.DownloadsRoot)
	sceneID := scenepkg.SceneID(root)
	ctx = logging.WithScene(logging.WithMonitor(ctx, req.Monitor), sceneID)
	logger := logging.WithContext(ctx, m.logger)

	if existing, ok := m.Session(req.Monitor); ok && !existing.State().Terminal() {
		logger.Info("reconfiguring monitor", logging.String(logging.FieldState, existing.State().String()))
		if err := m.stop(ctx, existing, true); err != nil {
			return nil, err
		}
	}

	sess := &Session{
		ID:  uuid.New().String(),
		Key: Key{SceneID: sceneID, Monitor: req.Monitor},
		Dir: filepath.Join(m.cfg.Paths.CacheDir, "sessions", sceneID),
	}
	ctx = services.WithSessionID(ctx, sess.ID)

	if err := sess.transition(StatePreparing); err != nil {
		return nil, err
	}
	if err := m.acquireLock(sess); err != nil {
		return nil, err
	}

	prepared, err := m.prepare(ctx, root, sess)
	if err != nil {
		sess.release()
		_ = sess.transition(StateStopped)
		return nil, err
	}
	sess.Prepared = prepared

	if req.DryRun {
		supported, partial, unsupported := prepared.Plan.SupportSummary()
		logger.Info("dry run: resolved plan",
			logging.String("title", prepared.Graph.Title),
			logging.Int("passes", len(prepared.Plan.Passes)),
			logging.Int("supported", supported),
			logging.Int("partial", partial),
			logging.Int("unsupported", unsupported),
			logging.Bool("overlay", prepared.Overlay.Enabled))
		sess.release()
		if err := sess.transition(StateIdle); err != nil {
			return nil, err
		}
		return sess, nil
	}

	// Register before spawning so the crash watchdog can always find and
	// forget the session.
	m.mu.Lock()
	m.sessions[req.Monitor] = sess
	m.mu.Unlock()

	if m.cfg.Native.Enabled {
		err = m.startNative(ctx, sess, logger)
	} else {
		err = m.startProxy(ctx, sess, logger)
	}
	if err != nil {
		sess.release()
		_ = sess.transition(StateStopped)
		m.forget(sess)
		return nil, err
	}

	m.applyOverlay(ctx, sess, logger)
	return sess, nil
}

// Stop gracefully ends the session on a monitor.
func (m *Manager) Stop(ctx context.Context, monitor string) error {
	sess, ok := m.Session(monitor)
	if !ok || sess.State().Terminal() {
		return fmt.Errorf("%w: monitor %s", ErrNoSession, monitor)
	}
	return m.stop(ctx, sess, false)
}

// StopAll ends every active session; the first error wins but all sessions
// are attempted.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.Unlock()

	var first error
	for _, sess := range sessions {
		if sess.State().Terminal() {
			continue
		}
		if err := m.stop(ctx, sess, false); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// acquireLock takes the per-scene flock so a second scenewall process cannot
// drive the same scene directory.
func (m *Manager) acquireLock(sess *Session) error {
	if err := os.MkdirAll(sess.Dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	lock := flock.New(filepath.Join(sess.Dir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: scene %s", ErrSessionBusy, sess.Key.SceneID)
	}
	sess.lock = lock
	return nil
}

// prepare runs the decode→build→compile pipeline and overlay planning
// concurrently. Everything resolves before any process spawns.
func (m *Manager) prepare(ctx context.Context, root string, sess *Session) (*Prepared, error) {
	prepared := &Prepared{Root: root}
	graphCh := make(chan *scenegraph.Graph, 1)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(graphCh)
		container, descriptor, err := scenepkg.OpenScene(root)
		if err != nil {
			return err
		}
		prepared.Project = descriptor.Project

		graph, diags, err := scenegraph.Build(container, descriptor)
		if err != nil {
			return err
		}
		prepared.Graph = graph
		prepared.Diagnostics = diags
		graphCh <- graph

		plan, err := passgraph.Compile(graph)
		if err != nil {
			return err
		}
		prepared.Plan = plan
		return nil
	})
	group.Go(func() error {
		var graph *scenegraph.Graph
		select {
		case graph = <-graphCh:
		case <-groupCtx.Done():
			return groupCtx.Err()
		}
		if graph == nil {
			// Builder failed; its error carries the cause.
			return nil
		}
		prepared.Overlay = overlay.BuildPlan(graph)
		if !m.cfg.Overlay.Enabled {
			return nil
		}
		_, err := overlay.WriteArtifacts(sess.Dir, prepared.Overlay)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return prepared, nil
}

// startProxy synthesizes the proxy clip and launches the player.
func (m *Manager) startProxy(ctx context.Context, sess *Session, logger *slog.Logger) error {
	if err := sess.transition(StateProxyBuilding); err != nil {
		return err
	}
	sess.Transport = "proxy-video"
	ctx = services.WithTransport(ctx, sess.Transport)

	result, err := m.deps.Synthesizer.Synthesize(ctx, proxy.Request{
		SceneID: sess.Key.SceneID,
		Root:    sess.Prepared.Root,
		Project: sess.Prepared.Project,
		Graph:   sess.Prepared.Graph,
		OutDir:  sess.Dir,
	})
	if err != nil {
		return err
	}
	sess.ProxyPath = result.ProxyPath
	for _, diag := range result.Diagnostics {
		logger.Warn("synthesis diagnostic", logging.String("detail", diag))
	}

	// The player outlives the Play request: termination belongs to Stop,
	// not to the caller's context (or its signal handler).
	player, err := m.deps.Player.Launch(context.WithoutCancel(ctx), mpvpaper.LaunchSpec{
		Monitor:   sess.Key.Monitor,
		VideoPath: result.ProxyPath,
		Profile:   mpvpaper.ParseProfile(m.cfg.Playback.Profile),
		MuteAudio: result.Muted,
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "playback", "launch", "", err)
	}
	sess.player = player
	if err := sess.transition(StatePlaying); err != nil {
		return err
	}
	logger.Info("playing", logging.String(logging.FieldSession, sess.ID), logging.Int("pid", player.PID()))

	go m.watch(sess, logger)
	return nil
}

// watch turns an unrequested player exit into an abnormal stop.
func (m *Manager) watch(sess *Session, logger *slog.Logger) {
	err := <-sess.player.Wait()
	if sess.wasStopRequested() {
		return
	}

	sess.setError(fmt.Errorf("%w: monitor %s: %v", ErrProcessCrashed, sess.Key.Monitor, err))
	sess.release()
	_ = sess.transition(StateStopped)
	m.forget(sess)
	logger.Error("playback process crashed", logging.Error(sess.Err()))
}

// startNative runs the experimental direct composition loop, publishing the
// latest frame into the session directory.
func (m *Manager) startNative(ctx context.Context, sess *Session, logger *slog.Logger) error {
	if err := sess.transition(StateNativeRendering); err != nil {
		return err
	}
	sess.Transport = "native"

	sources, err := m.extractNativeSources(sess)
	if err != nil {
		return err
	}
	renderer := native.NewRenderer(sess.Prepared.Plan, sources, m.cfg.Native.FPS, logger)
	logger.Info("native rendering", logging.Bool("accelerated", native.Accelerated()))

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess.cancel = cancel
	framePath := filepath.Join(sess.Dir, "native-frame.png")
	go func() {
		err := renderer.Run(loopCtx, func(frame image.Image) error {
			var buf bytes.Buffer
			if err := png.Encode(&buf, frame); err != nil {
				return err
			}
			return fileutil.WriteFileAtomic(framePath, buf.Bytes(), 0o644)
		})
		if err == nil || loopCtx.Err() != nil {
			return
		}
		sess.setError(err)
		sess.release()
		_ = sess.transition(StateStopped)
		m.forget(sess)
		logger.Error("native render loop failed", logging.Error(err))
	}()

	return sess.transition(StatePlaying)
}

// extractNativeSources pulls the decodable texture references out of the
// package so the renderer can load them. Undecodable formats are skipped;
// the renderer reports them as partial renders.
func (m *Manager) extractNativeSources(sess *Session) (map[string]string, error) {
	container, _, err := scenepkg.OpenScene(sess.Prepared.Root)
	if err != nil {
		return nil, err
	}
	destRoot := filepath.Join(sess.Dir, "assets")

	sources := map[string]string{}
	var firstErr error
	sess.Prepared.Graph.Walk(func(node *scenegraph.Node) {
		for _, ref := range node.TextureRefs {
			if _, ok := sources[ref]; ok {
				continue
			}
			path, err := materializeTexture(container, ref, destRoot)
			if err != nil {
				if errors.Is(err, scenepkg.ErrUnsupportedTexture) {
					continue
				}
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if path != "" {
				sources[ref] = path
			}
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return sources, nil
}

// materializeTexture writes one texture reference under destRoot as a file
// the renderer can load. Plain image entries extract as-is; .tex blobs are
// unwrapped first. Video payloads yield no path, the renderer has no frame
// source for them.
func materializeTexture(container *scenepkg.Container, ref, destRoot string) (string, error) {
	if decodableImage(ref) {
		return container.ExtractEntry(ref, destRoot)
	}
	if strings.ToLower(filepath.Ext(ref)) != ".tex" {
		return "", nil
	}
	raw, err := container.ReadEntry(ref)
	if err != nil {
		return "", err
	}
	payload, err := scenepkg.DecodeTexture(ref, raw)
	if err != nil {
		return "", err
	}
	if !payload.IsImage() {
		return "", nil
	}
	dest := filepath.Join(destRoot, filepath.FromSlash(strings.TrimSuffix(ref, filepath.Ext(ref))+"."+payload.Ext))
	if err := fileutil.WriteFileAtomic(dest, payload.Data, 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

func decodableImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

// applyOverlay hands the overlay artifacts to the external visualizer when
// auto-apply is on. Failures are logged, never fatal to playback.
func (m *Manager) applyOverlay(ctx context.Context, sess *Session, logger *slog.Logger) {
	cfg := m.cfg.Overlay
	if !cfg.Enabled || !cfg.AutoApply || !sess.Prepared.Overlay.Enabled || m.deps.Consumer == nil {
		return
	}
	files, err := overlay.ArtifactFiles(sess.Prepared.Overlay)
	if err != nil {
		logger.Warn("overlay artifacts unavailable", logging.Error(err))
		return
	}
	if _, err := m.deps.Consumer.Install(ctx, files); err != nil {
		logger.Warn("overlay auto-apply failed", logging.Error(err))
		return
	}
	reloaded, err := m.deps.Consumer.Reload(ctx)
	if err != nil && services.Retryable(err) {
		logger.Warn("overlay reload failed, retrying", logging.Error(err))
		reloaded, err = m.deps.Consumer.Reload(ctx)
	}
	if err != nil {
		logger.Warn("overlay reload failed", logging.Error(err))
	} else if !reloaded {
		logger.Info("overlay installed; visualizer not running")
	}
}

// stop gracefully ends one session. reconfigure marks the Reconfiguring
// detour a duplicate play takes.
func (m *Manager) stop(ctx context.Context, sess *Session, reconfigure bool) error {
	if reconfigure {
		if err := sess.transition(StateReconfiguring); err != nil {
			return err
		}
	}
	if err := sess.transition(StateStopping); err != nil {
		return err
	}
	sess.markStopRequested()

	var stopErr error
	if sess.player != nil {
		grace := time.Duration(m.cfg.Playback.StopGraceSec) * time.Second
		if grace <= 0 {
			grace = 5 * time.Second
		}
		stopErr = sess.player.Stop(ctx, grace)
	}
	sess.release()
	if err := sess.transition(StateStopped); err != nil {
		return err
	}
	m.forget(sess)
	return stopErr
}

func (m *Manager) forget(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.sessions[sess.Key.Monitor]; ok && current == sess {
		delete(m.sessions, sess.Key.Monitor)
	}
}

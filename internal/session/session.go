package session

import (
	"sync"

	"github.com/gofrs/flock"

	"scenewall/internal/overlay"
	"scenewall/internal/passgraph"
	"scenewall/internal/scenegraph"
	"scenewall/internal/scenepkg"
	"scenewall/internal/services/mpvpaper"
)

// Key identifies a render session: one scene on one monitor.
type Key struct {
	SceneID string
	Monitor string
}

// Prepared is everything resolved during Preparing, before any process
// spawns.
type Prepared struct {
	Root        string
	Project     *scenepkg.Project
	Graph       *scenegraph.Graph
	Plan        *passgraph.Plan
	Overlay     overlay.Plan
	Diagnostics []scenegraph.Diagnostic
}

// Session is one supervised render session. All state moves go through
// transition; nothing outside this package mutates a session.
type Session struct {
	ID  string
	Key Key
	// Dir is the per-scene working directory under the cache root.
	Dir string

	Prepared *Prepared
	// Transport is "proxy-video" or "native".
	Transport string
	// ProxyPath is set once a proxy clip exists.
	ProxyPath string

	mu    sync.Mutex
	state State
	// err records the abnormal termination cause, if any.
	err error

	lock   *flock.Flock
	player *mpvpaper.Process
	cancel func()
	// stopRequested distinguishes an asked-for player exit from a crash.
	stopRequested bool
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the abnormal termination cause, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// transition moves the session to next, enforcing the lifecycle table.
func (s *Session) transition(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !canTransition(s.state, next) {
		return invalidTransition(s.state, next)
	}
	s.state = next
	return nil
}

func (s *Session) markStopRequested() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRequested = true
}

func (s *Session) wasStopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// release drops the scene lock and cancels any render loop. Idempotent.
func (s *Session) release() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
		s.lock = nil
	}
}

package session

import (
	"errors"
	"fmt"

	"scenewall/internal/services"
)

var (
	// ErrProcessCrashed reports that a supervised playback process exited
	// without being asked to. The session ends in an abnormal Stopped.
	ErrProcessCrashed = errors.New("playback process crashed")
	// ErrSessionBusy reports that another process holds the session lock
	// for the same scene and monitor.
	ErrSessionBusy = errors.New("session already active in another process")
	// ErrNoSession reports a stop request for a monitor with no session.
	// It classifies as a not-found failure for callers deciding exit codes.
	ErrNoSession = fmt.Errorf("%w: no active session", services.ErrNotFound)
)

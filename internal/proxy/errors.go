package proxy

import "errors"

var (
	// ErrEncodeFailure marks a failed ffmpeg encode. Fatal to synthesis.
	ErrEncodeFailure = errors.New("proxy encode failure")
	// ErrNoLoopPointFound reports that no frame pair was similar enough for
	// a seamless loop. Non-fatal: the clip loops with a hard cut.
	ErrNoLoopPointFound = errors.New("no seamless loop point found")
)

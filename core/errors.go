package orchestration

import "errors"

var (
	// ErrDeviceUnavailable marks audio hardware loss. On the output path it
	// is fatal: the session moves to the error state and ends.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrAlreadyRunning is returned by Run after the first call.
	ErrAlreadyRunning = errors.New("orchestrator already running")
)

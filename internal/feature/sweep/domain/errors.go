// Package domain defines domain-level errors for the sweep feature.
package domain

import "errors"

var (
	// ErrCheckpointNotFound indicates that no checkpoint exists at the
	// configured location. The runner treats this as "start fresh".
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrFatalStopped indicates that the runner gave up after transport
	// failures persisted through an escalation cycle. The final checkpoint
	// has been flushed, so the next invocation resumes correctly.
	ErrFatalStopped = errors.New("sweep stopped after persistent transport failures")
)

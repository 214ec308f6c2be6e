package session

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned by Start while a session is active or its outcome
	// has not been acknowledged.
	ErrBusy = errors.New("a session is already active")

	// ErrNotRecording is returned by Stop outside the recording state.
	ErrNotRecording = errors.New("not recording")

	// ErrNoOutcome is returned by Acknowledge when there is nothing to acknowledge.
	ErrNoOutcome = errors.New("no finished session to acknowledge")

	// ErrEmptyTranscript means nothing was recognized before stop.
	ErrEmptyTranscript = errors.New("empty transcript: nothing was recognized")

	errStreamEnded = errors.New("recognition stream ended unexpectedly")
)

// PreconditionError blocks a session start. The controller stays idle.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "cannot start session: " + e.Reason
}

// StreamError is a recognition failure during recording.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("recognition stream failed: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// PersistenceError is a failed transcript, result or report write.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

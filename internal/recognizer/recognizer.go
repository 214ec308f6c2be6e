// Package recognizer streams microphone speech to a recognition backend and
// delivers its interim and final results as transcript events.
package recognizer

import (
	"context"

	"github.com/jwulff/scribe/internal/transcript"
)

// Recognizer runs one recognition stream per session.
//
// Stream blocks until ctx is cancelled (cooperative stop, returns nil after
// flushing pending finals) or the stream fails (returns the error). It never
// blocks indefinitely on out once ctx is done.
type Recognizer interface {
	Stream(ctx context.Context, out chan<- transcript.SpeechEvent) error
}

// Func adapts a function to Recognizer.
type Func func(ctx context.Context, out chan<- transcript.SpeechEvent) error

// Stream calls f.
func (f Func) Stream(ctx context.Context, out chan<- transcript.SpeechEvent) error {
	return f(ctx, out)
}

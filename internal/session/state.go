// Package session runs the lifecycle of one consultation recording: it owns
// the recognition stream, the transcript reconciler, the transcript flush and
// the extraction and report steps that follow a stop.
package session

import (
	"time"

	"github.com/jwulff/scribe/internal/doctor"
	"github.com/jwulff/scribe/internal/extract"
	"github.com/jwulff/scribe/internal/transcript"
)

// State is the controller's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
	StateExtracting
	StateDone
	StateError
)

var stateNames = [...]string{"idle", "recording", "stopping", "extracting", "done", "error"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Busy reports whether a session occupies the controller.
func (s State) Busy() bool {
	return s == StateRecording || s == StateStopping || s == StateExtracting
}

// Session is the context of one recording, created at start and discarded
// when its outcome is acknowledged.
type Session struct {
	ID             string
	Doctor         doctor.Doctor
	PatientName    string
	StartedAt      time.Time
	TranscriptPath string
}

// Update is a notification from the controller to the foreground loop.
type Update interface {
	update()
}

// StateChanged reports a transition. Reason is set for StateError.
type StateChanged struct {
	From, To State
	Reason   string
}

// Tick reports the elapsed recording time, once per tick interval.
type Tick struct {
	Elapsed time.Duration
}

// TranscriptChanged carries the reconciled lines after every applied event.
type TranscriptChanged struct {
	Lines []transcript.Line
}

// Completed reports a generated report. It precedes StateChanged to done.
type Completed struct {
	Session    Session
	Result     *extract.Result
	ResultPath string
	ReportPath string
}

// Failed reports the error behind a transition to StateError.
type Failed struct {
	Session Session
	Err     error
}

func (StateChanged) update()      {}
func (Tick) update()              {}
func (TranscriptChanged) update() {}
func (Completed) update()         {}
func (Failed) update()            {}

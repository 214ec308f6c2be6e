package app

import (
	"github.com/jwulff/scribe/internal/doctor"
	"github.com/jwulff/scribe/internal/session"
)

// SessionUpdateMsg wraps a notification from the session controller.
type SessionUpdateMsg struct {
	Update session.Update
}

// StartResultMsg carries the result of a start request.
type StartResultMsg struct {
	Session session.Session
	Err     error
}

// StopResultMsg carries the result of a stop request.
type StopResultMsg struct {
	Err error
}

// AcknowledgedMsg is sent after a finished session was returned to idle.
type AcknowledgedMsg struct {
	Err error
}

// PatientHistoryMsg carries the patient history after a save.
type PatientHistoryMsg struct {
	History []string
	Err     error
}

// DoctorsSavedMsg is sent after the doctor directory was written.
type DoctorsSavedMsg struct {
	Doctors doctor.Directory
	Name    string
	Err     error
}

// SettingSavedMsg reports a failed settings write; success is silent.
type SettingSavedMsg struct {
	Err error
}

// ReportOpenedMsg is sent after the system viewer was asked to open a report.
type ReportOpenedMsg struct {
	Path string
	Err  error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

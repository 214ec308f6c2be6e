// Package db keeps a SQLite journal of recording sessions and their outcomes.
package db

import "time"

// Session statuses.
const (
	StatusActive = "active"
	StatusDone   = "done"
	StatusError  = "error"
)

// Session is one journaled doctor-patient recording.
type Session struct {
	ID             string
	Doctor         string
	Specialization string
	Patient        string
	StartedAt      time.Time
	EndedAt        *time.Time
	Status         string
	Reason         string
	TranscriptPath string
	ResultPath     string
	ReportPath     string
	CreatedAt      time.Time
}

// Outcome is the terminal state written when a session finishes.
type Outcome struct {
	Status     string
	Reason     string
	ResultPath string
	ReportPath string
	EndedAt    time.Time
}

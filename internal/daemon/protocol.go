// Package daemon provides the client and protocol types for a local speech
// recognition daemon reached over a Unix socket using NDJSON.
package daemon

// Event names streamed by the daemon.
const (
	EventPartial = "partial"
	EventSegment = "segment"
	EventStatus  = "status"
	EventError   = "error"
)

// Command is sent from a client to the daemon.
type Command struct {
	Cmd             string   `json:"cmd"`
	Locale          string   `json:"locale,omitempty"`
	Device          string   `json:"device,omitempty"`
	Diarize         *bool    `json:"diarize,omitempty"`
	MaxSpeakerCount int      `json:"maxSpeakers,omitempty"`
	Events          []string `json:"events,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK        bool     `json:"ok"`
	SessionID string   `json:"sessionId,omitempty"`
	Recording *bool    `json:"recording,omitempty"`
	Devices   []string `json:"devices,omitempty"`
	Error     string   `json:"error,omitempty"`
	Status    string   `json:"status,omitempty"`
	Device    string   `json:"device,omitempty"`
}

// Word is one diarized word of a segment.
type Word struct {
	Word    string `json:"word"`
	Speaker int    `json:"speaker"`
}

// Event is streamed from the daemon to subscribed clients.
type Event struct {
	Event          string `json:"event"`
	Text           string `json:"text,omitempty"`
	Speaker        *int   `json:"speaker,omitempty"`
	Words          []Word `json:"words,omitempty"`
	SessionID      string `json:"sessionId,omitempty"`
	SequenceNumber *int   `json:"sequenceNumber,omitempty"`
	Message        string `json:"message,omitempty"`
	Transient      *bool  `json:"transient,omitempty"`
	Recording      *bool  `json:"recording,omitempty"`
}

// BoolPtr returns a pointer to a bool value. Convenience for building commands.
func BoolPtr(b bool) *bool { return &b }

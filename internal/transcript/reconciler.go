package transcript

import "strings"

// Role identifies who a transcript line belongs to.
type Role int

const (
	RoleUnknown Role = iota
	RoleDoctor
	RolePatient
	RoleInterim
)

// Label is the prefix written before a line of this role, if any.
func (r Role) Label() string {
	switch r {
	case RoleDoctor:
		return "Врач"
	case RolePatient:
		return "Пациент"
	case RoleInterim:
		return "Промежуточно"
	}
	return ""
}

// Line is one entry of the transcript buffer.
type Line struct {
	Role Role
	Text string
}

// String renders the line with its role prefix.
func (l Line) String() string {
	if label := l.Role.Label(); label != "" {
		return label + ": " + l.Text
	}
	return l.Text
}

// Reconciler owns the transcript buffer for one session. At most one
// interim line exists and it is always last. A Reconciler is not safe for
// concurrent use; the recording consumer is its only writer.
type Reconciler struct {
	lines []Line
}

// NewReconciler returns an empty transcript buffer.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Apply folds one speech event into the buffer. Final events are not
// deduplicated; callers deliver each one exactly once.
func (r *Reconciler) Apply(ev SpeechEvent) {
	if !ev.IsFinal {
		if strings.TrimSpace(ev.Text) == "" {
			return
		}
		r.dropInterim()
		r.lines = append(r.lines, Line{Role: RoleInterim, Text: ev.Text})
		return
	}

	r.dropInterim()

	if len(ev.Words) > 0 {
		for u := range Attribute(ev.Words) {
			if u.Text == "" {
				continue
			}
			r.lines = append(r.lines, Line{Role: RoleForTag(u.SpeakerTag), Text: u.Text})
		}
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	role := RoleUnknown
	if ev.Speaker != nil {
		role = RoleForTag(*ev.Speaker)
	}
	r.lines = append(r.lines, Line{Role: role, Text: text})
}

func (r *Reconciler) dropInterim() {
	if n := len(r.lines); n > 0 && r.lines[n-1].Role == RoleInterim {
		r.lines = r.lines[:n-1]
	}
}

// Lines returns a copy of the buffer, including a trailing interim line.
func (r *Reconciler) Lines() []Line {
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Interim returns the pending interim text, if any.
func (r *Reconciler) Interim() (string, bool) {
	if n := len(r.lines); n > 0 && r.lines[n-1].Role == RoleInterim {
		return r.lines[n-1].Text, true
	}
	return "", false
}

// Len is the number of lines, interim included.
func (r *Reconciler) Len() int {
	return len(r.lines)
}

// SnapshotText joins every non-interim line, one per output line.
func (r *Reconciler) SnapshotText() string {
	var b strings.Builder
	for _, l := range r.lines {
		if l.Role == RoleInterim {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.String())
	}
	return b.String()
}

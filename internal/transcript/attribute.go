package transcript

import (
	"iter"
	"strings"
)

// Utterance is a contiguous run of words spoken by one speaker.
type Utterance struct {
	SpeakerTag int
	Text       string
}

// Attribute groups a word burst into same-speaker runs, in order. A run is
// emitted when the speaker tag changes and once more after the last word.
// An empty burst yields nothing.
func Attribute(words []WordTag) iter.Seq[Utterance] {
	return func(yield func(Utterance) bool) {
		if len(words) == 0 {
			return
		}

		current := words[0].SpeakerTag
		var run strings.Builder
		run.WriteString(words[0].Word)

		for _, w := range words[1:] {
			if w.SpeakerTag != current {
				if !yield(Utterance{SpeakerTag: current, Text: strings.TrimSpace(run.String())}) {
					return
				}
				current = w.SpeakerTag
				run.Reset()
				run.WriteString(w.Word)
				continue
			}
			run.WriteByte(' ')
			run.WriteString(w.Word)
		}

		yield(Utterance{SpeakerTag: current, Text: strings.TrimSpace(run.String())})
	}
}

// RoleForTag folds a vendor speaker tag onto the two conversation parties:
// odd tags are the doctor, even tags the patient. Only valid for two
// participants; a third speaker aliases onto one of the two roles.
func RoleForTag(tag int) Role {
	party := ((tag-1)%2+2)%2 + 1
	if party == 1 {
		return RoleDoctor
	}
	return RolePatient
}

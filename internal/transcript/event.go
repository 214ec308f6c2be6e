// Package transcript reconciles a live stream of interim and final speech
// recognition results into an append-only, speaker-attributed transcript.
package transcript

// WordTag is a single recognized word with the vendor speaker tag it was
// attributed to. Tags are 1-based.
type WordTag struct {
	Word       string `json:"word"`
	SpeakerTag int    `json:"speaker"`
}

// SpeechEvent is one result from the recognition service. Interim results
// are provisional; final results are never revised.
type SpeechEvent struct {
	Text    string
	IsFinal bool

	// Speaker is the tag for the whole result when the vendor attributes
	// results rather than words.
	Speaker *int

	// Words carries the diarized burst of a final result, if any.
	Words []WordTag
}

// Interim builds a provisional event.
func Interim(text string) SpeechEvent {
	return SpeechEvent{Text: text}
}

// Final builds a final event without speaker information.
func Final(text string) SpeechEvent {
	return SpeechEvent{Text: text, IsFinal: true}
}

// Diarized builds a final event from a word-level speaker burst.
func Diarized(text string, words []WordTag) SpeechEvent {
	return SpeechEvent{Text: text, IsFinal: true, Words: words}
}

package recognizer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwulff/scribe/internal/transcript"
)

// fakeMic produces silence until closed.
type fakeMic struct {
	mu     sync.Mutex
	closed bool
}

func (m *fakeMic) Read(b []byte) (int, error) {
	time.Sleep(5 * time.Millisecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	clear(b)
	return len(b), nil
}

func (m *fakeMic) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func micSource(ctx context.Context) (io.ReadCloser, error) {
	return &fakeMic{}, nil
}

const (
	interimMsg  = `{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"что вас"}]}}`
	finalMsg    = `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"что вас беспокоит","words":[{"word":"что","punctuated_word":"Что","speaker":0},{"word":"вас","speaker":0},{"word":"беспокоит","punctuated_word":"беспокоит?","speaker":0}]}]}}`
	trailingMsg = `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"горло болит","words":[{"word":"горло","speaker":1},{"word":"болит","speaker":1}]}]}}`
	metadataMsg = `{"type":"Metadata","request_id":"abc"}`
)

// deepgramServer fakes the listen endpoint. After the first audio frame it
// sends an interim and a final result; on CloseStream it flushes one more
// final and closes normally unless hang is set.
func deepgramServer(t *testing.T, hang bool) (*httptest.Server, <-chan *http.Request) {
	t.Helper()
	reqs := make(chan *http.Request, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- r
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sent := false
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.BinaryMessage && !sent {
				sent = true
				conn.WriteMessage(websocket.TextMessage, []byte(metadataMsg))
				conn.WriteMessage(websocket.TextMessage, []byte(interimMsg))
				conn.WriteMessage(websocket.TextMessage, []byte(finalMsg))
			}
			if mt == websocket.TextMessage && strings.Contains(string(msg), "CloseStream") {
				if hang {
					continue
				}
				conn.WriteMessage(websocket.TextMessage, []byte(trailingMsg))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextEvent(t *testing.T, out <-chan transcript.SpeechEvent) transcript.SpeechEvent {
	t.Helper()
	select {
	case ev := <-out:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for speech event")
	}
	return transcript.SpeechEvent{}
}

func TestDeepgramStreamAndDrain(t *testing.T) {
	srv, reqs := deepgramServer(t, false)
	rec := NewDeepgram(DeepgramConfig{
		APIKey:   "dg-key",
		Model:    "nova-2",
		Language: "ru",
		URL:      wsURL(srv),
		Source:   micSource,
	})

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan transcript.SpeechEvent, 16)
	done := make(chan error, 1)
	go func() { done <- rec.Stream(ctx, out) }()

	req := <-reqs
	if got := req.Header.Get("Authorization"); got != "Token dg-key" {
		t.Errorf("Authorization = %q", got)
	}
	q := req.URL.Query()
	for key, want := range map[string]string{
		"model": "nova-2", "language": "ru", "encoding": "linear16", "sample_rate": "16000",
		"channels": "1", "diarize": "true", "interim_results": "true", "punctuate": "true",
	} {
		if q.Get(key) != want {
			t.Errorf("query %s = %q, want %q", key, q.Get(key), want)
		}
	}

	ev := nextEvent(t, out)
	if ev.IsFinal || ev.Text != "что вас" {
		t.Errorf("first event = %+v, want interim", ev)
	}
	ev = nextEvent(t, out)
	if !ev.IsFinal || len(ev.Words) != 3 || ev.Words[0].Word != "Что" || ev.Words[0].SpeakerTag != 1 {
		t.Errorf("second event = %+v", ev)
	}

	cancel()
	ev = nextEvent(t, out)
	if !ev.IsFinal || len(ev.Words) != 2 || ev.Words[0].SpeakerTag != 2 {
		t.Errorf("trailing event = %+v", ev)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stream = %v, want nil after stop", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Stream did not return after stop")
	}
}

func TestDeepgramDrainTimeout(t *testing.T) {
	srv, _ := deepgramServer(t, true)
	rec := NewDeepgram(DeepgramConfig{URL: wsURL(srv), Source: micSource, DrainTimeout: 100 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan transcript.SpeechEvent, 16)
	done := make(chan error, 1)
	go func() { done <- rec.Stream(ctx, out) }()

	nextEvent(t, out)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stream = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("drain was not bounded")
	}
}

func TestDeepgramServerDrop(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.ReadMessage()
		conn.Close()
	}))
	defer srv.Close()

	rec := NewDeepgram(DeepgramConfig{URL: wsURL(srv), Source: micSource})
	err := rec.Stream(context.Background(), make(chan transcript.SpeechEvent, 16))
	if err == nil {
		t.Fatal("expected error when the server drops the stream")
	}
	if !strings.HasPrefix(err.Error(), "deepgram:") {
		t.Errorf("err = %v", err)
	}
}

func TestDeepgramConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	rec := NewDeepgram(DeepgramConfig{URL: wsURL(srv), Source: micSource})
	err := rec.Stream(context.Background(), make(chan transcript.SpeechEvent, 1))
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want connect error with status", err)
	}
}

func TestDeepgramResponseEvent(t *testing.T) {
	speaker := func(n int) *int { return &n }
	tests := []struct {
		name  string
		resp  deepgramResponse
		ok    bool
		final bool
		text  string
		tags  []int
	}{
		{name: "metadata skipped", resp: deepgramResponse{Type: "Metadata"}},
		{name: "empty interim skipped", resp: results(false, "")},
		{name: "interim", resp: results(false, "добрый"), ok: true, text: "добрый"},
		{name: "empty final kept", resp: results(true, ""), ok: true, final: true},
		{name: "final without speakers", resp: results(true, "добрый день", "добрый", "день"), ok: true, final: true, text: "добрый день"},
		{name: "diarized final", resp: results(true, "добрый день", "добрый", "день"), ok: true, final: true, text: "добрый день", tags: []int{3, 1}},
	}
	tests[5].resp.Channel.Alternatives[0].Words[0].Speaker = speaker(2)
	tests[5].resp.Channel.Alternatives[0].Words[1].Speaker = speaker(0)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := tt.resp.event()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if ev.IsFinal != tt.final || ev.Text != tt.text {
				t.Errorf("event = %+v", ev)
			}
			if len(ev.Words) != len(tt.tags) {
				t.Fatalf("words = %+v, want tags %v", ev.Words, tt.tags)
			}
			for i, tag := range tt.tags {
				if ev.Words[i].SpeakerTag != tag {
					t.Errorf("word %d tag = %d, want %d", i, ev.Words[i].SpeakerTag, tag)
				}
			}
		})
	}
}

func results(final bool, text string, words ...string) deepgramResponse {
	var r deepgramResponse
	r.Type = "Results"
	r.IsFinal = final
	alt := deepgramAlternative{Transcript: text}
	for _, w := range words {
		alt.Words = append(alt.Words, deepgramWord{Word: w})
	}
	r.Channel.Alternatives = []deepgramAlternative{alt}
	return r
}

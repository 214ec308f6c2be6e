package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwulff/scribe/internal/audio"
	"github.com/jwulff/scribe/internal/transcript"
)

const deepgramWSURL = "wss://api.deepgram.com/v1/listen"

// DeepgramConfig holds configuration for the Deepgram streaming backend.
type DeepgramConfig struct {
	APIKey   string
	Model    string // e.g. "nova-2"
	Language string // e.g. "ru"
	URL      string // defaults to the public endpoint

	Source        audio.Source
	ChunkDuration time.Duration // audio per websocket frame, default 100ms
	DrainTimeout  time.Duration // wait for trailing finals after stop, default 2s
}

// Deepgram streams linear16 PCM to Deepgram with diarization enabled.
type Deepgram struct {
	cfg    DeepgramConfig
	dialer *websocket.Dialer
}

// deepgramResponse represents a Deepgram WebSocket response.
type deepgramResponse struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []deepgramAlternative `json:"alternatives"`
	} `json:"channel"`
	IsFinal bool `json:"is_final"`
}

type deepgramAlternative struct {
	Transcript string         `json:"transcript"`
	Words      []deepgramWord `json:"words"`
}

type deepgramWord struct {
	Word           string `json:"word"`
	PunctuatedWord string `json:"punctuated_word"`
	Speaker        *int   `json:"speaker"`
}

// NewDeepgram creates a Deepgram recognizer.
func NewDeepgram(cfg DeepgramConfig) *Deepgram {
	if cfg.URL == "" {
		cfg.URL = deepgramWSURL
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = 100 * time.Millisecond
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 2 * time.Second
	}
	return &Deepgram{cfg: cfg, dialer: websocket.DefaultDialer}
}

func (d *Deepgram) listenURL() string {
	q := url.Values{}
	q.Set("model", d.cfg.Model)
	q.Set("language", d.cfg.Language)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	q.Set("channels", strconv.Itoa(audio.Channels))
	q.Set("punctuate", "true")
	q.Set("diarize", "true")
	q.Set("interim_results", "true")
	return d.cfg.URL + "?" + q.Encode()
}

// Stream implements Recognizer.
func (d *Deepgram) Stream(ctx context.Context, out chan<- transcript.SpeechEvent) error {
	if d.cfg.Source == nil {
		return errors.New("deepgram: no audio source")
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.cfg.APIKey)

	conn, resp, err := d.dialer.DialContext(ctx, d.listenURL(), headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("deepgram: connect: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("deepgram: connect: %w", err)
	}
	defer conn.Close()

	src, err := d.cfg.Source(ctx)
	if err != nil {
		return fmt.Errorf("deepgram: open audio: %w", err)
	}
	defer src.Close()

	var wmu sync.Mutex
	abort := make(chan struct{})
	readDone := make(chan error, 1)
	pumpDone := make(chan error, 1)

	go func() { readDone <- readResults(conn, out, abort) }()
	go func() { pumpDone <- pumpAudio(ctx, src, conn, &wmu, audio.ChunkSize(d.cfg.ChunkDuration)) }()

	select {
	case <-ctx.Done():
		return d.drain(conn, &wmu, abort, readDone)
	case err := <-readDone:
		close(abort)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("deepgram: %w", err)
	case err := <-pumpDone:
		if ctx.Err() != nil {
			return d.drain(conn, &wmu, abort, readDone)
		}
		close(abort)
		conn.Close()
		<-readDone
		return fmt.Errorf("deepgram: %w", err)
	}
}

// drain asks Deepgram to flush and forwards trailing finals until the server
// closes or the drain timeout passes.
func (d *Deepgram) drain(conn *websocket.Conn, wmu *sync.Mutex, abort chan struct{}, readDone <-chan error) error {
	wmu.Lock()
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "CloseStream"}`))
	wmu.Unlock()

	timer := time.NewTimer(d.cfg.DrainTimeout)
	defer timer.Stop()

	select {
	case <-readDone:
		close(abort)
	case <-timer.C:
		log.Printf("deepgram: drain timed out after %v", d.cfg.DrainTimeout)
		close(abort)
		conn.Close()
		<-readDone
	}
	return nil
}

// pumpAudio forwards fixed-size PCM chunks until ctx is done or the source fails.
func pumpAudio(ctx context.Context, src io.Reader, conn *websocket.Conn, wmu *sync.Mutex, chunk int) error {
	buf := make([]byte, chunk)
	for {
		n, err := io.ReadFull(src, buf)
		if ctx.Err() != nil {
			return nil
		}
		if n > 0 {
			wmu.Lock()
			werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n])
			wmu.Unlock()
			if werr != nil {
				return fmt.Errorf("send audio: %w", werr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return errors.New("audio capture ended")
			}
			return fmt.Errorf("read audio: %w", err)
		}
	}
}

// readResults decodes Results messages until the connection closes. A clean
// close by the server after CloseStream returns nil.
func readResults(conn *websocket.Conn, out chan<- transcript.SpeechEvent, abort <-chan struct{}) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}

		var resp deepgramResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			log.Printf("deepgram: failed to parse response: %v", err)
			continue
		}
		ev, ok := resp.event()
		if !ok {
			continue
		}

		select {
		case out <- ev:
		case <-abort:
			return nil
		}
	}
}

func (r deepgramResponse) event() (transcript.SpeechEvent, bool) {
	if r.Type != "Results" {
		return transcript.SpeechEvent{}, false
	}
	if len(r.Channel.Alternatives) == 0 {
		if r.IsFinal {
			return transcript.Final(""), true
		}
		return transcript.SpeechEvent{}, false
	}

	alt := r.Channel.Alternatives[0]
	if !r.IsFinal {
		if alt.Transcript == "" {
			return transcript.SpeechEvent{}, false
		}
		return transcript.Interim(alt.Transcript), true
	}

	words := make([]transcript.WordTag, 0, len(alt.Words))
	for _, w := range alt.Words {
		if w.Speaker == nil {
			return transcript.Final(alt.Transcript), true
		}
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		// Deepgram speakers are 0-based.
		words = append(words, transcript.WordTag{Word: text, SpeakerTag: *w.Speaker + 1})
	}
	if len(words) == 0 {
		return transcript.Final(alt.Transcript), true
	}
	return transcript.Diarized(alt.Transcript, words), true
}

package recognizer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jwulff/scribe/internal/daemon"
	"github.com/jwulff/scribe/internal/transcript"
)

// DaemonConfig configures the local recognition daemon backend.
type DaemonConfig struct {
	SocketPath string
	Locale     string
	Device     string
}

// Daemon streams results from a local recognition daemon. The daemon owns
// the microphone; this side only subscribes and issues start/stop.
type Daemon struct {
	cfg DaemonConfig
}

// NewDaemon creates a daemon-backed recognizer.
func NewDaemon(cfg DaemonConfig) *Daemon {
	return &Daemon{cfg: cfg}
}

// Stream implements Recognizer. Events come over a subscribed connection;
// start and stop go over a second connection so a blocked ReadEvent never
// delays the stop command.
func (d *Daemon) Stream(ctx context.Context, out chan<- transcript.SpeechEvent) error {
	events, err := daemon.Connect(ctx, d.cfg.SocketPath)
	if err != nil {
		return err
	}
	defer events.Close()

	if _, err := events.Do(daemon.Command{
		Cmd:    "subscribe",
		Events: []string{daemon.EventPartial, daemon.EventSegment, daemon.EventError},
	}); err != nil {
		return err
	}

	ctrl, err := daemon.Connect(ctx, d.cfg.SocketPath)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	resp, err := ctrl.Do(daemon.Command{
		Cmd:             "start",
		Locale:          d.cfg.Locale,
		Device:          d.cfg.Device,
		Diarize:         daemon.BoolPtr(true),
		MaxSpeakerCount: 2,
	})
	if err != nil {
		return err
	}
	log.Printf("daemon: recording started, session=%s", resp.SessionID)

	readDone := make(chan error, 1)
	abort := make(chan struct{})
	go func() { readDone <- forwardEvents(events, out, abort) }()

	select {
	case <-ctx.Done():
		// segments finalized by stop arrive before the daemon's stop response
		if _, err := ctrl.Do(daemon.Command{Cmd: "stop"}); err != nil {
			log.Printf("daemon: stop: %v", err)
		}
		close(abort)
		events.Close()
		<-readDone
		return nil
	case err := <-readDone:
		close(abort)
		if _, serr := ctrl.Do(daemon.Command{Cmd: "stop"}); serr != nil {
			log.Printf("daemon: stop after failure: %v", serr)
		}
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
}

func forwardEvents(c *daemon.Client, out chan<- transcript.SpeechEvent, abort <-chan struct{}) error {
	for {
		ev, err := c.ReadEvent()
		if err != nil {
			if errors.Is(err, daemon.ErrClosed) {
				return errors.New("daemon: connection closed")
			}
			return fmt.Errorf("daemon: %w", err)
		}

		var se transcript.SpeechEvent
		switch ev.Event {
		case daemon.EventPartial:
			se = transcript.Interim(ev.Text)
		case daemon.EventSegment:
			se = segmentEvent(ev)
		case daemon.EventError:
			if ev.Transient != nil && *ev.Transient {
				log.Printf("daemon: transient error: %s", ev.Message)
				continue
			}
			return fmt.Errorf("daemon: %s", ev.Message)
		default:
			continue
		}

		select {
		case out <- se:
		case <-abort:
			return nil
		}
	}
}

func segmentEvent(ev daemon.Event) transcript.SpeechEvent {
	if len(ev.Words) > 0 {
		words := make([]transcript.WordTag, len(ev.Words))
		for i, w := range ev.Words {
			words[i] = transcript.WordTag{Word: w.Word, SpeakerTag: w.Speaker}
		}
		return transcript.Diarized(ev.Text, words)
	}
	se := transcript.Final(ev.Text)
	if ev.Speaker != nil {
		tag := *ev.Speaker
		se.Speaker = &tag
	}
	return se
}

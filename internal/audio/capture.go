// Package audio captures microphone PCM through an external recorder process.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// PCM format produced by the capture command.
const (
	SampleRate     = 16000
	Channels       = 1
	BytesPerSample = 2
)

// ChunkSize returns the byte length of d worth of audio.
func ChunkSize(d time.Duration) int {
	return int(d.Seconds()*SampleRate) * Channels * BytesPerSample
}

// Source opens the audio device for one session.
type Source func(ctx context.Context) (io.ReadCloser, error)

// CommandSource returns a Source that runs command for each session.
func CommandSource(command string) Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return Capture(ctx, command)
	}
}

// Process is a running recorder whose stdout carries raw PCM.
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// Capture starts the recorder described by command. The process is killed
// when ctx is done or Close is called.
func Capture(ctx context.Context, command string) (*Process, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("audio: empty capture command")
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("audio: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("audio: start %s: %w", args[0], err)
	}

	return &Process{cmd: cmd, stdout: stdout, stderr: stderr, cancel: cancel}, nil
}

// Read reads captured PCM.
func (p *Process) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

// Close stops the recorder and releases the device.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		err := p.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, context.Canceled) {
			p.closeErr = fmt.Errorf("audio: wait: %w", err)
		}
	})
	return p.closeErr
}

// Stderr returns what the recorder printed to stderr so far.
func (p *Process) Stderr() string {
	return strings.TrimSpace(p.stderr.String())
}

package audio

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestChunkSize(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{100 * time.Millisecond, 3200},
		{time.Second, 32000},
		{0, 0},
	}
	for _, tt := range tests {
		if got := ChunkSize(tt.d); got != tt.want {
			t.Errorf("ChunkSize(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestCaptureReadsStdout(t *testing.T) {
	p, err := Capture(context.Background(), "echo pcm")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	data, err := io.ReadAll(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "pcm\n" {
		t.Errorf("data = %q", data)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCaptureCloseStopsLongRunningProcess(t *testing.T) {
	p, err := CommandSource("sleep 30")(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- p.Close() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not stop the recorder")
	}
	// second close is a no-op
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestCaptureErrors(t *testing.T) {
	if _, err := Capture(context.Background(), "   "); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := Capture(context.Background(), "/nonexistent/recorder -f"); err == nil {
		t.Error("expected error for missing binary")
	}
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/scribe/internal/extract"
	"github.com/jwulff/scribe/internal/llm"
	"github.com/jwulff/scribe/internal/recognizer"
	"github.com/jwulff/scribe/internal/report"
	"github.com/jwulff/scribe/internal/session"
	"github.com/jwulff/scribe/internal/storage"
	"github.com/jwulff/scribe/internal/transcript"
)

type cannedLLM string

func (c cannedLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	return string(c), nil
}

// pump feeds controller updates into the model until until returns true.
// Only acknowledge commands are executed; the re-armed read is replaced by
// this loop.
func pump(t *testing.T, m Model, ctrl *session.Controller, until func(Model) bool) Model {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !until(m) {
		select {
		case u := <-ctrl.Updates():
			if cmd := m.handleUpdate(u); cmd != nil {
				cmd()
			}
		case <-deadline:
			t.Fatalf("timed out in state %s", m.state)
		}
	}
	return m
}

// TestRecordingFlow drives the model against a real controller from start
// through transcript, stop, extraction and the acknowledged outcome.
func TestRecordingFlow(t *testing.T) {
	dir := t.TempDir()
	store := storage.New(dir)
	if err := store.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	rec := recognizer.Func(func(ctx context.Context, out chan<- transcript.SpeechEvent) error {
		out <- transcript.Interim("на что")
		out <- transcript.Diarized("На что жалуетесь?", []transcript.WordTag{
			{Word: "На", SpeakerTag: 1}, {Word: "что", SpeakerTag: 1}, {Word: "жалуетесь?", SpeakerTag: 1},
		})
		out <- transcript.Diarized("Головная боль.", []transcript.WordTag{
			{Word: "Головная", SpeakerTag: 2}, {Word: "боль.", SpeakerTag: 2},
		})
		<-ctx.Done()
		return nil
	})
	ctrl := session.New(session.Deps{
		Recognizer: rec,
		Extractor: extract.NewPipeline(cannedLLM(`{"complaints": ["головная боль"], "provisional diagnosis": [], "recommendations": ["отдых"]}`),
			extract.DefaultRegistry(), extract.Options{}),
		Renderer:     report.NewMarkdownWriter(filepath.Join(dir, storage.ReportDir)),
		Files:        store,
		TickInterval: 10 * time.Millisecond,
	})
	defer ctrl.Close()

	m := New(ctrl, store)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	m = typeText(m, "Петров Пётр")

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	for _, msg := range runCmd(cmd) {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}

	m = pump(t, m, ctrl, func(m Model) bool { return len(m.lines) == 2 && m.state == session.StateRecording })
	if m.lines[0].Role != transcript.RoleDoctor || m.lines[1].Role != transcript.RolePatient {
		t.Errorf("lines = %+v", m.lines)
	}

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	runCmd(cmd)

	m = pump(t, m, ctrl, func(m Model) bool { return m.state == session.StateIdle && m.reportPath != "" })
	if m.statusText != "Заключение готово" {
		t.Errorf("status = %q", m.statusText)
	}
	if m.errorMessage != "" {
		t.Errorf("unexpected error %q", m.errorMessage)
	}
	if _, err := os.Stat(m.reportPath); err != nil {
		t.Errorf("report missing: %v", err)
	}
	if got := ctrl.State(); got != session.StateIdle {
		t.Errorf("controller state = %s", got)
	}
}

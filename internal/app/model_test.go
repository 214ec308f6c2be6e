package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/scribe/internal/doctor"
	"github.com/jwulff/scribe/internal/extract"
	"github.com/jwulff/scribe/internal/session"
	"github.com/jwulff/scribe/internal/storage"
	"github.com/jwulff/scribe/internal/transcript"
)

type fakeController struct {
	updates  chan session.Update
	started  []session.StartRequest
	startErr error
	stopped  int
	acked    int
}

func newFakeController() *fakeController {
	return &fakeController{updates: make(chan session.Update, 16)}
}

func (f *fakeController) Start(req session.StartRequest) (session.Session, error) {
	if f.startErr != nil {
		return session.Session{}, f.startErr
	}
	f.started = append(f.started, req)
	return session.Session{ID: "sess-1", Doctor: req.Doctor, PatientName: req.PatientName}, nil
}

func (f *fakeController) Stop() error {
	f.stopped++
	return nil
}

func (f *fakeController) Acknowledge() error {
	f.acked++
	return nil
}

func (f *fakeController) Updates() <-chan session.Update { return f.updates }

func newTestModel(t *testing.T) (Model, *fakeController, *storage.Store) {
	t.Helper()
	store := storage.New(t.TempDir())
	ctrl := newFakeController()
	m := New(ctrl, store)
	m.width = 100
	m.height = 30
	return m, ctrl, store
}

// runCmd executes cmd and flattens batches. Never pass commands that block.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		if r == ' ' {
			m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		} else {
			m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
	}
	return m
}

func TestNewModel(t *testing.T) {
	m, _, _ := newTestModel(t)
	if m.state != session.StateIdle {
		t.Errorf("state = %s", m.state)
	}
	if !m.transcriptLive {
		t.Error("new model should be in live mode")
	}
	if m.focusedPanel != FocusPatient {
		t.Error("new model should focus the patient input")
	}
	if len(m.doctorNames) != 2 {
		t.Fatalf("doctors = %v, want the defaults", m.doctorNames)
	}
}

func TestNewModelRestoresLastDoctor(t *testing.T) {
	store := storage.New(t.TempDir())
	if err := store.SaveSetting(storage.KeyLastDoctor, "Амичба Амина"); err != nil {
		t.Fatal(err)
	}
	m := New(newFakeController(), store)

	d, ok := m.selectedDoctor()
	if !ok || d.Name != "Амичба Амина" || d.Specialization != doctor.GeneralPhysician {
		t.Errorf("selected = %+v, %v", d, ok)
	}
}

func TestToggleStartsSession(t *testing.T) {
	m, ctrl, store := newTestModel(t)
	m = typeText(m, "Петров Пётр")
	if got := string(m.patient); got != "Петров Пётр" {
		t.Fatalf("patient input = %q", got)
	}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	msgs := runCmd(cmd)

	if len(ctrl.started) != 1 {
		t.Fatalf("Start called %d times", len(ctrl.started))
	}
	req := ctrl.started[0]
	if req.PatientName != "Петров Пётр" || req.Doctor.Name != "Авидзба Леонида" {
		t.Errorf("request = %+v", req)
	}

	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	if m.sessionID != "sess-1" {
		t.Errorf("sessionID = %q", m.sessionID)
	}
	if len(m.history) != 1 || m.history[0] != "Петров Пётр" {
		t.Errorf("history = %v", m.history)
	}
	if got := store.LoadPatientHistory(); len(got) != 1 {
		t.Errorf("persisted history = %v", got)
	}
}

func TestStartErrorShown(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, _ := m.Update(StartResultMsg{Err: &session.PreconditionError{Reason: "patient name is empty"}})
	m = updated.(Model)

	if m.errorMessage != "Введите имя пациента" {
		t.Errorf("error = %q", m.errorMessage)
	}
	if !m.errorTransient {
		t.Error("start errors should be transient")
	}
}

func TestToggleStopsRecording(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m.state = session.StateRecording

	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	msgs := runCmd(cmd)

	if ctrl.stopped != 1 {
		t.Errorf("Stop called %d times", ctrl.stopped)
	}
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v", msgs)
	}
	if _, ok := msgs[0].(StopResultMsg); !ok {
		t.Errorf("msg = %T", msgs[0])
	}
}

func TestToggleIgnoredWhileProcessing(t *testing.T) {
	for _, s := range []session.State{session.StateStopping, session.StateExtracting} {
		m, ctrl, _ := newTestModel(t)
		m.state = s
		_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
		if cmd != nil {
			t.Errorf("%s: toggle returned a command", s)
		}
		if ctrl.stopped != 0 || len(ctrl.started) != 0 {
			t.Errorf("%s: controller was called", s)
		}
	}
}

func TestPatientInputLockedWhileRecording(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = typeText(m, "Анна")
	m.state = session.StateRecording
	m = typeText(m, "xyz")
	if got := string(m.patient); got != "Анна" {
		t.Errorf("patient = %q", got)
	}
}

func TestFailureAcknowledged(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m.state = session.StateStopping

	m.handleUpdate(session.Failed{Err: session.ErrEmptyTranscript})
	cmd := m.handleUpdate(session.StateChanged{From: session.StateStopping, To: session.StateError, Reason: session.ErrEmptyTranscript.Error()})

	if m.state != session.StateError {
		t.Errorf("state = %s", m.state)
	}
	if m.errorMessage != "Пустая транскрипция: речь не распознана" {
		t.Errorf("error = %q", m.errorMessage)
	}
	if cmd == nil {
		t.Fatal("error state should be acknowledged")
	}
	if _, ok := cmd().(AcknowledgedMsg); !ok || ctrl.acked != 1 {
		t.Errorf("acknowledge not sent, acked=%d", ctrl.acked)
	}

	m.handleUpdate(session.StateChanged{From: session.StateError, To: session.StateIdle})
	if m.state != session.StateIdle {
		t.Errorf("state = %s", m.state)
	}
	if m.errorMessage == "" {
		t.Error("error should stay visible after returning to idle")
	}
}

func TestCompletedShowsReport(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	var opened string
	m.open = func(path string) tea.Cmd {
		opened = path
		return nil
	}

	m.handleUpdate(session.Completed{ReportPath: "Reports/Петров_Пётр_01_03_2026.md"})
	cmd := m.handleUpdate(session.StateChanged{From: session.StateExtracting, To: session.StateDone})
	if cmd == nil {
		t.Fatal("done state should be acknowledged")
	}
	cmd()
	if ctrl.acked != 1 {
		t.Errorf("acked = %d", ctrl.acked)
	}

	view := m.View()
	if !strings.Contains(view, "Петров_Пётр_01_03_2026.md") {
		t.Error("view should link the report")
	}

	m.focusedPanel = FocusTranscript
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	if opened != "Reports/Петров_Пётр_01_03_2026.md" {
		t.Errorf("opened = %q", opened)
	}
}

func TestTranscriptAndTimer(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.state = session.StateRecording

	m.handleUpdate(session.Tick{Elapsed: 65 * time.Second})
	m.handleUpdate(session.TranscriptChanged{Lines: []transcript.Line{
		{Role: transcript.RoleDoctor, Text: "На что жалуетесь?"},
		{Role: transcript.RolePatient, Text: "Болит голова."},
		{Role: transcript.RoleInterim, Text: "с утра"},
	}})

	view := m.View()
	for _, want := range []string{"00:01:05", "ЗАПИСЬ", "Врач:", "На что жалуетесь?", "Пациент:", "Болит голова.", "с утра"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRecordingResetsViewBeforeStartResult(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.reportPath = "Reports/old.md"
	m.lines = []transcript.Line{{Role: transcript.RoleDoctor, Text: "прошлый приём"}}
	m.elapsed = time.Hour

	m.handleUpdate(session.StateChanged{From: session.StateIdle, To: session.StateRecording})
	if len(m.lines) != 0 || m.elapsed != 0 || m.reportPath != "" {
		t.Fatalf("view not reset: lines=%v elapsed=%v report=%q", m.lines, m.elapsed, m.reportPath)
	}

	// updates read before the start command result lands must survive it
	m.handleUpdate(session.Tick{Elapsed: 2 * time.Second})
	m.handleUpdate(session.TranscriptChanged{Lines: []transcript.Line{{Role: transcript.RoleDoctor, Text: "Здравствуйте."}}})

	updated, _ := m.Update(StartResultMsg{Session: session.Session{ID: "sess-2"}})
	m = updated.(Model)

	if m.sessionID != "sess-2" {
		t.Errorf("sessionID = %q", m.sessionID)
	}
	if len(m.lines) != 1 || m.lines[0].Text != "Здравствуйте." {
		t.Errorf("lines = %v, want the early transcript kept", m.lines)
	}
	if m.elapsed != 2*time.Second {
		t.Errorf("elapsed = %v, want the early tick kept", m.elapsed)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{61*time.Minute + 5*time.Second, "01:01:05"},
		{25*time.Hour + 1500*time.Millisecond, "25:00:01"},
		{-time.Second, "00:00:00"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestPatientSuggestions(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.history = []string{"Сидоров Иван", "Петров Пётр", "Петрова Анна"}

	m = typeText(m, "пет")
	got := m.suggestions()
	if len(got) != 2 || got[0] != "Петрова Анна" || got[1] != "Петров Пётр" {
		t.Fatalf("suggestions = %v", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("choosing a suggestion should not save")
	}
	if string(m.patient) != "Петрова Анна" {
		t.Errorf("patient = %q", string(m.patient))
	}

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("enter should save the patient, msgs = %v", msgs)
	}
	hist := msgs[0].(PatientHistoryMsg)
	if hist.Err != nil || len(hist.History) != 3 {
		t.Errorf("history = %+v", hist)
	}
}

func TestBackspace(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = typeText(m, "Пётр")
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := string(m.patient); got != "Пёт" {
		t.Errorf("patient = %q", got)
	}
}

func TestAddDoctorForm(t *testing.T) {
	m, _, store := newTestModel(t)
	m.focusedPanel = FocusDoctor

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if m.form == nil {
		t.Fatal("n should open the add-doctor form")
	}
	m = typeText(m, "Иванов Иван")
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.form != nil {
		t.Error("form should close on save")
	}

	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v", msgs)
	}
	updated, cmd := m.Update(msgs[0])
	m = updated.(Model)
	runCmd(cmd)

	d, ok := m.selectedDoctor()
	if !ok || d.Name != "Иванов Иван" || d.Specialization != doctor.All[1] {
		t.Errorf("selected = %+v", d)
	}
	if _, ok := store.LoadDoctors().Lookup("Иванов Иван"); !ok {
		t.Error("new doctor not persisted")
	}
	if got := store.LoadSettings()[storage.KeyLastDoctor]; got != "Иванов Иван" {
		t.Errorf("last doctor = %q", got)
	}
}

func TestAddDoctorFormCancel(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.focusedPanel = FocusDoctor
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m = typeText(m, "q")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.form != nil || cmd != nil {
		t.Error("esc should close the form without saving")
	}
}

func TestDoctorSelection(t *testing.T) {
	m, _, store := newTestModel(t)
	m.focusedPanel = FocusDoctor

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyDown})
	runCmd(cmd)
	if m.doctorIndex != 1 {
		t.Errorf("doctorIndex = %d", m.doctorIndex)
	}
	if got := store.LoadSettings()[storage.KeyLastDoctor]; got != "Амичба Амина" {
		t.Errorf("last doctor = %q", got)
	}

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if cmd != nil || m.doctorIndex != 1 {
		t.Error("selection should stop at the last doctor")
	}
}

func TestTabCyclesFocus(t *testing.T) {
	m, _, _ := newTestModel(t)
	want := []PanelFocus{FocusTranscript, FocusDoctor, FocusPatient}
	for _, w := range want {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
		if m.focusedPanel != w {
			t.Fatalf("focus = %d, want %d", m.focusedPanel, w)
		}
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focusedPanel != FocusDoctor {
		t.Errorf("shift+tab focus = %d", m.focusedPanel)
	}
}

func TestQuitKeys(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd != nil || string(m.patient) != "q" {
		t.Error("q in the patient input should be typed")
	}

	m.focusedPanel = FocusTranscript
	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit outside inputs")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}

	m.state = session.StateExtracting
	if _, cmd = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd != nil {
		t.Error("q should not quit during extraction")
	}
	if _, cmd = press(m, tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("ctrl+c always quits")
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&session.PreconditionError{Reason: "no doctor selected"}, "Выберите врача"},
		{&session.PreconditionError{Reason: "OPENAI_API_KEY is not set"}, "Проверьте настройки: OPENAI_API_KEY is not set"},
		{session.ErrBusy, "Сеанс уже идёт"},
		{session.ErrEmptyTranscript, "Пустая транскрипция: речь не распознана"},
		{&session.StreamError{Err: errors.New("timeout")}, "Ошибка распознавания речи: timeout"},
		{&extract.ServiceError{Err: errors.New("503")}, "Сервис извлечения недоступен: 503"},
		{&extract.MalformedResponseError{Content: "{", Err: errors.New("eof")}, "Некорректный ответ сервиса извлечения"},
		{errors.New("boom"), "Ошибка: boom"},
	}
	for _, tt := range tests {
		if got := describeError(tt.err); got != tt.want {
			t.Errorf("describeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := New(newFakeController(), storage.New(t.TempDir()))
	if got := m.View(); got != "Загрузка..." {
		t.Errorf("view = %q", got)
	}
}

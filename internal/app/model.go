package app

import (
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/scribe/internal/doctor"
	"github.com/jwulff/scribe/internal/session"
	"github.com/jwulff/scribe/internal/storage"
	"github.com/jwulff/scribe/internal/transcript"
	"github.com/jwulff/scribe/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of the session controller the TUI drives.
type Controller interface {
	Start(req session.StartRequest) (session.Session, error)
	Stop() error
	Acknowledge() error
	Updates() <-chan session.Update
}

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusDoctor PanelFocus = iota
	FocusPatient
	FocusTranscript
)

const maxSuggestions = 5

// doctorForm is the add-doctor dialog.
type doctorForm struct {
	name      []rune
	specIndex int
}

// Model is the root bubbletea model for the scribe TUI.
type Model struct {
	ctrl  Controller
	store *storage.Store
	open  func(path string) tea.Cmd

	// Selection
	doctors     doctor.Directory
	doctorNames []string
	doctorIndex int
	patient     []rune
	history     []string
	suggestion  int // index into suggestions(), -1 for none
	form        *doctorForm

	// Session
	state      session.State
	sessionID  string
	elapsed    time.Duration
	lines      []transcript.Line
	reportPath string
	statusText string

	// UI state
	focusedPanel     PanelFocus
	width            int
	height           int
	transcriptScroll int
	transcriptLive   bool

	// Errors
	errorMessage   string
	errorTransient bool
}

// New creates a Model over a controller and the persisted selections.
func New(ctrl Controller, store *storage.Store) Model {
	m := Model{
		ctrl:           ctrl,
		store:          store,
		open:           openReportCmd,
		doctors:        store.LoadDoctors(),
		history:        store.LoadPatientHistory(),
		suggestion:     -1,
		statusText:     "Готов к записи",
		transcriptLive: true,
		focusedPanel:   FocusPatient,
	}
	m.doctorNames = m.doctors.Names()
	if last := store.LoadSettings()[storage.KeyLastDoctor]; last != "" {
		if i := slices.Index(m.doctorNames, last); i >= 0 {
			m.doctorIndex = i
		}
	}
	return m
}

// Init starts listening for controller updates.
func (m Model) Init() tea.Cmd {
	return readUpdateCmd(m.ctrl.Updates())
}

// readUpdateCmd reads the next controller update.
func readUpdateCmd(updates <-chan session.Update) tea.Cmd {
	return func() tea.Msg {
		return SessionUpdateMsg{Update: <-updates}
	}
}

// startCmd asks the controller to start recording.
func startCmd(ctrl Controller, req session.StartRequest) tea.Cmd {
	return func() tea.Msg {
		sess, err := ctrl.Start(req)
		return StartResultMsg{Session: sess, Err: err}
	}
}

// stopCmd asks the controller to stop recording.
func stopCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return StopResultMsg{Err: ctrl.Stop()}
	}
}

// acknowledgeCmd returns a finished controller to idle.
func acknowledgeCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return AcknowledgedMsg{Err: ctrl.Acknowledge()}
	}
}

// savePatientCmd appends a patient to the persisted history.
func savePatientCmd(store *storage.Store, history []string, name string) tea.Cmd {
	history = slices.Clone(history)
	return func() tea.Msg {
		updated, err := store.AddPatient(history, name)
		return PatientHistoryMsg{History: updated, Err: err}
	}
}

// saveDoctorsCmd writes the doctor directory with one more entry.
func saveDoctorsCmd(store *storage.Store, doctors doctor.Directory, name string, spec doctor.Specialization) tea.Cmd {
	updated := make(doctor.Directory, len(doctors)+1)
	for k, v := range doctors {
		updated[k] = v
	}
	updated[name] = spec
	return func() tea.Msg {
		return DoctorsSavedMsg{Doctors: updated, Name: name, Err: store.SaveDoctors(updated)}
	}
}

// saveLastDoctorCmd remembers the selected doctor for the next launch.
func saveLastDoctorCmd(store *storage.Store, name string) tea.Cmd {
	return func() tea.Msg {
		if err := store.SaveSetting(storage.KeyLastDoctor, name); err != nil {
			return SettingSavedMsg{Err: err}
		}
		return nil
	}
}

// openReportCmd hands the report to the platform's default viewer.
func openReportCmd(path string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", path)
		case "windows":
			cmd = exec.Command("cmd", "/c", "start", "", path)
		default:
			cmd = exec.Command("xdg-open", path)
		}
		return ReportOpenedMsg{Path: path, Err: cmd.Start()}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SessionUpdateMsg:
		cmd := m.handleUpdate(msg.Update)
		// Continue reading controller updates
		return m, tea.Batch(cmd, readUpdateCmd(m.ctrl.Updates()))

	case StartResultMsg:
		if msg.Err != nil {
			return m, m.setTransientError(describeError(msg.Err))
		}
		m.sessionID = msg.Session.ID
		return m, nil

	case StopResultMsg:
		if msg.Err != nil {
			return m, m.setTransientError(describeError(msg.Err))
		}
		return m, nil

	case AcknowledgedMsg:
		return m, nil

	case PatientHistoryMsg:
		if msg.Err != nil {
			return m, m.setTransientError("Не удалось сохранить пациента: " + msg.Err.Error())
		}
		m.history = msg.History
		return m, nil

	case DoctorsSavedMsg:
		if msg.Err != nil {
			return m, m.setTransientError("Не удалось сохранить врача: " + msg.Err.Error())
		}
		m.doctors = msg.Doctors
		m.doctorNames = m.doctors.Names()
		if i := slices.Index(m.doctorNames, msg.Name); i >= 0 {
			m.doctorIndex = i
		}
		return m, saveLastDoctorCmd(m.store, msg.Name)

	case SettingSavedMsg:
		if msg.Err != nil {
			return m, m.setTransientError("Не удалось сохранить настройки: " + msg.Err.Error())
		}
		return m, nil

	case ReportOpenedMsg:
		if msg.Err != nil {
			return m, m.setTransientError("Не удалось открыть заключение: " + msg.Err.Error())
		}
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleUpdate applies a controller update and returns any resulting command.
func (m *Model) handleUpdate(u session.Update) tea.Cmd {
	switch u := u.(type) {
	case session.StateChanged:
		m.state = u.To
		// keep the outcome visible after the automatic acknowledge
		if u.To != session.StateIdle || !(u.From == session.StateDone || u.From == session.StateError) {
			m.statusText = statusText(u.To)
		}
		switch u.To {
		case session.StateRecording:
			// new session; StartResultMsg may arrive after its first updates
			m.lines = nil
			m.elapsed = 0
			m.reportPath = ""
			m.errorMessage = ""
			m.errorTransient = false
			m.transcriptScroll = 0
			m.transcriptLive = true
		case session.StateError:
			if m.errorMessage == "" || m.errorTransient {
				m.errorMessage = "Ошибка: " + u.Reason
				m.errorTransient = false
			}
			return acknowledgeCmd(m.ctrl)
		case session.StateDone:
			return acknowledgeCmd(m.ctrl)
		}

	case session.Tick:
		m.elapsed = u.Elapsed

	case session.TranscriptChanged:
		m.lines = u.Lines
		if m.transcriptLive {
			m.scrollToBottom()
		}

	case session.Completed:
		m.reportPath = u.ReportPath

	case session.Failed:
		m.errorMessage = describeError(u.Err)
		m.errorTransient = false
	}
	return nil
}

func statusText(s session.State) string {
	switch s {
	case session.StateRecording:
		return "Идёт запись"
	case session.StateStopping:
		return "Сохранение транскрипции..."
	case session.StateExtracting:
		return "Формирование заключения..."
	case session.StateDone:
		return "Заключение готово"
	case session.StateError:
		return "Сеанс завершён с ошибкой"
	default:
		return "Готов к записи"
	}
}

func (m *Model) setTransientError(text string) tea.Cmd {
	m.errorMessage = text
	m.errorTransient = true
	return clearTransientErrorCmd()
}

// typing reports whether letter keys go into a text field.
func (m Model) typing() bool {
	return m.form != nil || (m.focusedPanel == FocusPatient && !m.state.Busy())
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case KeyCtrlC:
		return m, tea.Quit
	case KeyToggle:
		return m.toggleRecording()
	case KeyCtrlO:
		return m.openReport()
	}

	if m.form != nil {
		return m.handleFormKey(msg)
	}

	if !m.typing() {
		switch key {
		case KeyQuit:
			if m.state.Busy() {
				return m, nil
			}
			return m, tea.Quit
		case KeySpace:
			return m.toggleRecording()
		case KeyOpenReport:
			return m.openReport()
		case KeyDismissErr:
			m.errorMessage = ""
			m.errorTransient = false
			return m, nil
		}
	}

	switch key {
	case KeyTab:
		m.focusedPanel = (m.focusedPanel + 1) % 3
		m.suggestion = -1
		return m, nil
	case KeyShiftTab:
		m.focusedPanel = (m.focusedPanel + 2) % 3
		m.suggestion = -1
		return m, nil
	}

	switch m.focusedPanel {
	case FocusDoctor:
		return m.handleDoctorKey(key)
	case FocusPatient:
		return m.handlePatientKey(msg)
	default:
		return m.handleTranscriptKey(key)
	}
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	switch m.state {
	case session.StateRecording:
		return m, stopCmd(m.ctrl)
	case session.StateIdle:
		req := session.StartRequest{PatientName: string(m.patient)}
		var cmds []tea.Cmd
		if d, ok := m.selectedDoctor(); ok {
			req.Doctor = d
		}
		if name := strings.TrimSpace(string(m.patient)); name != "" {
			cmds = append(cmds, savePatientCmd(m.store, m.history, name))
		}
		cmds = append(cmds, startCmd(m.ctrl, req))
		return m, tea.Batch(cmds...)
	}
	// stopping and extracting ignore the toggle
	return m, nil
}

func (m Model) openReport() (tea.Model, tea.Cmd) {
	if m.reportPath == "" {
		return m, nil
	}
	return m, m.open(m.reportPath)
}

func (m Model) selectedDoctor() (doctor.Doctor, bool) {
	if m.doctorIndex < 0 || m.doctorIndex >= len(m.doctorNames) {
		return doctor.Doctor{}, false
	}
	return m.doctors.Lookup(m.doctorNames[m.doctorIndex])
}

func (m Model) handleDoctorKey(key string) (tea.Model, tea.Cmd) {
	if m.state.Busy() {
		return m, nil
	}
	switch key {
	case KeyUp, KeyK:
		if m.doctorIndex > 0 {
			m.doctorIndex--
			return m, saveLastDoctorCmd(m.store, m.doctorNames[m.doctorIndex])
		}
	case KeyDown, KeyJ:
		if m.doctorIndex < len(m.doctorNames)-1 {
			m.doctorIndex++
			return m, saveLastDoctorCmd(m.store, m.doctorNames[m.doctorIndex])
		}
	case KeyAddDoctor, KeyCtrlN:
		m.form = &doctorForm{}
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := *m.form
	switch msg.String() {
	case KeyEsc:
		m.form = nil
		return m, nil
	case KeyUp:
		f.specIndex = (f.specIndex + len(doctor.All) - 1) % len(doctor.All)
	case KeyDown, KeyTab:
		f.specIndex = (f.specIndex + 1) % len(doctor.All)
	case KeyBackspace:
		if len(f.name) > 0 {
			f.name = f.name[:len(f.name)-1]
		}
	case KeyEnter:
		name := strings.TrimSpace(string(f.name))
		if name == "" {
			return m, m.setTransientError("Введите имя врача")
		}
		m.form = nil
		return m, saveDoctorsCmd(m.store, m.doctors, name, doctor.All[f.specIndex])
	default:
		switch msg.Type {
		case tea.KeyRunes:
			f.name = append(slices.Clone(f.name), msg.Runes...)
		case tea.KeySpace:
			f.name = append(slices.Clone(f.name), ' ')
		}
	}
	m.form = &f
	return m, nil
}

func (m Model) handlePatientKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.Busy() {
		return m, nil
	}
	switch msg.String() {
	case KeyUp:
		if m.suggestion >= 0 {
			m.suggestion--
		}
		return m, nil
	case KeyDown:
		if m.suggestion < len(m.suggestions())-1 {
			m.suggestion++
		}
		return m, nil
	case KeyEnter:
		if s := m.suggestions(); m.suggestion >= 0 && m.suggestion < len(s) {
			m.patient = []rune(s[m.suggestion])
			m.suggestion = -1
			return m, nil
		}
		name := strings.TrimSpace(string(m.patient))
		if name == "" {
			return m, nil
		}
		return m, savePatientCmd(m.store, m.history, name)
	case KeyEsc:
		m.suggestion = -1
		return m, nil
	case KeyBackspace:
		if len(m.patient) > 0 {
			m.patient = m.patient[:len(m.patient)-1]
		}
		m.suggestion = -1
		return m, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		m.patient = append(slices.Clone(m.patient), msg.Runes...)
		m.suggestion = -1
	case tea.KeySpace:
		m.patient = append(slices.Clone(m.patient), ' ')
		m.suggestion = -1
	}
	return m, nil
}

// suggestions lists history entries matching the typed prefix, newest first.
func (m Model) suggestions() []string {
	prefix := strings.ToLower(strings.TrimSpace(string(m.patient)))
	var out []string
	for i := len(m.history) - 1; i >= 0 && len(out) < maxSuggestions; i-- {
		name := m.history[i]
		if strings.HasPrefix(strings.ToLower(name), prefix) && !strings.EqualFold(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

func (m Model) handleTranscriptKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyUp, KeyK:
		m.transcriptLive = false
		if m.transcriptScroll > 0 {
			m.transcriptScroll--
		}
	case KeyDown, KeyJ:
		maxScroll := m.maxTranscriptScroll()
		m.transcriptScroll++
		if m.transcriptScroll >= maxScroll {
			m.transcriptScroll = maxScroll
			m.transcriptLive = true
		}
	}
	return m, nil
}

func (m *Model) scrollToBottom() {
	m.transcriptScroll = m.maxTranscriptScroll()
}

func (m Model) maxTranscriptScroll() int {
	total := len(m.transcriptDisplayLines())
	visible := m.transcriptVisibleLines()
	if total <= visible {
		return 0
	}
	return total - visible
}

func (m Model) transcriptVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// header, status, doctor, patient, suggestions, dividers, error, report, footer
	reserved := 12
	return max(5, m.height-reserved)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Загрузка..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.form != nil {
		sections = append(sections, m.renderDoctorForm())
	} else {
		sections = append(sections, m.renderSelection())
		sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
		sections = append(sections, m.renderTranscriptPanel(m.transcriptVisibleLines()))
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	if m.reportPath != "" {
		sections = append(sections, m.renderReportLink())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("SCRIBE")
	return title + ui.DimStyle.Render(" — медицинский диктофон")
}

func (m Model) renderStatusBar() string {
	var dot string
	switch m.state {
	case session.StateRecording:
		dot = ui.RecordingDotStyle.Render("● ЗАПИСЬ")
	case session.StateStopping, session.StateExtracting:
		dot = ui.SpinnerStyle.Render("⟳ ОБРАБОТКА")
	default:
		dot = ui.IdleDotStyle.Render("○ ОЖИДАНИЕ")
	}

	timer := ui.TimerStyle.Render(formatElapsed(m.elapsed))
	return dot + "  " + timer + "  " + ui.StatusStyle.Render(m.statusText)
}

// formatElapsed renders a duration as HH:MM:SS.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

func (m Model) panelTitle(p PanelFocus, text string) string {
	if m.focusedPanel == p {
		return ui.PanelTitleActiveStyle.Render(text)
	}
	return ui.PanelTitleStyle.Render(text)
}

func (m Model) renderSelection() string {
	var lines []string

	doc := ui.DimStyle.Render("нет врачей, n — добавить")
	if d, ok := m.selectedDoctor(); ok {
		doc = d.Name + ui.DimStyle.Render(" ("+d.Specialization.Label()+")")
		if m.focusedPanel == FocusDoctor {
			doc = ui.SelectedStyle.Render("‹ ") + doc + ui.SelectedStyle.Render(" ›") +
				ui.DimStyle.Render(fmt.Sprintf("  %d/%d", m.doctorIndex+1, len(m.doctorNames)))
		}
	}
	lines = append(lines, m.panelTitle(FocusDoctor, "Врач:    ")+doc)

	patient := string(m.patient)
	if m.focusedPanel == FocusPatient && !m.state.Busy() {
		patient += "▌"
	}
	if patient == "" {
		patient = ui.DimStyle.Render("не указан")
	} else {
		patient = ui.InputStyle.Render(patient)
	}
	lines = append(lines, m.panelTitle(FocusPatient, "Пациент: ")+patient)

	if m.focusedPanel == FocusPatient && !m.state.Busy() {
		var sugg []string
		for i, s := range m.suggestions() {
			if i == m.suggestion {
				sugg = append(sugg, ui.SelectedStyle.Render("> "+s))
			} else {
				sugg = append(sugg, ui.DimStyle.Render("  "+s))
			}
		}
		if len(sugg) > 0 {
			lines = append(lines, "         "+strings.Join(sugg, " "))
		}
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderDoctorForm() string {
	f := m.form
	lines := []string{
		ui.PanelTitleActiveStyle.Render("НОВЫЙ ВРАЧ"),
		"",
		"Имя:            " + ui.InputStyle.Render(string(f.name)+"▌"),
		"Специализация:  " + ui.SelectedStyle.Render("‹ "+doctor.All[f.specIndex].Label()+" ›"),
		"",
		ui.DimStyle.Render("↑↓ специализация  Enter сохранить  Esc отмена"),
	}
	for len(lines) < m.transcriptVisibleLines() {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// transcriptDisplayLines renders and wraps every transcript line.
func (m Model) transcriptDisplayLines() []string {
	width := m.width
	if width == 0 {
		width = 80
	}
	textWidth := max(10, width-14)
	indent := strings.Repeat(" ", 12)

	var out []string
	for _, l := range m.lines {
		var label string
		text := l.Text
		switch l.Role {
		case transcript.RoleDoctor:
			label = ui.DoctorLabelStyle.Render(padRight(l.Role.Label()+":", 10))
		case transcript.RolePatient:
			label = ui.PatientLabelStyle.Render(padRight(l.Role.Label()+":", 10))
		case transcript.RoleInterim:
			label = ui.InterimTextStyle.Render(padRight("…", 10))
			text += "▌"
		default:
			label = padRight("", 10)
		}

		wrapped := wrapText(text, textWidth)
		for i, wl := range wrapped {
			if l.Role == transcript.RoleInterim {
				wl = ui.InterimTextStyle.Render(wl)
			}
			if i == 0 {
				out = append(out, "  "+label+wl)
			} else {
				out = append(out, indent+wl)
			}
		}
	}
	return out
}

func (m Model) renderTranscriptPanel(height int) string {
	var badge string
	if m.transcriptLive {
		badge = ui.LiveBadgeStyle.Render(" LIVE")
	} else {
		badge = ui.ScrollBadgeStyle.Render(" SCROLL")
	}

	lines := []string{m.panelTitle(FocusTranscript, "ТРАНСКРИПЦИЯ") + badge}
	contentHeight := height - 1

	display := m.transcriptDisplayLines()
	if len(display) == 0 {
		lines = append(lines, "")
		if m.state == session.StateRecording {
			lines = append(lines, ui.DimStyle.Render("  Говорите, распознанная речь появится здесь"))
		} else {
			lines = append(lines, ui.DimStyle.Render("  Нажмите Ctrl+R, чтобы начать запись"))
		}
	} else {
		start := 0
		if m.transcriptLive {
			if len(display) > contentHeight {
				start = len(display) - contentHeight
			}
		} else {
			start = m.transcriptScroll
		}
		start = max(0, start)
		end := min(start+contentHeight, len(display))
		lines = append(lines, display[start:end]...)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Ошибка: ") + ui.ErrorTextStyle.Render(strings.TrimPrefix(m.errorMessage, "Ошибка: "))
}

func (m Model) renderReportLink() string {
	return ui.SuccessStyle.Render("Заключение: ") + ui.LinkStyle.Render(m.reportPath) +
		ui.DimStyle.Render("  (o — открыть)")
}

func (m Model) renderFooter() string {
	var parts []string
	key := func(k, desc string) {
		parts = append(parts, ui.FooterKeyStyle.Render(k)+ui.FooterDescStyle.Render(" "+desc))
	}

	switch m.state {
	case session.StateRecording:
		key("Ctrl+R", "Стоп")
	case session.StateIdle:
		key("Ctrl+R", "Запись")
	}
	key("Tab", "Фокус")
	if m.focusedPanel == FocusDoctor && !m.state.Busy() {
		key("↑↓", "Врач")
		key("n", "Добавить врача")
	}
	if m.focusedPanel == FocusPatient && !m.state.Busy() {
		key("Enter", "Сохранить пациента")
	}
	if m.focusedPanel == FocusTranscript {
		key("↑↓", "Прокрутка")
	}
	if m.reportPath != "" {
		key("Ctrl+O", "Открыть")
	}
	key("Ctrl+C", "Выход")

	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current []rune
		for _, word := range strings.Fields(paragraph) {
			w := []rune(word)
			if len(current) == 0 {
				current = w
			} else if len(current)+1+len(w) <= width {
				current = append(append(current, ' '), w...)
			} else {
				lines = append(lines, string(current))
				current = w
			}
		}
		lines = append(lines, string(current))
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

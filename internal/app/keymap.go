package app

// Key binding constants used in handleKey. Letter keys only act outside
// text inputs; the ctrl bindings work everywhere.
const (
	KeyCtrlC      = "ctrl+c"
	KeyQuit       = "q"
	KeyToggle     = "ctrl+r"
	KeySpace      = " "
	KeyTab        = "tab"
	KeyShiftTab   = "shift+tab"
	KeyUp         = "up"
	KeyDown       = "down"
	KeyJ          = "j"
	KeyK          = "k"
	KeyEnter      = "enter"
	KeyEsc        = "esc"
	KeyBackspace  = "backspace"
	KeyOpenReport = "o"
	KeyCtrlO      = "ctrl+o"
	KeyAddDoctor  = "n"
	KeyCtrlN      = "ctrl+n"
	KeyDismissErr = "x"
)

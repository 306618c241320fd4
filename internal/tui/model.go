package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"passeq/internal/passfile"
	"passeq/internal/sequence"
	"passeq/internal/watch"
)

// inputAction says what the text prompt's value will be used for.
type inputAction int

const (
	actionNone inputAction = iota
	actionRename
	actionNewPass
	actionNewFolder
	actionDuplicate
	actionSetType
)

func (a inputAction) prompt() string {
	switch a {
	case actionRename:
		return "Rename to: "
	case actionNewPass:
		return "New pass name: "
	case actionNewFolder:
		return "New folder name: "
	case actionDuplicate:
		return "Copy name: "
	case actionSetType:
		return "New type: "
	}
	return ""
}

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Seq     *sequence.Sequence
	Changes <-chan watch.Event
	Log     *zap.Logger
	Err     error
	Status  string

	// UI State
	SelectedIdx int
	WindowSize  tea.WindowSizeMsg
	RightFocus  bool // Preview panel has the keyboard
	ShowHelp    bool

	// Prompt State
	InputMode   bool
	InputAction inputAction
	PassKind    passfile.Kind // Kind for a pending new pass
	InputBuffer textinput.Model

	// Components
	PreviewViewport viewport.Model
	HelpViewport    viewport.Model
}

// InitialModel returns the initial state for seq. changes may be nil when
// the spec directory is not watched.
func InitialModel(seq *sequence.Sequence, changes <-chan watch.Event, log *zap.Logger) AppModel {
	ti := textinput.New()
	ti.Placeholder = "name..."
	ti.CharLimit = 64
	ti.Width = 30

	if log == nil {
		log = zap.NewNop()
	}

	m := AppModel{
		Seq:             seq,
		Changes:         changes,
		Log:             log,
		InputBuffer:     ti,
		PreviewViewport: viewport.New(40, 10),
		HelpViewport:    viewport.New(80, 20),
	}
	m.refreshPreview()
	return m
}

// Init starts listening for external edits.
func (m AppModel) Init() tea.Cmd {
	return waitForChange(m.Changes)
}

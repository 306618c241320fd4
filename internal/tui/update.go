package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"passeq/internal/model"
	"passeq/internal/passfile"
	"passeq/internal/sequence"
	"passeq/internal/watch"
)

// MsgSequenceChanged reports that a watched file changed on disk.
type MsgSequenceChanged watch.Event

// MsgError indicates an error occurred.
type MsgError error

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		l := newLayout(msg.Width, msg.Height)
		m.PreviewViewport.Width = l.rightWidth
		m.PreviewViewport.Height = l.previewHeight
		m.HelpViewport.Width = msg.Width
		m.HelpViewport.Height = msg.Height - 2
		if m.ShowHelp {
			m.HelpViewport.SetContent(renderHelp(msg.Width))
		}
		return m, nil

	case MsgSequenceChanged:
		m.reload(fmt.Sprintf("Reloaded after %s of %s", msg.Op, model.BaseName(msg.Path)))
		return m, waitForChange(m.Changes)

	case MsgError:
		m.Err = msg
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.applyInput(strings.TrimSpace(m.InputBuffer.Value()))
				return m, nil
			case tea.KeyEsc:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.InputAction = actionNone
				m.InputBuffer.SetValue("")
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			return m, cmd
		}

		if m.ShowHelp {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "?", "q":
				m.ShowHelp = false
				return m, nil
			}
			m.HelpViewport, cmd = m.HelpViewport.Update(msg)
			return m, cmd
		}

		if m.RightFocus {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "tab", "esc":
				m.RightFocus = false
				return m, nil
			}
			m.PreviewViewport, cmd = m.PreviewViewport.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			m.Err = nil
			m.Status = ""
		case "up", "k":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.refreshPreview()
			}
		case "down", "j":
			if m.SelectedIdx < m.Seq.Count()-1 {
				m.SelectedIdx++
				m.refreshPreview()
			}
		case "home", "g":
			m.SelectedIdx = 0
			m.refreshPreview()
		case "end", "G":
			m.SelectedIdx = max(m.Seq.Count()-1, 0)
			m.refreshPreview()
		case "K", "shift+up":
			m.move(sequence.Up)
		case "J", "shift+down":
			m.move(sequence.Down)
		case "enter":
			if r := m.selected(); r.Exists() {
				m.Seq.SetCurrentPass(r.PassNumber)
				m.Status = fmt.Sprintf("Current pass %d (%s)", r.PassNumber, r.Name)
			}
		case " ":
			if r := m.selected(); r.Exists() {
				m.afterEdit(r, m.Seq.SetActive(r.Type, r.Name, !r.Active), "Toggled "+r.Name)
			}
		case "r":
			if r := m.selected(); r.Exists() {
				return m, m.startInput(actionRename, r.Name)
			}
		case "n", "c", "e":
			m.PassKind = map[string]passfile.Kind{"n": passfile.Rules, "c": passfile.Code, "e": passfile.Decl}[msg.String()]
			return m, m.startInput(actionNewPass, "")
		case "f":
			return m, m.startInput(actionNewFolder, "")
		case "y":
			if r := m.selected(); r.Exists() && r.FilePath != "" {
				return m, m.startInput(actionDuplicate, r.Name+"_copy")
			}
		case "t":
			if r := m.selected(); r.Exists() {
				return m, m.startInput(actionSetType, r.Type)
			}
		case "T":
			if r := m.selected(); r.Exists() {
				m.afterEdit(r, m.Seq.SetType(r.Type, r.Name, model.Tokenizers[0]), "Marked "+r.Name+" as tokenizer")
			}
		case "d", "D":
			if r := m.selected(); r.Exists() {
				mode := sequence.DeleteRegion
				if msg.String() == "D" {
					mode = sequence.DeleteBoundary
				}
				err := m.Seq.Delete(r.Type, r.Name, mode)
				m.afterEdit(nil, err, "Deleted "+r.Name)
			}
		case "x":
			if err := m.Seq.TouchTraceArtifacts(); err != nil {
				m.Err = err
			} else {
				m.Status = "Trace files created"
			}
		case "ctrl+r":
			m.reload("Reloaded")
		case "tab":
			m.RightFocus = true
		case "?":
			m.ShowHelp = true
			m.HelpViewport.SetContent(renderHelp(m.WindowSize.Width))
			m.HelpViewport.GotoTop()
		}
	}

	return m, cmd
}

func (m *AppModel) selected() *model.Record {
	return m.Seq.ByRow(m.SelectedIdx)
}

func (m *AppModel) move(dir sequence.Direction) {
	r := m.selected()
	if !r.Exists() {
		return
	}
	err := m.Seq.Move(r.Type, r.Name, dir)
	m.afterEdit(r, err, fmt.Sprintf("Moved %s %s", r.Name, dir))
}

func (m *AppModel) startInput(action inputAction, value string) tea.Cmd {
	m.InputMode = true
	m.InputAction = action
	m.InputBuffer.Prompt = action.prompt()
	m.InputBuffer.SetValue(value)
	m.InputBuffer.CursorEnd()
	m.InputBuffer.Focus()
	return textinput.Blink
}

// applyInput runs the edit the prompt was opened for.
func (m *AppModel) applyInput(value string) {
	action := m.InputAction
	m.InputAction = actionNone
	m.InputBuffer.SetValue("")
	if value == "" {
		return
	}

	r := m.selected()
	var err error
	switch action {
	case actionRename:
		err = m.Seq.Rename(r.Type, r.Name, value)
		m.afterEdit(r, err, "Renamed to "+value)
	case actionNewPass:
		if r.Exists() {
			err = m.Seq.InsertNewPass(r.Type, r.Name, value, m.PassKind)
		} else {
			err = m.Seq.InsertNewPassAtEnd(value, m.PassKind)
		}
		m.afterEdit(m.Seq.FindByFilename(value), err, fmt.Sprintf("Created %s pass %s", m.PassKind, value))
	case actionNewFolder:
		if r.Exists() {
			err = m.Seq.InsertNewFolder(r.Type, r.Name, value)
		} else {
			err = m.Seq.InsertNewFolderAtEnd(value)
		}
		m.afterEdit(m.Seq.Find(model.TypeFolder, value), err, "Created folder "+value)
	case actionDuplicate:
		err = m.Seq.Duplicate(r.Type, r.Name, value)
		m.afterEdit(m.Seq.FindByFilename(value), err, "Duplicated as "+value)
	case actionSetType:
		err = m.Seq.SetType(r.Type, r.Name, value)
		m.afterEdit(r, err, "Type set to "+value)
	}
}

// afterEdit reports the outcome of an edit and keeps focus on keep when it
// is still in the list.
func (m *AppModel) afterEdit(keep *model.Record, err error, status string) {
	if err != nil {
		m.Err = err
		m.Log.Warn("edit failed", zap.Error(err))
	} else {
		m.Err = nil
		m.Status = status
	}
	if keep.Exists() && m.Seq.ByRow(keep.Row) == keep {
		m.SelectedIdx = keep.Row
	}
	m.clampSelection()
	m.refreshPreview()
}

func (m *AppModel) reload(status string) {
	var keepType, keepName string
	if r := m.selected(); r.Exists() {
		keepType, keepName = r.Type, r.Name
	}
	if err := m.Seq.Reload(); err != nil {
		m.Err = err
		return
	}
	if r := m.Seq.Find(keepType, keepName); r.Exists() {
		m.SelectedIdx = r.Row
	}
	m.Err = nil
	m.Status = status
	m.clampSelection()
	m.refreshPreview()
}

func (m *AppModel) clampSelection() {
	if m.SelectedIdx >= m.Seq.Count() {
		m.SelectedIdx = m.Seq.Count() - 1
	}
	if m.SelectedIdx < 0 {
		m.SelectedIdx = 0
	}
}

// refreshPreview loads the selected record's content into the preview panel.
func (m *AppModel) refreshPreview() {
	m.PreviewViewport.SetContent(previewText(m.Seq, m.selected()))
	m.PreviewViewport.GotoTop()
}

func previewText(seq *sequence.Sequence, r *model.Record) string {
	switch {
	case !r.Exists():
		return "(nothing selected)"
	case r.IsOpener():
		var b strings.Builder
		for _, inner := range seq.FolderRecords(r.Type, r.Name, false) {
			fmt.Fprintf(&b, "%s %s %s\n", model.StatusIcon(inner), inner.Type, inner.Name)
		}
		if b.Len() == 0 {
			return "(empty folder)"
		}
		return strings.TrimSuffix(b.String(), "\n")
	case r.FilePath != "":
		if !r.FileExists() {
			return "(file missing: " + r.FilePath + ")"
		}
		return model.Preview(r.FilePath, 0)
	}
	return r.Comment
}

// waitForChange blocks on the watcher channel and turns the next event into
// a message. A nil channel disables reloading.
func waitForChange(ch <-chan watch.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return MsgSequenceChanged(ev)
	}
}

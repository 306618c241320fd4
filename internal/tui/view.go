package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"passeq/internal/artifact"
	"passeq/internal/model"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	normalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	folderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true) // Sky Blue/Cyan
	firedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	currentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // Orange
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpLineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeColor    = lipgloss.Color("205")
	borderColor    = lipgloss.Color("63")
)

const detailLabelFmt = "%-10s %s\n"

// layout holds the panel dimensions for a terminal size.
type layout struct {
	leftWidth      int
	rightWidth     int
	interiorHeight int
	previewHeight  int
}

// detailLines is how many lines the details block above the preview takes.
const detailLines = 9

func newLayout(width, height int) layout {
	// 6 columns for borders and gaps, 6 rows for borders, footer and prompt
	netWidth := width - 6
	if netWidth < 20 {
		netWidth = 20
	}
	leftWidth := netWidth / 2

	boxHeight := height - 6
	if boxHeight < 6 {
		boxHeight = 6
	}
	interior := boxHeight - 2
	if interior < 2 {
		interior = 2
	}
	preview := interior - detailLines - 1
	if preview < 1 {
		preview = 1
	}
	return layout{
		leftWidth:      leftWidth,
		rightWidth:     netWidth - leftWidth,
		interiorHeight: interior,
		previewHeight:  preview,
	}
}

func (m AppModel) View() string {
	if m.ShowHelp {
		return m.HelpViewport.View() + "\n" + helpLineStyle.Render("↑/↓: Scroll • esc/?: Close")
	}

	l := newLayout(m.WindowSize.Width, m.WindowSize.Height)

	left := lipgloss.NewStyle().
		Width(l.leftWidth).
		Height(l.interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(m.borderFor(!m.RightFocus)).
		Render(m.listView(l))

	right := lipgloss.NewStyle().
		Width(l.rightWidth).
		Height(l.interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(m.borderFor(m.RightFocus)).
		Render(m.detailView(l))

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	switch {
	case m.InputMode:
		b.WriteString(m.InputBuffer.View())
	case m.Err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.Err.Error()))
	case m.Status != "":
		b.WriteString(statusStyle.Render(m.Status))
	}
	b.WriteString("\n")

	help := "↑/↓: Select • K/J: Move • space: On/Off • r: Rename • n/c/e: New Pass • f: Folder • d/D: Delete • ?: Help • q: Quit"
	if m.RightFocus {
		help = "Preview: ↑/↓/PgUp/PgDn: Scroll • Tab: Back to List • q: Quit"
	}
	b.WriteString(helpLineStyle.Render(help))
	return b.String()
}

func (m AppModel) borderFor(focused bool) lipgloss.TerminalColor {
	if focused {
		return activeColor
	}
	return borderColor
}

// listView renders the visible window of the sequence.
func (m AppModel) listView(l layout) string {
	var b strings.Builder
	sum := m.Seq.Summarize()
	b.WriteString(titleStyle.Render(fmt.Sprintf("Sequence (%d passes)", sum.Passes)))
	b.WriteString("\n\n")

	records := m.Seq.Records()
	if len(records) == 0 {
		b.WriteString(dimStyle.Render("Empty sequence. Press n to add a pass."))
		return b.String()
	}

	// Header is 2 lines (Title + 1 blank line)
	visible := l.interiorHeight - 2
	if visible < 1 {
		visible = 1
	}
	start, end := 0, len(records)
	if len(records) > visible {
		if m.SelectedIdx >= visible/2 {
			start = m.SelectedIdx - visible/2
		}
		if start+visible > len(records) {
			start = len(records) - visible
		}
		end = start + visible
	}

	current := m.Seq.CurrentPass()
	for i := start; i < end; i++ {
		r := records[i]
		num := "   "
		if r.Counted() && !r.InFolder {
			num = fmt.Sprintf("%3d", r.PassNumber)
		}
		indent := ""
		if r.InFolder {
			indent = "  "
		}
		name := r.Name
		if r.IsComment() {
			name = "# " + r.Comment
		} else if r.IsEndTag() {
			name = "end " + r.Name
		}
		line := fmt.Sprintf("%s %s %s%s", num, model.StatusIcon(r), indent, name)
		if r.Tokenizer {
			line += " (" + r.Type + ")"
		}
		if len(line) > l.leftWidth-2 && l.leftWidth > 5 {
			line = line[:l.leftWidth-5] + "..."
		}

		var style lipgloss.Style
		switch {
		case i == m.SelectedIdx:
			style = selectedStyle
		case !r.Active || r.IsComment():
			style = dimStyle
		case current > 0 && r.PassNumber == current:
			style = currentStyle
		case r.IsOpener() || r.IsEndTag():
			style = folderStyle
		case r.Highlight:
			style = firedStyle
		default:
			style = normalStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// detailView renders the selected record's fields above the file preview.
func (m AppModel) detailView(l layout) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Details"))
	b.WriteString("\n")

	r := m.selected()
	if !r.Exists() {
		b.WriteString("\nNo pass selected.")
		return b.String()
	}

	state := "enabled"
	if !r.Active {
		state = "disabled"
	}
	file := r.FilePath
	switch {
	case file == "":
		file = "-"
	case !r.FileExists():
		file += " (missing)"
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, detailLabelFmt, "Name:", r.Name)
	fmt.Fprintf(&b, detailLabelFmt, "Type:", r.Type+" ("+state+")")
	fmt.Fprintf(&b, detailLabelFmt, "Pass:", fmt.Sprintf("%d (row %d)", r.PassNumber, r.Row+1))
	fmt.Fprintf(&b, detailLabelFmt, "File:", file)
	fmt.Fprintf(&b, detailLabelFmt, "Output:", m.artifactSummary(r.PassNumber))
	fmt.Fprintf(&b, detailLabelFmt, "Comment:", r.Comment)

	header := " Preview "
	headerStyle := dimStyle.Bold(true)
	if m.RightFocus {
		header = " Preview (Active) "
		headerStyle = titleStyle
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(m.PreviewViewport.View())
	return b.String()
}

// artifactSummary lists which per-pass output files exist for n.
func (m AppModel) artifactSummary(n int) string {
	if n < 1 {
		return "-"
	}
	var parts []string
	for _, kind := range []artifact.Kind{artifact.KindTree, artifact.KindTrace, artifact.KindKB} {
		if model.Exists(m.Seq.OutputFile(n, kind)) {
			parts = append(parts, artifact.FileName(n, kind))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// renderHelp renders the user guide for the terminal, falling back to the
// raw markdown when glamour cannot.
func renderHelp(width int) string {
	text := model.Help()
	if width < 20 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

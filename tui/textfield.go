package tui

import (
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

const (
	copyLabel   = "ctrl+y copy"
	copiedLabel = "Copied"

	narrowFieldWidth = 36
	wideFieldWidth   = 72
)

// textField is a labelled single-line input. It owns its own value and only
// reports it on request, so callers decide when edits take effect.
type textField struct {
	id       string
	label    string
	info     string
	input    textinput.Model
	dirty    bool
	copyable bool
	copied   bool
	copyErr  string
	width    int // 0 = derive from the terminal width
}

func newTextField(id, label string) textField {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 4096
	in.Width = narrowFieldWidth
	return textField{id: id, label: label, input: in}
}

func (f *textField) setValue(v string)       { f.input.SetValue(v) }
func (f textField) value() string            { return f.input.Value() }
func (f *textField) setPlaceholder(p string) { f.input.Placeholder = p }
func (f textField) focused() bool            { return f.input.Focused() }

func (f *textField) focus() tea.Cmd {
	return f.input.Focus()
}

func (f *textField) blur() {
	f.input.Blur()
	f.copied = false
}

// resize picks the input width for the current terminal.
func (f *textField) resize(termWidth int) {
	switch {
	case f.width > 0:
		f.input.Width = f.width
	case termWidth > fullPageWidth:
		f.input.Width = wideFieldWidth
	default:
		f.input.Width = narrowFieldWidth
	}
}

func (f textField) update(msg tea.Msg) (textField, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if f.copyable && key.String() == "ctrl+y" {
			f.copy()
			return f, nil
		}
		f.copied = false
		f.copyErr = ""
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

func (f *textField) copy() {
	if err := writeClipboard(f.input.Value()); err != nil {
		f.copyErr = err.Error()
		f.copied = false
		return
	}
	f.copyErr = ""
	f.copied = true
}

func (f textField) view() string {
	var b strings.Builder

	label := f.label
	if f.dirty {
		label += dirtyStyle.Render(" *")
	}
	if f.input.Focused() {
		b.WriteString(selectedStyle.Render(label))
	} else {
		b.WriteString(dimStyle.Render(label))
	}
	if f.info != "" {
		b.WriteString(dimStyle.Render("  (" + f.info + ")"))
	}
	b.WriteString("\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor)
	if f.input.Focused() {
		box = box.BorderForeground(primaryColor)
	}
	field := box.Render(f.input.View())

	if f.copyable {
		switch {
		case f.copyErr != "":
			field = lipgloss.JoinHorizontal(lipgloss.Center, field, " ", errorStyle.Render(f.copyErr))
		case f.copied:
			field = lipgloss.JoinHorizontal(lipgloss.Center, field, " ", successStyle.Render(copiedLabel))
		default:
			field = lipgloss.JoinHorizontal(lipgloss.Center, field, " ", dimStyle.Render(copyLabel))
		}
	}
	b.WriteString(field)
	return b.String()
}

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dopejs/staticenv/internal/envvar"
)

const (
	editFieldName = iota
	editFieldValue
	editFieldCount
)

// editPanel adds a new variable or edits an existing one.
type editPanel struct {
	index    int // -1 when adding
	original envvar.Variable
	fields   [editFieldCount]textField
	focus    int
	err      string
}

func newEditPanel(vars []envvar.Variable, index, termWidth int) (editPanel, tea.Cmd) {
	p := editPanel{index: -1}
	p.fields[editFieldName] = newTextField("name", "Name")
	p.fields[editFieldName].setPlaceholder("API_KEY")
	p.fields[editFieldValue] = newTextField("value", "Value")
	p.fields[editFieldValue].copyable = true

	if index >= 0 && index < len(vars) {
		p.index = index
		p.original = vars[index]
		p.fields[editFieldName].setValue(p.original.Name)
		p.fields[editFieldValue].setValue(p.original.Value)
	}
	for i := range p.fields {
		p.fields[i].resize(termWidth)
	}
	cmd := p.fields[p.focus].focus()
	return p, cmd
}

func (p editPanel) adding() bool { return p.index < 0 }

// variable returns the entered variable with surrounding spaces stripped
// from the name.
func (p editPanel) variable() envvar.Variable {
	return envvar.Variable{
		Name:  strings.TrimSpace(p.fields[editFieldName].value()),
		Value: p.fields[editFieldValue].value(),
	}
}

// onLastField reports whether enter should submit rather than advance.
func (p editPanel) onLastField() bool { return p.focus == editFieldCount-1 }

func (p editPanel) update(msg tea.Msg) (editPanel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down", "enter":
			return p.moveFocus(1)
		case "shift+tab", "up":
			return p.moveFocus(-1)
		}
	}

	var cmd tea.Cmd
	p.fields[p.focus], cmd = p.fields[p.focus].update(msg)
	p.fields[editFieldName].dirty = !p.adding() && p.fields[editFieldName].value() != p.original.Name
	p.fields[editFieldValue].dirty = !p.adding() && p.fields[editFieldValue].value() != p.original.Value
	return p, cmd
}

func (p editPanel) moveFocus(delta int) (editPanel, tea.Cmd) {
	p.fields[p.focus].blur()
	p.focus = (p.focus + delta + editFieldCount) % editFieldCount
	cmd := p.fields[p.focus].focus()
	return p, cmd
}

func (p *editPanel) resize(termWidth int) {
	for i := range p.fields {
		p.fields[i].resize(termWidth)
	}
}

func (p editPanel) view() string {
	var b strings.Builder
	if p.adding() {
		b.WriteString(panelHeader("➕", "Add variable"))
	} else {
		b.WriteString(panelHeader("✏️", fmt.Sprintf("Edit variable: %s", p.original.Name)))
	}
	b.WriteString("\n\n")

	var content strings.Builder
	for i := range p.fields {
		if i > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(p.fields[i].view())
	}
	b.WriteString(lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(content.String()))
	b.WriteString("\n")

	if p.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + p.err))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("  tab next • " + saveKeyHint() + " save • esc cancel"))
	return b.String()
}

// bulkPanel edits the whole list as a JSON document.
type bulkPanel struct {
	editor textarea.Model
	err    string
}

func newBulkPanel(vars []envvar.Variable, termWidth, termHeight int) (bulkPanel, tea.Cmd) {
	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.SetValue(envvar.FormatBulk(vars))
	p := bulkPanel{editor: ta}
	p.resize(termWidth, termHeight)
	cmd := p.editor.Focus()
	return p, cmd
}

func (p *bulkPanel) resize(termWidth, termHeight int) {
	contentWidth, contentHeight, _, _ := LayoutDimensions(termWidth, termHeight)
	if contentWidth < 20 {
		contentWidth = 20
	}
	height := contentHeight - 8
	if height < 5 {
		height = 5
	}
	p.editor.SetWidth(contentWidth - 4)
	p.editor.SetHeight(height)
}

func (p bulkPanel) text() string { return p.editor.Value() }

func (p bulkPanel) update(msg tea.Msg) (bulkPanel, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		p.err = ""
	}
	var cmd tea.Cmd
	p.editor, cmd = p.editor.Update(msg)
	return p, cmd
}

func (p bulkPanel) view() string {
	var b strings.Builder
	b.WriteString(panelHeader("☰", "Bulk edit"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(`A JSON array of {"name": ..., "value": ...} objects. Comments are allowed.`))
	b.WriteString("\n\n")
	b.WriteString(p.editor.View())
	b.WriteString("\n")
	if p.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + p.err))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("  " + saveKeyHint() + " apply • esc cancel"))
	return b.String()
}

// renderDialog draws a yes/no confirmation box.
func renderDialog(title, message string) string {
	body := sectionTitleStyle.Render(title) + "\n" +
		message + "\n\n" +
		dimStyle.Render("y confirm • n cancel")
	return dialogStyle.Render(body)
}

package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dropdownOption struct {
	key  string
	text string
}

// dropdownChangedMsg is emitted when the user picks an option other than the
// current one.
type dropdownChangedMsg struct {
	id  string
	key string
}

// dropdown is a labelled single-choice list that expands in place.
type dropdown struct {
	id       string
	label    string
	info     string
	options  []dropdownOption
	selected int
	cursor   int
	open     bool
	disabled bool
	width    int // 0 = derive from the terminal width
	rendered int
}

func newDropdown(id, label string) dropdown {
	return dropdown{id: id, label: label, selected: -1, rendered: narrowFieldWidth}
}

// setOptions replaces the option list, keeping selectedKey selected.
func (d *dropdown) setOptions(opts []dropdownOption, selectedKey string) {
	d.options = opts
	d.selectKey(selectedKey)
	if d.cursor >= len(opts) {
		d.cursor = 0
	}
}

func (d *dropdown) selectKey(key string) {
	d.selected = -1
	for i, o := range d.options {
		if o.key == key {
			d.selected = i
			break
		}
	}
	if !d.open && d.selected >= 0 {
		d.cursor = d.selected
	}
}

func (d dropdown) selectedKey() string {
	if d.selected < 0 || d.selected >= len(d.options) {
		return ""
	}
	return d.options[d.selected].key
}

func (d *dropdown) resize(termWidth int) {
	switch {
	case d.width > 0:
		d.rendered = d.width
	case termWidth > fullPageWidth:
		d.rendered = wideFieldWidth
	default:
		d.rendered = narrowFieldWidth
	}
}

func (d *dropdown) setDisabled(disabled bool) {
	d.disabled = disabled
	if disabled {
		d.open = false
	}
}

func (d dropdown) update(msg tea.Msg) (dropdown, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || d.disabled || len(d.options) == 0 {
		return d, nil
	}

	if !d.open {
		switch key.String() {
		case "enter", " ", "down", "j":
			d.open = true
			if d.selected >= 0 {
				d.cursor = d.selected
			}
		}
		return d, nil
	}

	switch key.String() {
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
	case "down", "j":
		if d.cursor < len(d.options)-1 {
			d.cursor++
		}
	case "esc":
		d.open = false
		if d.selected >= 0 {
			d.cursor = d.selected
		}
	case "enter", " ":
		d.open = false
		if d.cursor == d.selected {
			return d, nil
		}
		id, picked := d.id, d.options[d.cursor].key
		return d, func() tea.Msg { return dropdownChangedMsg{id: id, key: picked} }
	}
	return d, nil
}

func (d dropdown) view(focused bool) string {
	var b strings.Builder

	labelStyle := dimStyle
	if focused && !d.disabled {
		labelStyle = selectedStyle
	}
	b.WriteString(labelStyle.Render(d.label))
	if d.info != "" {
		b.WriteString(dimStyle.Render("  (" + d.info + ")"))
	}
	b.WriteString("\n")

	current := "(none)"
	if d.selected >= 0 && d.selected < len(d.options) {
		current = d.options[d.selected].text
	}
	arrow := "▾"
	if d.open {
		arrow = "▴"
	}
	frame := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Width(d.rendered)
	textStyle := lipgloss.NewStyle()
	switch {
	case d.disabled:
		textStyle = disabledStyle
	case focused:
		frame = frame.BorderForeground(primaryColor)
	}
	b.WriteString(frame.Render(textStyle.Render(truncate(current, d.rendered-2) + " " + arrow)))

	if d.open {
		for i, o := range d.options {
			prefix := "  "
			style := tableRowStyle
			if i == d.cursor {
				prefix = "▸ "
				style = tableSelectedRowStyle
			}
			b.WriteString("\n")
			b.WriteString(style.Render(prefix + truncate(o.text, d.rendered)))
		}
	}
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

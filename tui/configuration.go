package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	humanize "github.com/dustin/go-humanize"

	"github.com/dopejs/staticenv/internal/console"
	"github.com/dopejs/staticenv/internal/envvar"
)

const maskedValue = "••••••••"

type focusArea int

const (
	focusTable focusArea = iota
	focusSelector
	focusFilter
)

// configurationModel draws a console.Session and turns keys into session
// events. It never talks to a Source directly.
type configurationModel struct {
	session  *console.Session
	selector dropdown
	filter   textField
	edit     editPanel
	bulk     bulkPanel
	focus    focusArea
	cursor   int // index into session.Visible()
	status   string
	width    int
	height   int
}

func newConfigurationModel(s *console.Session) configurationModel {
	m := configurationModel{
		session:  s,
		selector: newDropdown("environment", "Environment"),
		filter:   newTextField("filter", "Filter"),
	}
	m.filter.setPlaceholder("filter by name")
	m.sync()
	return m
}

// sync copies session state the child controls mirror.
func (m *configurationModel) sync() {
	envs := m.session.Environments()
	opts := make([]dropdownOption, len(envs))
	for i, env := range envs {
		opts[i] = dropdownOption{key: env.ID, text: env.DisplayName()}
	}
	selected := ""
	if env := m.session.Selected(); env != nil {
		selected = env.ID
		m.selector.info = environmentInfo(*env)
	} else {
		m.selector.info = ""
	}
	m.selector.setOptions(opts, selected)
	m.selector.setDisabled(m.session.SelectorDisabled())
	if m.focus == focusSelector && m.selector.disabled {
		m.focus = focusTable
	}
	m.clampCursor()
}

func environmentInfo(env envvar.Environment) string {
	var parts []string
	if env.Hostname != "" {
		parts = append(parts, env.Hostname)
	}
	if !env.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+humanize.Time(env.UpdatedAt))
	}
	return strings.Join(parts, " · ")
}

func (m *configurationModel) clampCursor() {
	n := len(m.session.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// currentRow returns the row under the cursor.
func (m configurationModel) currentRow() (console.VisibleRow, bool) {
	rows := m.session.Visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return console.VisibleRow{}, false
	}
	return rows[m.cursor], true
}

func (m configurationModel) update(msg tea.Msg) (configurationModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filter.resize(msg.Width)
		m.selector.resize(msg.Width)
		switch m.session.Panel() {
		case console.PanelEdit:
			m.edit.resize(msg.Width)
		case console.PanelBulk:
			m.bulk.resize(msg.Width, msg.Height)
		}
		return m, nil

	case dropdownChangedMsg:
		if msg.id != m.selector.id {
			return m, nil
		}
		for _, env := range m.session.Environments() {
			if env.ID == msg.key {
				m.session.RequestEnvironmentChange(env)
				break
			}
		}
		m.focus = focusTable
		m.cursor = 0
		m.sync()
		return m, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		m.sync()
		return m, cmd
	}

	// Non-key messages (cursor blinks) go to whichever input is focused.
	var cmd tea.Cmd
	switch {
	case m.session.Panel() == console.PanelEdit:
		m.edit, cmd = m.edit.update(msg)
	case m.session.Panel() == console.PanelBulk:
		m.bulk, cmd = m.bulk.update(msg)
	case m.focus == focusFilter:
		m.filter, cmd = m.filter.update(msg)
	}
	return m, cmd
}

func (m configurationModel) handleKey(msg tea.KeyMsg) (configurationModel, tea.Cmd) {
	s := m.session
	switch {
	case s.ChangeDialogVisible():
		return m.handleDialog(msg, s.ConfirmEnvironmentChange, s.DismissEnvironmentChange)
	case s.DiscardDialogVisible():
		return m.handleDialog(msg, s.ConfirmDiscard, s.DismissDiscard)
	case s.RefreshDialogVisible():
		return m.handleDialog(msg, s.ConfirmRefresh, s.DismissRefresh)
	case s.Panel() == console.PanelEdit:
		return m.handleEditPanel(msg)
	case s.Panel() == console.PanelBulk:
		return m.handleBulkPanel(msg)
	}

	switch m.focus {
	case focusFilter:
		return m.handleFilter(msg)
	case focusSelector:
		return m.handleSelector(msg)
	}
	return m.handleTable(msg)
}

func (m configurationModel) handleDialog(msg tea.KeyMsg, confirm, dismiss func()) (configurationModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		confirm()
		m.cursor = 0
	case "n", "N", "esc":
		dismiss()
	}
	return m, nil
}

func (m configurationModel) handleEditPanel(msg tea.KeyMsg) (configurationModel, tea.Cmd) {
	key := msg.String()
	submit := (key == "enter" && m.edit.onLastField()) || isSaveKey(key)
	switch {
	case key == "esc":
		m.session.CancelPanel()
		return m, nil
	case submit:
		v := m.edit.variable()
		adding := m.edit.adding()
		if err := m.session.Upsert(v); err != nil {
			m.edit.err = err.Error()
			return m, nil
		}
		if adding {
			m.status = fmt.Sprintf("Added %s", v.Name)
		} else {
			m.status = fmt.Sprintf("Updated %s", v.Name)
		}
		m.moveCursorTo(v.Name)
		return m, nil
	}

	var cmd tea.Cmd
	m.edit, cmd = m.edit.update(msg)
	m.edit.err = ""
	return m, cmd
}

func (m configurationModel) handleBulkPanel(msg tea.KeyMsg) (configurationModel, tea.Cmd) {
	key := msg.String()
	switch {
	case key == "esc":
		m.session.CancelPanel()
		return m, nil
	case isSaveKey(key):
		vars, err := envvar.ParseBulk(m.bulk.text())
		if err != nil {
			m.bulk.err = err.Error()
			return m, nil
		}
		m.session.Commit(vars)
		m.status = fmt.Sprintf("Applied %d variables", len(vars))
		m.cursor = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.bulk, cmd = m.bulk.update(msg)
	return m, cmd
}

func (m configurationModel) handleFilter(msg tea.KeyMsg) (configurationModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.session.ToggleFilter()
		m.filter.setValue("")
		m.filter.blur()
		m.focus = focusTable
		return m, nil
	case "enter", "tab", "down":
		m.filter.blur()
		m.focus = focusTable
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.update(msg)
	m.session.SetFilter(m.filter.value())
	m.cursor = 0
	return m, cmd
}

func (m configurationModel) handleSelector(msg tea.KeyMsg) (configurationModel, tea.Cmd) {
	if !m.selector.open {
		switch msg.String() {
		case "tab", "esc":
			m.focus = focusTable
			return m, nil
		case "q":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.selector, cmd = m.selector.update(msg)
	return m, cmd
}

func (m configurationModel) handleTable(msg tea.KeyMsg) (configurationModel, tea.Cmd) {
	s := m.session
	m.status = ""

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		if s.FilterVisible() {
			s.ToggleFilter()
			m.filter.setValue("")
			return m, nil
		}
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(s.Visible())-1 {
			m.cursor++
		}
	case "tab":
		if s.SelectorDisabled() {
			m.status = "Environment selection is unavailable"
			return m, nil
		}
		m.focus = focusSelector

	case "a":
		if s.CommandsDisabled() {
			return m.disabled()
		}
		s.OpenAdd()
		var cmd tea.Cmd
		m.edit, cmd = newEditPanel(s.Variables(), -1, m.width)
		return m, cmd
	case "e", "enter":
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		s.OpenEdit(row.Index)
		var cmd tea.Cmd
		m.edit, cmd = newEditPanel(s.Variables(), row.Index, m.width)
		return m, cmd
	case "d":
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		s.Delete(row.Index)
		m.status = fmt.Sprintf("Removed %s", row.Variable.Name)
	case "v":
		if row, ok := m.currentRow(); ok {
			s.ToggleShown(row.Variable.Name)
		}
	case "V":
		if s.CommandsDisabled() {
			return m.disabled()
		}
		s.ToggleShowAll()
	case "b":
		if s.CommandsDisabled() {
			return m.disabled()
		}
		s.OpenBulk()
		var cmd tea.Cmd
		m.bulk, cmd = newBulkPanel(s.Variables(), m.width, m.height)
		return m, cmd
	case "/":
		if s.CommandsDisabled() {
			return m.disabled()
		}
		s.ToggleFilter()
		m.filter.setValue("")
		if s.FilterVisible() {
			m.focus = focusFilter
			cmd := m.filter.focus()
			return m, cmd
		}

	case "ctrl+s", "cmd+s":
		if !isSaveKey(msg.String()) || s.SaveDisabled() {
			return m, nil
		}
		s.Save()
		m.status = "Saving…"
	case "u":
		if !s.DiscardDisabled() {
			s.RequestDiscard()
		}
	case "r":
		if !s.RefreshDisabled() {
			s.RequestRefresh()
			m.cursor = 0
		}
	}
	return m, nil
}

// isSaveKey reports whether key saves: ctrl+s everywhere, cmd+s on macOS.
func isSaveKey(key string) bool {
	return key == "ctrl+s" || (isMac && key == "cmd+s")
}

func (m configurationModel) disabled() (configurationModel, tea.Cmd) {
	m.status = "This command is unavailable right now"
	return m, nil
}

// moveCursorTo places the cursor on the visible row named name.
func (m *configurationModel) moveCursorTo(name string) {
	for i, row := range m.session.Visible() {
		if strings.EqualFold(row.Variable.Name, name) {
			m.cursor = i
			return
		}
	}
}

func (m configurationModel) view() string {
	s := m.session
	switch s.Panel() {
	case console.PanelEdit:
		return m.edit.view()
	case console.PanelBulk:
		return m.bulk.view()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Environment variables"))
	b.WriteString("\n")
	b.WriteString(m.commandBar())
	b.WriteString("\n\n")

	if banner := s.Banner(); banner != "" {
		b.WriteString(bannerStyle.Render(banner))
		b.WriteString("\n\n")
	}

	b.WriteString(m.selector.view(m.focus == focusSelector))
	b.WriteString("\n\n")

	if s.FilterVisible() {
		b.WriteString(m.filter.view())
		b.WriteString("\n\n")
	}

	b.WriteString(m.table())

	switch {
	case s.ChangeDialogVisible():
		b.WriteString("\n\n")
		b.WriteString(renderDialog("Change environment", "You have unsaved changes. Switching environments will discard them. Continue?"))
	case s.DiscardDialogVisible():
		b.WriteString("\n\n")
		b.WriteString(renderDialog("Discard changes", s.DiscardMessage()))
	case s.RefreshDialogVisible():
		b.WriteString("\n\n")
		b.WriteString(renderDialog("Refresh", "Refreshing will discard your unsaved changes. Continue?"))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		if strings.HasPrefix(m.status, "✗") {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(successStyle.Render(m.status))
		}
	}
	return b.String()
}

func (m configurationModel) commandBar() string {
	s := m.session
	showHide := "V show all"
	if s.AllShown() {
		showHide = "V hide all"
	}
	filter := "/ filter"
	if s.FilterVisible() {
		filter = "/ hide filter"
	}
	items := []struct {
		label    string
		disabled bool
	}{
		{saveKeyHint() + " save", s.SaveDisabled()},
		{"u discard", s.DiscardDisabled()},
		{"r refresh", s.RefreshDisabled()},
		{"a add", s.CommandsDisabled()},
		{showHide, s.CommandsDisabled()},
		{"b bulk edit", s.CommandsDisabled()},
		{filter, s.CommandsDisabled()},
	}
	parts := make([]string, len(items))
	for i, it := range items {
		if it.disabled {
			parts[i] = disabledStyle.Render(it.label)
		} else {
			parts[i] = selectedStyle.Render(it.label)
		}
	}
	return strings.Join(parts, dimStyle.Render(" • "))
}

func (m configurationModel) table() string {
	s := m.session
	rows := s.Visible()
	if len(rows) == 0 {
		if s.Filter() != "" {
			return dimStyle.Render("No variables match the filter.")
		}
		if s.Flags().Loading {
			return dimStyle.Render("Loading…")
		}
		return dimStyle.Render("No environment variables. Press 'a' to add one.")
	}

	nameWidth := len("Name")
	for _, row := range rows {
		if n := len([]rune(row.Variable.Name)); n > nameWidth {
			nameWidth = n
		}
	}
	if nameWidth > 40 {
		nameWidth = 40
	}
	valueWidth := narrowFieldWidth
	if m.width > fullPageWidth {
		valueWidth = wideFieldWidth
	}

	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(fmt.Sprintf("  %-*s  %s", nameWidth+2, "Name", "Value")))
	for i, row := range rows {
		b.WriteString("\n")
		marker := "  "
		if s.RowDirty(row.Index) {
			marker = dirtyStyle.Render("* ")
		}
		value := maskedValue
		if !s.IsHidden(row.Variable.Name) {
			value = truncate(row.Variable.Value, valueWidth)
		}
		line := fmt.Sprintf("%-*s  %s", nameWidth, truncate(row.Variable.Name, nameWidth), value)

		style := tableRowStyle
		cursor := "  "
		if i == m.cursor && m.focus == focusTable {
			style = tableSelectedRowStyle
			cursor = "▸ "
		}
		b.WriteString(style.Render(cursor) + marker + style.Render(line))
	}
	return b.String()
}

func (m configurationModel) helpText() string {
	s := m.session
	switch {
	case s.ChangeDialogVisible(), s.DiscardDialogVisible(), s.RefreshDialogVisible():
		return "y confirm • n cancel"
	case s.Panel() != console.PanelNone:
		return "esc cancel"
	case m.focus == focusFilter:
		return "type to filter • enter done • esc clear"
	case m.focus == focusSelector:
		return "enter open/choose • ↑/↓ move • tab back"
	}
	return "↑/↓ move • e edit • d delete • v show/hide • tab environment • q quit"
}

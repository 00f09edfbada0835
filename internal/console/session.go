// Package console holds the state of the environment variables page
// independently of how it is drawn. A Session is driven by user events and
// by data arriving from its parent; it performs no I/O itself and reports
// fetch, save and refresh requests through Actions.
package console

import (
	"fmt"

	"github.com/dopejs/staticenv/internal/envvar"
)

// Actions receives the requests a Session makes of its parent.
// Calls are fire-and-forget; results come back through SetEnvironments
// and SetVariableResponse.
type Actions interface {
	FetchForEnvironment(id string)
	Save(id string, vars []envvar.Variable)
	Refresh()
}

// Panel identifies which side panel is open.
type Panel int

const (
	PanelNone Panel = iota
	PanelEdit
	PanelBulk
)

// Flags are read-only inputs supplied by the parent.
type Flags struct {
	Loading                 bool
	HasWritePermissions     bool
	APIFailure              bool
	EnvironmentHasFunctions bool
}

// Banner messages.
const (
	BannerReadOnly    = "You do not have write permissions for this site. Variables are read-only."
	BannerNoFunctions = "This environment has no API functions. Variables are only available to functions."
)

// Session is the state of one page view.
type Session struct {
	actions Actions
	flags   Flags

	environments []envvar.Environment
	selected     *envvar.Environment

	baseline []envvar.Variable
	working  []envvar.Variable
	dirty    bool

	shown   map[string]bool
	showAll bool

	filterVisible bool
	filter        string

	panel     Panel
	editIndex int // -1 when adding

	discardDialog bool
	changeDialog  bool
	pendingEnv    *envvar.Environment
	refreshDialog bool
}

// NewSession returns an empty session reporting to actions.
func NewSession(actions Actions) *Session {
	return &Session{
		actions:   actions,
		flags:     Flags{HasWritePermissions: true, EnvironmentHasFunctions: true},
		shown:     make(map[string]bool),
		editIndex: -1,
		baseline:  []envvar.Variable{},
		working:   []envvar.Variable{},
	}
}

// SetFlags replaces the parent-supplied flags.
func (s *Session) SetFlags(f Flags) { s.flags = f }

// Flags returns the current parent-supplied flags.
func (s *Session) Flags() Flags { return s.flags }

// --- environments ---

// SetEnvironments stores the environment list. When nothing is selected the
// first environment is selected and fetched.
func (s *Session) SetEnvironments(envs []envvar.Environment) {
	s.environments = envs
	if len(envs) > 0 && s.selected == nil {
		s.changeEnvironment(&envs[0])
	}
}

// Environments returns the environments in the order supplied.
func (s *Session) Environments() []envvar.Environment { return s.environments }

// Selected returns the selected environment, or nil.
func (s *Session) Selected() *envvar.Environment { return s.selected }

// RequestEnvironmentChange switches to env, asking for confirmation first
// when there are unsaved edits.
func (s *Session) RequestEnvironmentChange(env envvar.Environment) {
	if s.dirty {
		s.pendingEnv = &env
		s.changeDialog = true
		return
	}
	s.changeEnvironment(&env)
}

// ConfirmEnvironmentChange performs the switch stashed by
// RequestEnvironmentChange.
func (s *Session) ConfirmEnvironmentChange() {
	s.changeEnvironment(nil)
}

// DismissEnvironmentChange abandons the stashed switch.
func (s *Session) DismissEnvironmentChange() {
	s.changeDialog = false
	s.pendingEnv = nil
}

// ChangeDialogVisible reports whether the environment change dialog is shown.
func (s *Session) ChangeDialogVisible() bool { return s.changeDialog }

// PendingEnvironment returns the environment awaiting confirmation, or nil.
func (s *Session) PendingEnvironment() *envvar.Environment { return s.pendingEnv }

// changeEnvironment prefers the stashed target over env.
func (s *Session) changeEnvironment(env *envvar.Environment) {
	target := s.pendingEnv
	if target == nil {
		target = env
	}
	if target != nil {
		e := *target
		s.actions.FetchForEnvironment(e.ID)
		s.selected = &e
	}
	s.DismissEnvironmentChange()
}

// --- baseline and working list ---

// SetVariableResponse installs a freshly fetched payload as the baseline and
// resets the working list to it. A nil payload yields an empty baseline.
func (s *Session) SetVariableResponse(resp map[string]string) {
	if resp == nil {
		s.baseline = []envvar.Variable{}
	} else {
		s.baseline = envvar.Sort(envvar.FromKeyValue(resp))
	}
	s.setWorking(s.baseline)
}

func (s *Session) setWorking(vars []envvar.Variable) {
	s.working = envvar.Sort(vars)
	s.dirty = envvar.IsDirty(s.working, s.baseline)
}

// Variables returns the working list. The slice must not be modified.
func (s *Session) Variables() []envvar.Variable { return s.working }

// Baseline returns the last fetched list, sorted.
func (s *Session) Baseline() []envvar.Variable { return s.baseline }

// Dirty reports whether the working list differs from the baseline.
func (s *Session) Dirty() bool { return s.dirty }

// RowDirty reports whether the working row at i has no match in the baseline.
func (s *Session) RowDirty(i int) bool {
	if i < 0 || i >= len(s.working) {
		return false
	}
	return envvar.IsRowDirty(s.working[i], s.baseline)
}

// --- panels ---

// OpenAdd opens the editor for a new variable.
func (s *Session) OpenAdd() {
	s.panel = PanelEdit
	s.editIndex = -1
}

// OpenEdit opens the editor for the variable at index i.
func (s *Session) OpenEdit(i int) {
	if i < 0 || i >= len(s.working) {
		return
	}
	s.panel = PanelEdit
	s.editIndex = i
}

// OpenBulk opens the bulk editor.
func (s *Session) OpenBulk() {
	s.panel = PanelBulk
	s.editIndex = -1
}

// Panel returns the open panel.
func (s *Session) Panel() Panel { return s.panel }

// EditIndex returns the index being edited, or -1 when adding.
func (s *Session) EditIndex() int { return s.editIndex }

// CancelPanel closes the open panel without touching the working list.
func (s *Session) CancelPanel() {
	s.panel = PanelNone
	s.editIndex = -1
}

// Commit replaces the working list with vars and closes the panel.
func (s *Session) Commit(vars []envvar.Variable) {
	s.setWorking(vars)
	s.CancelPanel()
}

// Upsert applies a single add/edit panel result: it replaces the row at
// EditIndex, or appends when adding, then commits.
func (s *Session) Upsert(v envvar.Variable) error {
	if err := envvar.ValidateEntry(s.working, s.editIndex, v.Name); err != nil {
		return err
	}
	next := make([]envvar.Variable, len(s.working), len(s.working)+1)
	copy(next, s.working)
	if s.editIndex >= 0 && s.editIndex < len(next) {
		next[s.editIndex] = v
	} else {
		next = append(next, v)
	}
	s.Commit(next)
	return nil
}

// Delete removes the variable at index i. Out of range indexes are ignored.
func (s *Session) Delete(i int) {
	if i < 0 || i >= len(s.working) {
		return
	}
	next := make([]envvar.Variable, 0, len(s.working)-1)
	next = append(next, s.working[:i]...)
	next = append(next, s.working[i+1:]...)
	s.setWorking(next)
}

// --- discard ---

// RequestDiscard shows the discard dialog.
func (s *Session) RequestDiscard() { s.discardDialog = true }

// ConfirmDiscard resets the working list to the baseline.
func (s *Session) ConfirmDiscard() {
	s.setWorking(s.baseline)
	s.discardDialog = false
}

// DismissDiscard hides the discard dialog.
func (s *Session) DismissDiscard() { s.discardDialog = false }

// DiscardDialogVisible reports whether the discard dialog is shown.
func (s *Session) DiscardDialogVisible() bool { return s.discardDialog }

// DiscardMessage is the body of the discard dialog.
func (s *Session) DiscardMessage() string {
	name := ""
	if s.selected != nil {
		name = s.selected.DisplayName()
	}
	return fmt.Sprintf("Unsaved changes to %s will be lost. Continue?", name)
}

// --- refresh ---

// RequestRefresh refreshes immediately, or asks first when dirty.
func (s *Session) RequestRefresh() {
	if s.dirty {
		s.refreshDialog = true
		return
	}
	s.ConfirmRefresh()
}

// ConfirmRefresh clears the selection and asks the parent to refetch
// everything. Default selection picks an environment once the new list
// arrives.
func (s *Session) ConfirmRefresh() {
	s.refreshDialog = false
	s.selected = nil
	s.actions.Refresh()
}

// DismissRefresh hides the refresh dialog.
func (s *Session) DismissRefresh() { s.refreshDialog = false }

// RefreshDialogVisible reports whether the refresh dialog is shown.
func (s *Session) RefreshDialogVisible() bool { return s.refreshDialog }

// --- save ---

// Save hands the working list to the parent. Without a selected environment
// it does nothing.
func (s *Session) Save() {
	if s.selected == nil {
		return
	}
	vars := make([]envvar.Variable, len(s.working))
	copy(vars, s.working)
	s.actions.Save(s.selected.ID, vars)
}

// --- show / hide ---

// ToggleShowAll reveals every value, or hides them all when already revealed.
func (s *Session) ToggleShowAll() {
	s.shown = make(map[string]bool)
	if !s.showAll {
		for _, v := range s.working {
			s.shown[v.Name] = true
		}
	}
	s.showAll = !s.showAll
}

// ToggleShown flips the visibility of one value.
func (s *Session) ToggleShown(name string) {
	if s.IsHidden(name) {
		s.shown[name] = true
	} else {
		delete(s.shown, name)
	}
	s.showAll = len(s.shown) == len(s.working)
}

// IsHidden reports whether the value of name is masked.
func (s *Session) IsHidden(name string) bool {
	return !s.shown[name] && !s.showAll
}

// AllShown reports whether the show/hide all command should offer "hide".
func (s *Session) AllShown() bool {
	return s.showAll || (len(s.working) > 0 && len(s.shown) == len(s.working))
}

// ShownValues returns the revealed names.
func (s *Session) ShownValues() []string {
	names := make([]string, 0, len(s.shown))
	for n := range s.shown {
		names = append(names, n)
	}
	return names
}

// --- filter ---

// ToggleFilter shows or hides the filter box and clears the filter.
func (s *Session) ToggleFilter() {
	s.filterVisible = !s.filterVisible
	s.filter = ""
}

// SetFilter sets the filter string.
func (s *Session) SetFilter(q string) { s.filter = q }

// Filter returns the filter string.
func (s *Session) Filter() string { return s.filter }

// FilterVisible reports whether the filter box is shown.
func (s *Session) FilterVisible() bool { return s.filterVisible }

// VisibleRow pairs a displayed variable with its index in the working list.
type VisibleRow struct {
	Index    int
	Variable envvar.Variable
}

// Visible returns the rows matching the filter, keeping their working-list
// indexes so edit and delete address the right entry.
func (s *Session) Visible() []VisibleRow {
	rows := make([]VisibleRow, 0, len(s.working))
	for i, v := range s.working {
		if len(envvar.Filter([]envvar.Variable{v}, s.filter)) == 0 {
			continue
		}
		rows = append(rows, VisibleRow{Index: i, Variable: v})
	}
	return rows
}

// --- gating ---

// CommandsDisabled reports whether the table commands are disabled.
func (s *Session) CommandsDisabled() bool {
	return s.flags.Loading || !s.flags.HasWritePermissions || s.flags.APIFailure
}

// SaveDisabled reports whether save is unavailable.
func (s *Session) SaveDisabled() bool { return !s.dirty || s.flags.Loading }

// DiscardDisabled reports whether discard is unavailable.
func (s *Session) DiscardDisabled() bool { return !s.dirty }

// RefreshDisabled reports whether refresh is unavailable.
func (s *Session) RefreshDisabled() bool { return s.flags.Loading }

// SelectorDisabled reports whether the environment selector is locked.
func (s *Session) SelectorDisabled() bool {
	return s.flags.Loading || !s.flags.HasWritePermissions
}

// Banner returns the informational banner text, or "".
func (s *Session) Banner() string {
	if !s.flags.HasWritePermissions {
		return BannerReadOnly
	}
	if !s.flags.EnvironmentHasFunctions {
		return BannerNoFunctions
	}
	return ""
}

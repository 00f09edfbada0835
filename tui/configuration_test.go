package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dopejs/staticenv/internal/console"
	"github.com/dopejs/staticenv/internal/envvar"
)

type recordedSave struct {
	id   string
	vars []envvar.Variable
}

type fakeActions struct {
	fetched   []string
	saved     []recordedSave
	refreshes int
}

func (f *fakeActions) FetchForEnvironment(id string) { f.fetched = append(f.fetched, id) }
func (f *fakeActions) Save(id string, vars []envvar.Variable) {
	f.saved = append(f.saved, recordedSave{id: id, vars: vars})
}
func (f *fakeActions) Refresh() { f.refreshes++ }

var testEnvironments = []envvar.Environment{
	{ID: "production", BuildID: envvar.ProductionBuildID, HasFunctions: true},
	{ID: "pr-7", BuildID: "7", PullRequestTitle: "Preview", HasFunctions: true},
}

func newTestPage(t *testing.T, resp map[string]string) (configurationModel, *fakeActions) {
	t.Helper()
	a := &fakeActions{}
	s := console.NewSession(a)
	s.SetEnvironments(testEnvironments)
	s.SetVariableResponse(resp)
	m := newConfigurationModel(s)
	m, _ = m.update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, a
}

func press(m configurationModel, keys ...tea.KeyMsg) configurationModel {
	for _, k := range keys {
		m, _ = m.update(k)
	}
	return m
}

func TestPageAddVariable(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"B": "2"})

	m = press(m, keyRunes("a"))
	require.Equal(t, console.PanelEdit, m.session.Panel())
	assert.Contains(t, m.view(), "Add variable")

	m = press(m, keyRunes("A"), key(tea.KeyEnter), keyRunes("1"), key(tea.KeyEnter))
	assert.Equal(t, console.PanelNone, m.session.Panel())
	assert.Equal(t, []envvar.Variable{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}, m.session.Variables())
	assert.True(t, m.session.Dirty())
	assert.Equal(t, "Added A", m.status)
	assert.Equal(t, 0, m.cursor)
}

func TestPageAddDuplicateShowsError(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"A": "1"})

	m = press(m, keyRunes("a"), keyRunes("a"), key(tea.KeyTab), keyRunes("2"), key(tea.KeyCtrlS))
	assert.Equal(t, console.PanelEdit, m.session.Panel())
	assert.NotEmpty(t, m.edit.err)
	assert.Contains(t, m.view(), m.edit.err)
	assert.False(t, m.session.Dirty())

	m = press(m, key(tea.KeyEsc))
	assert.Equal(t, console.PanelNone, m.session.Panel())
	assert.Len(t, m.session.Variables(), 1)
}

func TestPageEditThenDiscard(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"A": "1"})

	m = press(m, keyRunes("e"))
	require.Equal(t, 0, m.session.EditIndex())
	assert.Contains(t, m.view(), "Edit variable: A")

	m = press(m, key(tea.KeyTab), keyRunes("2"))
	assert.True(t, m.edit.fields[editFieldValue].dirty)
	assert.False(t, m.edit.fields[editFieldName].dirty)

	m = press(m, key(tea.KeyEnter))
	assert.Equal(t, []envvar.Variable{{Name: "A", Value: "12"}}, m.session.Variables())
	assert.True(t, m.session.RowDirty(0))
	assert.Contains(t, m.view(), "* ")

	m = press(m, keyRunes("u"))
	require.True(t, m.session.DiscardDialogVisible())
	assert.Contains(t, m.view(), "Discard changes")

	m = press(m, keyRunes("y"))
	assert.False(t, m.session.DiscardDialogVisible())
	assert.False(t, m.session.Dirty())
	assert.Equal(t, []envvar.Variable{{Name: "A", Value: "1"}}, m.session.Variables())
}

func TestPageDiscardNeedsChanges(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"A": "1"})
	m = press(m, keyRunes("u"))
	assert.False(t, m.session.DiscardDialogVisible())
}

func TestPageDeleteRow(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"A": "1", "B": "2"})

	m = press(m, keyRunes("j"), keyRunes("d"))
	assert.Equal(t, []envvar.Variable{{Name: "A", Value: "1"}}, m.session.Variables())
	assert.Equal(t, "Removed B", m.status)
	assert.Equal(t, 0, m.cursor)
	assert.True(t, m.session.Dirty())
}

func TestPageShowHide(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"A": "alpha-secret", "B": "beta-secret"})

	v := m.view()
	assert.Contains(t, v, maskedValue)
	assert.NotContains(t, v, "alpha-secret")
	assert.Contains(t, v, "V show all")

	m = press(m, keyRunes("v"))
	assert.False(t, m.session.IsHidden("A"))
	assert.True(t, m.session.IsHidden("B"))
	assert.Contains(t, m.view(), "alpha-secret")

	// revealing the remaining row completes the set
	m = press(m, keyRunes("j"), keyRunes("v"))
	assert.True(t, m.session.AllShown())
	assert.Contains(t, m.view(), "V hide all")

	m = press(m, keyRunes("V"))
	assert.True(t, m.session.IsHidden("A"))
	assert.True(t, m.session.IsHidden("B"))
}

func TestPageFilterIsViewOnly(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"Alpha": "1", "beta": "2", "gamma": "3"})

	m = press(m, keyRunes("/"))
	require.True(t, m.session.FilterVisible())
	require.Equal(t, focusFilter, m.focus)

	m = press(m, keyRunes("al"))
	assert.Equal(t, "al", m.session.Filter())
	rows := m.session.Visible()
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0].Variable.Name)
	assert.Len(t, m.session.Variables(), 3)
	assert.False(t, m.session.Dirty())

	// deleting from the filtered view removes the right working row
	m = press(m, key(tea.KeyEnter), keyRunes("d"))
	assert.Equal(t, []string{"beta", "gamma"}, envvar.Names(m.session.Variables()))
	assert.Contains(t, m.view(), "No variables match the filter.")

	m = press(m, keyRunes("/"))
	assert.False(t, m.session.FilterVisible())
	assert.Empty(t, m.session.Filter())
	assert.Len(t, m.session.Visible(), 2)
}

func TestPageFilterEscapeClears(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"Alpha": "1", "beta": "2"})

	m = press(m, keyRunes("/"), keyRunes("zz"))
	assert.Empty(t, m.session.Visible())

	m = press(m, key(tea.KeyEsc))
	assert.False(t, m.session.FilterVisible())
	assert.Equal(t, focusTable, m.focus)
	assert.Len(t, m.session.Visible(), 2)
}

func TestPageBulkEdit(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"A": "1"})

	m = press(m, keyRunes("b"))
	require.Equal(t, console.PanelBulk, m.session.Panel())
	assert.Contains(t, m.bulk.text(), `"name": "A"`)

	m.bulk.editor.SetValue(`[{"name": "Z", "value": "9"}, {"name": "A", "value": "1"},]`)
	m = press(m, key(tea.KeyCtrlS))
	assert.Equal(t, console.PanelNone, m.session.Panel())
	assert.Equal(t, []envvar.Variable{{Name: "A", Value: "1"}, {Name: "Z", Value: "9"}}, m.session.Variables())
	assert.Equal(t, "Applied 2 variables", m.status)
}

func TestPageBulkEditRejectsBadInput(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"A": "1"})

	m = press(m, keyRunes("b"))
	m.bulk.editor.SetValue(`[{"name": "A", "value": "1"}, {"name": "a", "value": "2"}]`)
	m = press(m, key(tea.KeyCtrlS))
	assert.Equal(t, console.PanelBulk, m.session.Panel())
	assert.NotEmpty(t, m.bulk.err)
	assert.Equal(t, []envvar.Variable{{Name: "A", Value: "1"}}, m.session.Variables())

	m = press(m, key(tea.KeyEsc))
	assert.Equal(t, console.PanelNone, m.session.Panel())
}

func TestSaveKeyPerPlatform(t *testing.T) {
	orig := isMac
	t.Cleanup(func() { isMac = orig })

	isMac = false
	assert.True(t, isSaveKey("ctrl+s"))
	assert.False(t, isSaveKey("cmd+s"))
	assert.False(t, isSaveKey("s"))

	isMac = true
	assert.True(t, isSaveKey("ctrl+s"))
	assert.True(t, isSaveKey("cmd+s"))
}

func TestPageReadOnlyGating(t *testing.T) {
	m, _ := newTestPage(t, map[string]string{"A": "1"})
	m.session.SetFlags(console.Flags{HasWritePermissions: false, EnvironmentHasFunctions: true})
	m.sync()

	assert.Contains(t, m.view(), console.BannerReadOnly)

	for _, k := range []string{"a", "b", "/", "V"} {
		m = press(m, keyRunes(k))
		assert.Equal(t, console.PanelNone, m.session.Panel(), "key %q", k)
		assert.NotEmpty(t, m.status, "key %q", k)
	}
	assert.False(t, m.session.FilterVisible())
	assert.False(t, m.session.AllShown())

	m = press(m, key(tea.KeyTab))
	assert.Equal(t, focusTable, m.focus)

	// row actions stay available
	m = press(m, keyRunes("e"))
	assert.Equal(t, console.PanelEdit, m.session.Panel())
}

func TestPageNoFunctionsBanner(t *testing.T) {
	m, _ := newTestPage(t, nil)
	m.session.SetFlags(console.Flags{HasWritePermissions: true, EnvironmentHasFunctions: false})
	assert.Contains(t, m.view(), console.BannerNoFunctions)
}

func TestPageEnvironmentChangeWhileDirty(t *testing.T) {
	m, a := newTestPage(t, map[string]string{"A": "1"})
	m = press(m, keyRunes("d"))
	require.True(t, m.session.Dirty())

	pick := func(m configurationModel) configurationModel {
		m = press(m, key(tea.KeyTab))
		require.Equal(t, focusSelector, m.focus)
		m = press(m, key(tea.KeyEnter), key(tea.KeyDown))
		m, cmd := m.update(key(tea.KeyEnter))
		require.NotNil(t, cmd)
		m, _ = m.update(cmd())
		return m
	}

	m = pick(m)
	require.True(t, m.session.ChangeDialogVisible())
	assert.Contains(t, m.view(), "Change environment")

	m = press(m, keyRunes("n"))
	assert.False(t, m.session.ChangeDialogVisible())
	assert.Equal(t, "production", m.session.Selected().ID)
	assert.Equal(t, []string{"production"}, a.fetched)

	m = pick(m)
	m = press(m, keyRunes("y"))
	assert.Equal(t, "pr-7", m.session.Selected().ID)
	assert.Equal(t, []string{"production", "pr-7"}, a.fetched)
	assert.Equal(t, "pr-7", m.selector.selectedKey())
}

func TestPageEnvironmentChangeWhenClean(t *testing.T) {
	m, a := newTestPage(t, map[string]string{"A": "1"})

	m = press(m, key(tea.KeyTab), key(tea.KeyEnter), key(tea.KeyDown))
	m, cmd := m.update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m, _ = m.update(cmd())

	assert.False(t, m.session.ChangeDialogVisible())
	assert.Equal(t, "pr-7", m.session.Selected().ID)
	assert.Equal(t, []string{"production", "pr-7"}, a.fetched)
	assert.Equal(t, focusTable, m.focus)
}

func TestPageSave(t *testing.T) {
	m, a := newTestPage(t, map[string]string{"A": "1", "B": "2"})

	m = press(m, key(tea.KeyCtrlS))
	assert.Empty(t, a.saved, "nothing to save")

	m = press(m, keyRunes("d"), key(tea.KeyCtrlS))
	require.Len(t, a.saved, 1)
	assert.Equal(t, "production", a.saved[0].id)
	assert.Equal(t, []envvar.Variable{{Name: "B", Value: "2"}}, a.saved[0].vars)
}

func TestPageSaveDisabledWhileLoading(t *testing.T) {
	m, a := newTestPage(t, map[string]string{"A": "1"})
	m = press(m, keyRunes("d"))
	m.session.SetFlags(console.Flags{Loading: true, HasWritePermissions: true, EnvironmentHasFunctions: true})

	m = press(m, key(tea.KeyCtrlS), keyRunes("r"))
	assert.Empty(t, a.saved)
	assert.Zero(t, a.refreshes)
}

func TestPageRefresh(t *testing.T) {
	m, a := newTestPage(t, map[string]string{"A": "1"})

	m = press(m, keyRunes("r"))
	assert.Equal(t, 1, a.refreshes)
	assert.Nil(t, m.session.Selected())

	m, a = newTestPage(t, map[string]string{"A": "1"})
	m = press(m, keyRunes("d"), keyRunes("r"))
	require.True(t, m.session.RefreshDialogVisible())
	assert.Zero(t, a.refreshes)

	m = press(m, keyRunes("n"))
	assert.False(t, m.session.RefreshDialogVisible())
	assert.Zero(t, a.refreshes)

	m = press(m, keyRunes("r"), keyRunes("y"))
	assert.Equal(t, 1, a.refreshes)
}

func TestPageQuit(t *testing.T) {
	m, _ := newTestPage(t, nil)
	_, cmd := m.update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestPageEmptyState(t *testing.T) {
	m, _ := newTestPage(t, nil)
	assert.Contains(t, m.view(), "No environment variables.")
	assert.Contains(t, m.view(), "Production")
}

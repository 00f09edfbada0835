package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }
func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func stubClipboard(t *testing.T, err error) *string {
	t.Helper()
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		if err != nil {
			return err
		}
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })
	return &copied
}

func TestTextFieldTyping(t *testing.T) {
	f := newTextField("name", "Name")
	f.focus()

	f, _ = f.update(keyRunes("API"))
	f, _ = f.update(keyRunes("_KEY"))
	assert.Equal(t, "API_KEY", f.value())
	assert.Contains(t, f.view(), "Name")
}

func TestTextFieldCopy(t *testing.T) {
	copied := stubClipboard(t, nil)

	f := newTextField("value", "Value")
	f.copyable = true
	f.setValue("s3cret")
	f.focus()
	assert.Contains(t, f.view(), copyLabel)

	f, _ = f.update(key(tea.KeyCtrlY))
	assert.Equal(t, "s3cret", *copied)
	assert.True(t, f.copied)
	assert.Contains(t, f.view(), copiedLabel)
	assert.Equal(t, "s3cret", f.value(), "copy must not edit the value")

	// the label resets on the next keypress
	f, _ = f.update(keyRunes("x"))
	assert.False(t, f.copied)
	assert.Contains(t, f.view(), copyLabel)
}

func TestTextFieldCopyError(t *testing.T) {
	stubClipboard(t, errors.New("no clipboard"))

	f := newTextField("value", "Value")
	f.copyable = true
	f.focus()
	f, _ = f.update(key(tea.KeyCtrlY))
	assert.False(t, f.copied)
	assert.Contains(t, f.view(), "no clipboard")
}

func TestTextFieldCopyIgnoredWhenNotCopyable(t *testing.T) {
	copied := stubClipboard(t, nil)

	f := newTextField("name", "Name")
	f.setValue("A")
	f.focus()
	f, _ = f.update(key(tea.KeyCtrlY))
	assert.Empty(t, *copied)
	assert.NotContains(t, f.view(), copyLabel)
}

func TestTextFieldResize(t *testing.T) {
	f := newTextField("name", "Name")

	f.resize(fullPageWidth + 1)
	assert.Equal(t, wideFieldWidth, f.input.Width)
	f.resize(80)
	assert.Equal(t, narrowFieldWidth, f.input.Width)

	f.width = 20
	f.resize(200)
	assert.Equal(t, 20, f.input.Width)
}

func TestTextFieldDirtyMarker(t *testing.T) {
	f := newTextField("name", "Name")
	assert.NotContains(t, f.view(), "*")
	f.dirty = true
	assert.Contains(t, f.view(), "*")
}

func environmentOptions() []dropdownOption {
	return []dropdownOption{
		{key: "production", text: "Production"},
		{key: "pr-1", text: "Fix header"},
		{key: "pr-2", text: "Dark mode"},
	}
}

func TestDropdownEmitsOnlyRealChanges(t *testing.T) {
	d := newDropdown("environment", "Environment")
	d.setOptions(environmentOptions(), "production")
	assert.Equal(t, "production", d.selectedKey())

	// open and pick the current option again
	d, _ = d.update(key(tea.KeyEnter))
	require.True(t, d.open)
	d, cmd := d.update(key(tea.KeyEnter))
	assert.False(t, d.open)
	assert.Nil(t, cmd)

	// open, move down, pick
	d, _ = d.update(key(tea.KeyEnter))
	d, _ = d.update(key(tea.KeyDown))
	d, cmd = d.update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, dropdownChangedMsg{id: "environment", key: "pr-1"}, cmd())

	// the owner decides the selection; the dropdown itself has not moved
	assert.Equal(t, "production", d.selectedKey())
}

func TestDropdownEscapeRestoresCursor(t *testing.T) {
	d := newDropdown("environment", "Environment")
	d.setOptions(environmentOptions(), "pr-1")

	d, _ = d.update(key(tea.KeyEnter))
	d, _ = d.update(key(tea.KeyDown))
	d, _ = d.update(key(tea.KeyEsc))
	assert.False(t, d.open)
	assert.Equal(t, 1, d.cursor)
}

func TestDropdownDisabled(t *testing.T) {
	d := newDropdown("environment", "Environment")
	d.setOptions(environmentOptions(), "production")
	d.setDisabled(true)

	d, cmd := d.update(key(tea.KeyEnter))
	assert.False(t, d.open)
	assert.Nil(t, cmd)
}

func TestDropdownView(t *testing.T) {
	d := newDropdown("environment", "Environment")
	d.info = "updated 3 minutes ago"
	d.setOptions(environmentOptions(), "pr-2")

	v := d.view(true)
	assert.Contains(t, v, "Environment")
	assert.Contains(t, v, "Dark mode")
	assert.Contains(t, v, "updated 3 minutes ago")
	assert.NotContains(t, v, "Fix header")

	d, _ = d.update(key(tea.KeyEnter))
	v = d.view(true)
	assert.Contains(t, v, "Fix header")
	assert.Contains(t, v, "Production")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "…", truncate("abcdef", 1))
	assert.True(t, strings.HasSuffix(truncate("日本語テキスト", 4), "…"))
}

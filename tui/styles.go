package tui

import (
	"runtime"

	"github.com/charmbracelet/lipgloss"
)

// Platform detection
var isMac = runtime.GOOS == "darwin"

// SaveKey returns the appropriate save key hint for the current platform
func saveKeyHint() string {
	if isMac {
		return "⌘+S"
	}
	return "ctrl+s"
}

// Layout constants - use at least 80% of terminal width
const (
	minContentWidth  = 80  // Minimum content width
	maxContentWidth  = 160 // Maximum content width
	contentWidthPct  = 85  // Percentage of terminal width to use
	horizontalMargin = 2   // Margin from terminal edges
	verticalMargin   = 1   // Margin from top/bottom

	// Terminals wider than this get full-width form controls
	fullPageWidth = 120
)

// LayoutDimensions calculates the content area dimensions based on terminal size.
// Returns contentWidth, contentHeight, leftPadding, topPadding
func LayoutDimensions(termWidth, termHeight int) (int, int, int, int) {
	// Calculate content width as percentage of terminal
	contentWidth := termWidth * contentWidthPct / 100

	// Apply min/max constraints
	if contentWidth < minContentWidth {
		contentWidth = minContentWidth
	}
	if contentWidth > maxContentWidth {
		contentWidth = maxContentWidth
	}

	// Don't exceed terminal width minus margins
	if contentWidth > termWidth-horizontalMargin*2 {
		contentWidth = termWidth - horizontalMargin*2
	}

	// Calculate centering padding
	leftPadding := (termWidth - contentWidth) / 2
	if leftPadding < horizontalMargin {
		leftPadding = horizontalMargin
	}

	// Content height
	contentHeight := termHeight - verticalMargin*2 - 2 // -2 for help bar

	return contentWidth, contentHeight, leftPadding, verticalMargin
}

// panelHeader renders the title strip shown above side panels.
func panelHeader(icon, title string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Background(headerBgColor).
		Padding(0, 2).
		Render(icon + " " + title)
}

// Colors - soft, muted palette
var (
	primaryColor   = lipgloss.Color("109") // soft teal
	accentColor    = lipgloss.Color("146") // soft lavender
	successColor   = lipgloss.Color("108") // soft sage green
	errorColor     = lipgloss.Color("174") // soft coral
	dimColor       = lipgloss.Color("245") // light gray
	borderColor    = lipgloss.Color("240") // subtle gray
	highlightColor = lipgloss.Color("152") // soft mint
	headerBgColor  = lipgloss.Color("238") // dark gray bg
)

// Base styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	sectionTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true).
				MarginBottom(1)

	// Table styles
	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(dimColor)

	tableRowStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	tableSelectedRowStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	// Marks rows and fields that differ from the saved state
	dirtyStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(accentColor).
			Padding(0, 1)

	disabledStyle = lipgloss.NewStyle().
			Foreground(borderColor)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Padding(1, 2)
)

// RenderHelpBar renders a full-width help bar at the bottom of the screen.
// The help bar has a background color and left padding of 2 characters.
func RenderHelpBar(text string, termWidth int) string {
	helpBarStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("236")). // dark gray background
		Foreground(dimColor).
		PaddingLeft(2).
		Width(termWidth)

	return helpBarStyle.Render(text)
}

// Package ui holds the terminal styling shared by datim's subcommands:
// lipgloss styles for headers, sections and the check table, and
// fatih/color functions for the progress lines.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5F5FFF")).
			Padding(0, 1).
			MarginBottom(1)

	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Underline(true)

	MatchStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	MismatchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	MissingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	PathStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))
	MiniprintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
)

// Icons used alongside the styles above.
const (
	IconMatch    = "✓"
	IconMismatch = "✗"
	IconMissing  = "?"
)

// Color functions used for the progress lines; fatih/color degrades to
// plain text automatically when stdout is not a terminal.
var (
	Green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	Red    = color.New(color.FgRed, color.Bold).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
)

// RenderHeader renders text inside the header band.
func RenderHeader(text string) string {
	return HeaderStyle.Render(text)
}

// RenderSection renders a section title.
func RenderSection(text string) string {
	return SectionStyle.Render(text)
}

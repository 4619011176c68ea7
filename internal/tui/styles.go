package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/projectdraft/internal/autosave"
)

// Color palette
var (
	// Save status colors
	SaveOK      = lipgloss.Color("#95E1A3") // Green
	SavePending = lipgloss.Color("#FFE66D") // Yellow
	SaveError   = lipgloss.Color("#FF6B6B") // Red

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Secondary = lipgloss.Color("#6C757D")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Warning   = lipgloss.Color("#FFB347") // Orange
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	// Step tabs
	StepStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1)

	StepActiveStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	// Form body
	FormStyle = lipgloss.NewStyle().
			Padding(1, 2)

	FieldStyle = lipgloss.NewStyle().
			Padding(0, 1)

	FieldSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Width(24).
			Foreground(Secondary)

	IssueStyle   = lipgloss.NewStyle().Foreground(SaveError)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	ValidStyle   = lipgloss.NewStyle().Foreground(SaveOK).Bold(true)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// FormatSaveStatus renders the autosave badge
func FormatSaveStatus(s autosave.Status) string {
	label := s.Label()
	switch s {
	case autosave.StatusSaving:
		return lipgloss.NewStyle().Foreground(SavePending).Render("● " + label)
	case autosave.StatusSaved:
		return lipgloss.NewStyle().Foreground(SaveOK).Render("✓ " + label)
	case autosave.StatusError:
		return lipgloss.NewStyle().Foreground(SaveError).Bold(true).Render("✗ " + label)
	default:
		return ""
	}
}

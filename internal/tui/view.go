package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/projectdraft/internal/model"
	"github.com/existflow/projectdraft/internal/validation"
)

// sectionKeys maps wizard steps to the top-level path element of their issues
var sectionKeys = []string{"generalInfo", "timeline", "resources", "requirements", "approval"}

type reviewResult struct {
	valid    bool
	issues   []validation.Issue
	warnings []string
}

// review validates the in-memory snapshot; nothing is sent to the server
func (m Model) review() reviewResult {
	res := validation.Validate(m.data)
	return reviewResult{
		valid:    res.Valid(),
		issues:   res.Issues,
		warnings: validation.Warnings(m.data),
	}
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSteps())
	b.WriteString("\n")

	if m.mode == ModeHelp {
		b.WriteString(FormStyle.Render(m.renderHelp()))
	} else {
		b.WriteString(FormStyle.Render(m.renderForm()))
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("Project Draft")
	badge := FormatSaveStatus(m.status)
	if badge == "" {
		return title
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", badge)
}

func (m Model) renderSteps() string {
	tabs := make([]string, len(model.Steps))
	for i, s := range model.Steps {
		label := fmt.Sprintf("%d. %s", i+1, s)
		if i == m.data.Step {
			tabs[i] = StepActiveStyle.Render(label)
		} else {
			tabs[i] = StepStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderForm() string {
	var lines []string
	width := m.width - 40
	if width < 20 {
		width = 40
	}

	for i, f := range m.currentFields() {
		value := f.get(&m.data)
		if m.mode == ModeEdit && i == m.cursor {
			value = m.input.View()
		} else {
			value = truncate(value, width)
		}
		line := LabelStyle.Render(f.label) + value
		if i == m.cursor {
			lines = append(lines, FieldSelectedStyle.Render("> "+line))
		} else {
			lines = append(lines, FieldStyle.Render("  "+line))
		}
		if m.mode == ModeEdit && i == m.cursor && m.fieldErr != "" {
			lines = append(lines, IssueStyle.Render("    "+m.fieldErr))
		}
	}

	res := m.review()
	lines = append(lines, "")
	if m.data.Step == len(model.Steps)-1 {
		lines = append(lines, m.renderReview(res)...)
	} else {
		section := sectionKeys[m.data.Step]
		for _, is := range res.issues {
			if len(is.Path) > 0 && is.Path[0] == section {
				lines = append(lines, IssueStyle.Render("✗ "+is.Path.String()+": "+is.Message))
			}
		}
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderReview(res reviewResult) []string {
	var lines []string
	if res.valid {
		lines = append(lines, ValidStyle.Render("✓ Ready to submit"))
	} else {
		lines = append(lines, IssueStyle.Render(fmt.Sprintf("%d issue(s) to fix:", len(res.issues))))
		for _, is := range res.issues {
			lines = append(lines, IssueStyle.Render("  ✗ "+is.Path.String()+": "+is.Message))
		}
	}
	for _, w := range res.warnings {
		lines = append(lines, WarningStyle.Render("  ⚠ "+w))
	}
	if m.submitted != "" {
		lines = append(lines, "", ValidStyle.Render("Submitted: "+m.submitted))
	}
	return lines
}

func (m Model) renderHelp() string {
	bindings := []key.Binding{keys.Up, keys.Down, keys.Next, keys.Prev, keys.Enter, keys.Escape, keys.Save, keys.Submit, keys.Quit}
	var lines []string
	for _, k := range bindings {
		h := k.Help()
		lines = append(lines, fmt.Sprintf("%-14s %s", h.Key, h.Desc))
	}
	lines = append(lines, "", "List fields use rows separated by ';' and columns by '|'.")
	return HelpStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf("owner: %s", m.owner)
	if m.message != "" {
		left += "  " + m.message
	}
	help := "enter edit • tab next • ctrl+s save • ? help • q quit"
	if m.mode == ModeEdit {
		help = "enter confirm • esc cancel"
	}
	return StatusBarStyle.Render(left + "\n" + HelpStyle.Render(help))
}

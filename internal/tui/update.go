package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/projectdraft/internal/autosave"
	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/internal/model"
)

// statusMsg carries an autosave status change
type statusMsg autosave.Status

// flushMsg is sent when a manual save finished
type flushMsg struct{ err error }

// submitMsg is sent when submission finished
type submitMsg struct {
	key string
	err error
}

const actionTimeout = 15 * time.Second

// Init starts listening for autosave status changes
func (m Model) Init() tea.Cmd {
	return m.waitForStatus()
}

func (m Model) waitForStatus() tea.Cmd {
	if m.coord == nil {
		return nil
	}
	ch := m.statusCh
	return func() tea.Msg {
		return statusMsg(<-ch)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusMsg:
		m.status = autosave.Status(msg)
		if m.status == autosave.StatusError && m.coord.Err() != nil {
			m.message = "Autosave failed: " + m.coord.Err().Error()
		}
		return m, m.waitForStatus()

	case flushMsg:
		if msg.err != nil {
			m.message = "Save failed: " + msg.err.Error()
		} else {
			m.message = "Draft saved"
		}
		return m, nil

	case submitMsg:
		if msg.err != nil {
			logger.Warn("Submit failed", logger.F("owner", m.owner), logger.F("error", msg.err.Error()))
			m.message = "Submit failed: " + msg.err.Error()
			return m, nil
		}
		// the submitted record is no longer editable; later edits would start a new draft
		if m.coord != nil {
			m.coord.Close()
		}
		m.submitted = msg.key
		m.message = "Submitted as " + msg.key
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeEdit {
			return m.handleEditKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Enter):
		f := m.currentFields()[m.cursor]
		if err := f.set(&m.data, m.input.Value()); err != nil {
			m.fieldErr = err.Error()
			return m, nil
		}
		m.mode = ModeNormal
		m.fieldErr = ""
		m.input.Blur()
		m.changed()
		return m, nil

	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.fieldErr = ""
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeNormal
		} else {
			m.mode = ModeHelp
		}

	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.currentFields())-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Next):
		if m.data.Step < len(model.Steps)-1 {
			m.data.Step++
			m.cursor = 0
			m.changed()
		}

	case key.Matches(msg, keys.Prev):
		if m.data.Step > 0 {
			m.data.Step--
			m.cursor = 0
			m.changed()
		}

	case key.Matches(msg, keys.Enter):
		f := m.currentFields()[m.cursor]
		m.input.SetValue(f.get(&m.data))
		m.input.Placeholder = f.hint
		m.input.CursorEnd()
		m.input.Focus()
		m.mode = ModeEdit
		m.fieldErr = ""

	case key.Matches(msg, keys.Save):
		return m, m.flushCmd()

	case key.Matches(msg, keys.Submit):
		if m.data.Step != len(model.Steps)-1 {
			m.message = "Submit from the Review step"
			return m, nil
		}
		if m.submitted != "" {
			m.message = "Already submitted as " + m.submitted
			return m, nil
		}
		if m.submit == nil {
			m.message = "Submitting is not available"
			return m, nil
		}
		if res := m.review(); !res.valid {
			m.message = "Fix the issues listed below before submitting"
			return m, nil
		}
		return m, m.submitCmd()
	}

	return m, nil
}

func (m Model) flushCmd() tea.Cmd {
	coord := m.coord
	if coord == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return flushMsg{err: coord.Flush(ctx)}
	}
}

// submitCmd saves pending edits, then submits
func (m Model) submitCmd() tea.Cmd {
	coord, submit := m.coord, m.submit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if coord != nil {
			if err := coord.Flush(ctx); err != nil {
				return submitMsg{err: err}
			}
		}
		key, err := submit(ctx)
		return submitMsg{key: key, err: err}
	}
}

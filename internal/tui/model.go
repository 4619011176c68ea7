package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/projectdraft/internal/autosave"
	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/internal/model"
)

// SubmitFunc submits the owner's saved draft and returns the submission key
type SubmitFunc func(ctx context.Context) (string, error)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeEdit
	ModeHelp
)

// Model is the wizard TUI model
type Model struct {
	owner  string
	data   model.ProjectFormData
	fields [][]field

	// Autosave
	coord    *autosave.Coordinator
	statusCh chan autosave.Status
	status   autosave.Status
	submit    SubmitFunc
	submitted string // submission key once submitted

	// UI state
	width  int
	height int
	mode   Mode
	cursor int

	// Input
	input    textinput.Model
	fieldErr string

	message string
}

// NewModel creates the wizard for owner starting from initial.
// initial is passed to the coordinator as its hydration snapshot.
func NewModel(owner string, initial model.ProjectFormData, coord *autosave.Coordinator, submit SubmitFunc) Model {
	logger.Info("Initializing wizard", logger.F("owner", owner), logger.F("step", initial.StepName()))

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 60

	m := Model{
		owner:    owner,
		data:     initial.Clone(),
		fields:   stepFields(),
		coord:    coord,
		statusCh: make(chan autosave.Status, 8),
		status:   autosave.StatusIdle,
		submit:   submit,
		input:    ti,
	}
	if m.data.StepName() == "" {
		m.data.Step = 0
	}

	if coord != nil {
		coord.Observe(m.data)
		ch := m.statusCh
		coord.Subscribe(func(s autosave.Status) {
			select {
			case ch <- s:
			default:
			}
		})
	}
	return m
}

// Data returns the current form snapshot
func (m Model) Data() model.ProjectFormData {
	return m.data.Clone()
}

func (m Model) currentFields() []field {
	return m.fields[m.data.Step]
}

// changed publishes the snapshot to autosave after an edit
func (m *Model) changed() {
	if m.coord != nil {
		m.coord.Observe(m.data)
	}
}

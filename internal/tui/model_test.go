package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/projectdraft/internal/autosave"
	"github.com/existflow/projectdraft/internal/model"
	"github.com/existflow/projectdraft/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedSnapshots struct {
	mu   sync.Mutex
	data []model.ProjectFormData
}

func (s *savedSnapshots) SaveDraft(_ context.Context, _ string, _ int64, data model.ProjectFormData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, data)
	return nil
}

func (s *savedSnapshots) all() []model.ProjectFormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ProjectFormData(nil), s.data...)
}

func newTestModel(t *testing.T, initial model.ProjectFormData, submit SubmitFunc) (Model, *savedSnapshots, *autosave.ManualScheduler) {
	t.Helper()
	sched := autosave.NewManualScheduler(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	saver := &savedSnapshots{}
	coord := autosave.New("u-1", saver, autosave.WithScheduler(sched), autosave.WithClock(sched.Now))
	t.Cleanup(coord.Close)
	return NewModel("u-1", initial, coord, submit), saver, sched
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	out, cmd := m.Update(msg)
	return out.(Model), cmd
}

func keyType(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestFields_ListRoundTrip(t *testing.T) {
	d := model.InitialData()
	phases := stepFields()[1][4]
	require.Equal(t, "Phases", phases.label)

	require.NoError(t, phases.set(&d, "Build|2026-01-01|2026-02-01; Test|2026-02-02|2026-03-01"))
	assert.Equal(t, []model.Phase{
		{Label: "Build", From: "2026-01-01", To: "2026-02-01"},
		{Label: "Test", From: "2026-02-02", To: "2026-03-01"},
	}, d.Timeline.Phases)
	assert.Equal(t, "Build|2026-01-01|2026-02-01; Test|2026-02-02|2026-03-01", phases.get(&d))

	require.NoError(t, phases.set(&d, ""))
	assert.Empty(t, d.Timeline.Phases)
}

func TestFields_EmployeesKeepIdentity(t *testing.T) {
	d := testutil.ValidForm()
	employees := stepFields()[2][5]
	require.Equal(t, "Employees", employees.label)

	before := d.Resources.ExtendedEmployees[0]
	value := employees.get(&d)
	require.NoError(t, employees.set(&d, value+"; Neha|5|Tech|Platform|Go|30"))

	require.Len(t, d.Resources.ExtendedEmployees, 3)
	assert.Equal(t, before, d.Resources.ExtendedEmployees[0])
	added := d.Resources.ExtendedEmployees[2]
	assert.Equal(t, "emp-3", added.ID)
	assert.Equal(t, "Neha", added.Name)
	require.Len(t, added.AllocationLogs, 1)
	assert.Equal(t, 30, added.AllocationLogs[0].Allocation)
	assert.Equal(t, model.AllocationPlanned, added.AllocationLogs[0].Status)
}

func TestFields_ParseErrors(t *testing.T) {
	d := model.InitialData()

	tests := []struct {
		name  string
		field field
		value string
	}{
		{"delay tolerance", stepFields()[1][2], "soon"},
		{"kickoff", stepFields()[1][3], "Carrier pigeon"},
		{"skill counts", stepFields()[2][4], "Go|two|1"},
		{"allocation", stepFields()[2][5], "Asha|5|Tech|Core|Go|half"},
		{"compliance", stepFields()[3][0], "maybe"},
		{"cloud cost", stepFields()[3][7], "cheap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.field.set(&d, tt.value))
		})
	}
}

func TestFields_ChoiceIsCaseInsensitive(t *testing.T) {
	d := model.InitialData()
	kickoff := stepFields()[1][3]
	require.NoError(t, kickoff.set(&d, "remote"))
	assert.Equal(t, model.KickoffRemote, d.Timeline.KickoffMethod)
}

func TestModel_HydrationIsNotSaved(t *testing.T) {
	_, saver, sched := newTestModel(t, testutil.ValidForm(), nil)
	sched.Advance(5 * time.Second)
	assert.Empty(t, saver.all())
}

func TestModel_EditAutosavesAfterDelay(t *testing.T) {
	m, saver, sched := newTestModel(t, model.InitialData(), nil)

	m, _ = send(m, keyType(tea.KeyEnter))
	require.Equal(t, ModeEdit, m.mode)
	m, _ = send(m, runes("Apollo"))
	m, _ = send(m, keyType(tea.KeyEnter))
	require.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Apollo", m.Data().GeneralInfo.Name)

	sched.Advance(999 * time.Millisecond)
	assert.Empty(t, saver.all())

	sched.Advance(time.Millisecond)
	saved := saver.all()
	require.Len(t, saved, 1)
	assert.Equal(t, "Apollo", saved[0].GeneralInfo.Name)
}

func TestModel_InvalidInputKeepsEditing(t *testing.T) {
	m, saver, sched := newTestModel(t, model.InitialData(), nil)

	m, _ = send(m, keyType(tea.KeyTab))
	m, _ = send(m, keyType(tea.KeyDown))
	m, _ = send(m, keyType(tea.KeyDown))
	m, _ = send(m, keyType(tea.KeyEnter))
	m, _ = send(m, runes("x"))
	m, _ = send(m, keyType(tea.KeyEnter))

	assert.Equal(t, ModeEdit, m.mode)
	assert.NotEmpty(t, m.fieldErr)
	assert.Contains(t, m.View(), m.fieldErr)

	m, _ = send(m, keyType(tea.KeyEsc))
	assert.Equal(t, ModeNormal, m.mode)

	sched.Advance(2 * time.Second)
	saved := saver.all()
	require.Len(t, saved, 1, "step change is an edit")
	assert.Equal(t, 1, saved[0].Step)
	assert.Equal(t, 0, saved[0].Timeline.DelayTolerance)
}

func TestModel_StepNavigationBounds(t *testing.T) {
	m, _, _ := newTestModel(t, model.InitialData(), nil)

	m, _ = send(m, keyType(tea.KeyShiftTab))
	assert.Equal(t, 0, m.Data().Step)

	for i := 0; i < 10; i++ {
		m, _ = send(m, keyType(tea.KeyTab))
	}
	assert.Equal(t, len(model.Steps)-1, m.Data().Step)
}

func TestModel_ManualSave(t *testing.T) {
	m, saver, _ := newTestModel(t, model.InitialData(), nil)

	m, _ = send(m, keyType(tea.KeyTab))
	m, cmd := send(m, keyType(tea.KeyCtrlS))
	require.NotNil(t, cmd)

	m, _ = send(m, cmd())
	assert.Equal(t, "Draft saved", m.message)
	require.Len(t, saver.all(), 1)
}

func TestModel_SubmitRequiresValidForm(t *testing.T) {
	called := false
	submit := func(context.Context) (string, error) {
		called = true
		return "k", nil
	}
	initial := model.InitialData()
	initial.Step = len(model.Steps) - 1
	m, _, _ := newTestModel(t, initial, submit)

	m, cmd := send(m, runes("S"))
	assert.Nil(t, cmd)
	assert.False(t, called)
	assert.Contains(t, m.message, "Fix the issues")
	assert.Contains(t, m.View(), "issue(s) to fix")
}

func TestModel_SubmitFlow(t *testing.T) {
	submit := func(context.Context) (string, error) { return "sub-1", nil }
	m, _, _ := newTestModel(t, testutil.ValidForm(), submit)

	m, cmd := send(m, runes("S"))
	require.NotNil(t, cmd)

	m, _ = send(m, cmd())
	assert.Equal(t, "sub-1", m.submitted)
	assert.Contains(t, m.View(), "Submitted: sub-1")

	m, cmd = send(m, runes("S"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.message, "Already submitted")
}

func TestModel_SubmitOnlyFromReview(t *testing.T) {
	d := testutil.ValidForm()
	d.Step = 0
	m, _, _ := newTestModel(t, d, func(context.Context) (string, error) { return "k", nil })

	m, cmd := send(m, runes("S"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Submit from the Review step", m.message)
}

func TestModel_ViewShowsSaveBadge(t *testing.T) {
	m, _, _ := newTestModel(t, model.InitialData(), nil)

	assert.NotContains(t, m.View(), "Saved")

	m, _ = send(m, statusMsg(autosave.StatusSaving))
	assert.Contains(t, m.View(), "Saving...")

	m, _ = send(m, statusMsg(autosave.StatusSaved))
	assert.Contains(t, m.View(), "Saved")
}

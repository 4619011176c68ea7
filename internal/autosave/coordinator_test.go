package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/existflow/projectdraft/internal/draft"
	"github.com/existflow/projectdraft/internal/model"
	"github.com/existflow/projectdraft/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type saveCall struct {
	owner    string
	revision int64
	data     model.ProjectFormData
}

type recordingSaver struct {
	mu    sync.Mutex
	calls []saveCall
	err   error
	hook  func(n int)
}

func (r *recordingSaver) SaveDraft(ctx context.Context, ownerID string, revision int64, data model.ProjectFormData) error {
	r.mu.Lock()
	r.calls = append(r.calls, saveCall{owner: ownerID, revision: revision, data: data})
	n := len(r.calls)
	err := r.err
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return err
}

func (r *recordingSaver) Calls() []saveCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]saveCall(nil), r.calls...)
}

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestCoordinator(saver Saver) (*Coordinator, *ManualScheduler) {
	sched := NewManualScheduler(epoch)
	c := New("u-1", saver, WithScheduler(sched), WithClock(sched.Now))
	return c, sched
}

func named(name string) model.ProjectFormData {
	d := model.InitialData()
	d.GeneralInfo.Name = name
	return d
}

func TestCoordinator_HydrationIsNotSaved(t *testing.T) {
	saver := &recordingSaver{}
	c, sched := newTestCoordinator(saver)

	c.Observe(model.InitialData())
	sched.Advance(10 * time.Second)

	assert.Empty(t, saver.Calls())
	assert.False(t, c.Pending())
	assert.Equal(t, StatusIdle, c.Status())
}

func TestCoordinator_DebouncesRapidEdits(t *testing.T) {
	saver := &recordingSaver{}
	c, sched := newTestCoordinator(saver)

	c.Observe(model.InitialData())
	c.Observe(named("P"))
	sched.Advance(200 * time.Millisecond)
	c.Observe(named("Pr"))
	sched.Advance(200 * time.Millisecond)
	c.Observe(named("Pro"))

	sched.Advance(999 * time.Millisecond)
	assert.Empty(t, saver.Calls(), "window restarts on every edit")
	assert.True(t, c.Pending())

	sched.Advance(time.Millisecond)
	calls := saver.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Pro", calls[0].data.GeneralInfo.Name)
	assert.Equal(t, "u-1", calls[0].owner)
	assert.False(t, c.Pending())
}

func TestCoordinator_StatusLifecycle(t *testing.T) {
	saver := &recordingSaver{}
	c, sched := newTestCoordinator(saver)

	var seen []Status
	unsubscribe := c.Subscribe(func(s Status) { seen = append(seen, s) })

	c.Observe(model.InitialData())
	c.Observe(named("A"))
	sched.Advance(DefaultDelay)
	assert.Equal(t, StatusSaved, c.Status())

	sched.Advance(DefaultSavedDisplay - time.Millisecond)
	assert.Equal(t, StatusSaved, c.Status())
	sched.Advance(time.Millisecond)
	assert.Equal(t, StatusIdle, c.Status())

	assert.Equal(t, []Status{StatusSaving, StatusSaved, StatusIdle}, seen)

	unsubscribe()
	c.Observe(named("B"))
	sched.Advance(DefaultDelay)
	assert.Len(t, seen, 3, "unsubscribed callback must not run")
}

func TestCoordinator_FailureIsSurfaced(t *testing.T) {
	saver := &recordingSaver{err: errors.New("connection refused")}
	c, sched := newTestCoordinator(saver)

	c.Observe(model.InitialData())
	c.Observe(named("A"))
	sched.Advance(DefaultDelay)

	assert.Equal(t, StatusError, c.Status())
	assert.EqualError(t, c.Err(), "connection refused")

	// error does not revert to idle on its own
	sched.Advance(DefaultSavedDisplay * 2)
	assert.Equal(t, StatusError, c.Status())

	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()

	c.Observe(named("B"))
	sched.Advance(DefaultDelay)
	assert.Equal(t, StatusSaved, c.Status())
	assert.NoError(t, c.Err())
}

func TestCoordinator_SavesDoNotOverlap(t *testing.T) {
	saver := &recordingSaver{}
	c, sched := newTestCoordinator(saver)

	inFlight := 0
	maxInFlight := 0
	saver.hook = func(n int) {
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		if n == 1 {
			// an edit whose window closes while the first save is still running
			c.Observe(named("second"))
			sched.Advance(DefaultDelay)
		}
		inFlight--
	}

	c.Observe(model.InitialData())
	c.Observe(named("first"))
	sched.Advance(DefaultDelay)

	calls := saver.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].data.GeneralInfo.Name)
	assert.Equal(t, "second", calls[1].data.GeneralInfo.Name)
	assert.Equal(t, 1, maxInFlight)
	assert.Greater(t, calls[1].revision, calls[0].revision)
}

func TestCoordinator_RevisionsIncrease(t *testing.T) {
	saver := &recordingSaver{}
	// frozen clock: revisions still move forward
	c := New("u-1", saver, WithScheduler(NewManualScheduler(epoch)), WithClock(func() time.Time { return epoch }))

	c.Observe(model.InitialData())
	for _, name := range []string{"a", "b", "c"} {
		c.Observe(named(name))
		require.NoError(t, c.Flush(context.Background()))
	}

	calls := saver.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, epoch.UnixNano(), calls[0].revision)
	assert.Equal(t, epoch.UnixNano()+1, calls[1].revision)
	assert.Equal(t, epoch.UnixNano()+2, calls[2].revision)
}

func TestCoordinator_Flush(t *testing.T) {
	saver := &recordingSaver{}
	c, sched := newTestCoordinator(saver)

	require.NoError(t, c.Flush(context.Background()), "nothing pending")

	c.Observe(model.InitialData())
	c.Observe(named("A"))
	require.NoError(t, c.Flush(context.Background()))
	require.Len(t, saver.Calls(), 1)

	sched.Advance(DefaultDelay)
	assert.Len(t, saver.Calls(), 1, "flushed edit must not be saved twice")

	saver.mu.Lock()
	saver.err = errors.New("boom")
	saver.mu.Unlock()
	c.Observe(named("B"))
	assert.EqualError(t, c.Flush(context.Background()), "boom")
}

func TestCoordinator_SnapshotIsCopied(t *testing.T) {
	saver := &recordingSaver{}
	c, sched := newTestCoordinator(saver)

	c.Observe(model.InitialData())
	d := testutil.ValidForm()
	c.Observe(d)
	d.Resources.ExtendedEmployees[0].Name = "changed after observe"
	sched.Advance(DefaultDelay)

	require.Len(t, saver.Calls(), 1)
	assert.Equal(t, "Asha", saver.Calls()[0].data.Resources.ExtendedEmployees[0].Name)
}

func TestCoordinator_Close(t *testing.T) {
	saver := &recordingSaver{}
	c, sched := newTestCoordinator(saver)

	c.Observe(model.InitialData())
	c.Observe(named("A"))
	c.Close()
	sched.Advance(time.Minute)

	c.Observe(named("B"))
	sched.Advance(time.Minute)

	assert.Empty(t, saver.Calls())
	assert.Equal(t, 0, sched.Pending())
	assert.NoError(t, c.Flush(context.Background()))
}

func TestCoordinator_CloseDuringSave(t *testing.T) {
	saver := &recordingSaver{}
	c, sched := newTestCoordinator(saver)
	saver.hook = func(int) { c.Close() }

	c.Observe(model.InitialData())
	c.Observe(named("A"))
	sched.Advance(DefaultDelay)

	require.Len(t, saver.Calls(), 1)
	assert.Equal(t, StatusSaved, c.Status())
	assert.Equal(t, 0, sched.Pending(), "no revert timer after close")
}

func TestCoordinator_ResumeAheadOfClock(t *testing.T) {
	ctx := context.Background()
	svc := draft.NewService(draft.NewMemoryStore(), nil)

	// stored by a machine whose clock runs five minutes ahead
	base := epoch.Add(5 * time.Minute).UnixNano()
	require.NoError(t, svc.SaveDraft(ctx, "u-1", base, named("A")))

	stale, sched := newTestCoordinator(svc)
	stale.Observe(named("A"))
	stale.Observe(named("AB"))
	sched.Advance(DefaultDelay)
	assert.ErrorIs(t, stale.Err(), draft.ErrStaleRevision)
	stale.Close()

	sched = NewManualScheduler(epoch)
	c := New("u-1", svc, WithScheduler(sched), WithClock(sched.Now), WithBaseRevision(base))
	c.Observe(named("A"))
	c.Observe(named("AB"))
	sched.Advance(DefaultDelay)
	require.NoError(t, c.Err())
	assert.Equal(t, StatusSaved, c.Status())

	c.Observe(named("ABC"))
	sched.Advance(DefaultDelay)
	require.NoError(t, c.Err())

	got, err := svc.Load(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, base+2, got.Revision)
	assert.Equal(t, "ABC", got.Data.GeneralInfo.Name)
	c.Close()
}

func TestCoordinator_TimerSchedulerNoLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	saved := make(chan model.ProjectFormData, 1)
	saver := SaverFunc(func(ctx context.Context, ownerID string, revision int64, data model.ProjectFormData) error {
		saved <- data
		return nil
	})

	c := New("u-1", saver, WithDelay(10*time.Millisecond), WithSavedDisplay(time.Hour))
	c.Observe(model.InitialData())
	c.Observe(named("real timer"))

	select {
	case d := <-saved:
		assert.Equal(t, "real timer", d.GeneralInfo.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("save did not fire")
	}

	require.Eventually(t, func() bool { return c.Status() == StatusSaved }, time.Second, 5*time.Millisecond)
	c.Close()
}

func TestManualScheduler(t *testing.T) {
	sched := NewManualScheduler(epoch)
	var order []string

	sched.Schedule(2*time.Second, func() { order = append(order, "b") })
	cancel := sched.Schedule(time.Second, func() { order = append(order, "cancelled") })
	sched.Schedule(time.Second, func() {
		order = append(order, "a")
		sched.Schedule(500*time.Millisecond, func() { order = append(order, "a2") })
	})

	assert.True(t, cancel())
	assert.False(t, cancel())

	sched.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "a2", "b"}, order)
	assert.Equal(t, epoch.Add(3*time.Second), sched.Now())
	assert.Equal(t, 0, sched.Pending())
}

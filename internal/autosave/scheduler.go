package autosave

import (
	"sort"
	"sync"
	"time"
)

// Cancel stops a scheduled call. It reports whether the call was stopped before running.
type Cancel func() bool

// Scheduler runs fn once after delay
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Cancel
}

// TimerScheduler schedules on the runtime timer; fn runs on its own goroutine
type TimerScheduler struct{}

func (TimerScheduler) Schedule(delay time.Duration, fn func()) Cancel {
	return time.AfterFunc(delay, fn).Stop
}

// ManualScheduler is a fake clock. Scheduled calls run synchronously inside Advance.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	at  time.Time
	seq int
	fn  func()
}

// NewManualScheduler starts the fake clock at start
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Now returns the fake time
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualScheduler) Schedule(delay time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{at: m.now.Add(delay), seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, p := range m.tasks {
			if p == t {
				m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward by d and runs every call that falls due,
// in due order. Calls may schedule or advance further.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.tasks, func(i, j int) bool {
			if m.tasks[i].at.Equal(m.tasks[j].at) {
				return m.tasks[i].seq < m.tasks[j].seq
			}
			return m.tasks[i].at.Before(m.tasks[j].at)
		})
		if len(m.tasks) == 0 || m.tasks[0].at.After(target) {
			if m.now.Before(target) {
				m.now = target
			}
			m.mu.Unlock()
			return
		}
		t := m.tasks[0]
		m.tasks = m.tasks[1:]
		if t.at.After(m.now) {
			m.now = t.at
		}
		m.mu.Unlock()

		t.fn()
	}
}

// Pending returns the number of scheduled calls not yet run
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Package autosave debounces wizard edits into draft saves and tracks the
// save indicator.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/internal/model"
)

const (
	DefaultDelay        = 1000 * time.Millisecond
	DefaultSavedDisplay = 2000 * time.Millisecond
	DefaultSaveTimeout  = 10 * time.Second
)

// Saver persists a full form snapshot for an owner
type Saver interface {
	SaveDraft(ctx context.Context, ownerID string, revision int64, data model.ProjectFormData) error
}

// SaverFunc adapts a function to Saver
type SaverFunc func(ctx context.Context, ownerID string, revision int64, data model.ProjectFormData) error

func (f SaverFunc) SaveDraft(ctx context.Context, ownerID string, revision int64, data model.ProjectFormData) error {
	return f(ctx, ownerID, revision, data)
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithDelay sets the quiet window before a save
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.delay = d }
}

// WithSavedDisplay sets how long "saved" shows before reverting to idle. Zero keeps it.
func WithSavedDisplay(d time.Duration) Option {
	return func(c *Coordinator) { c.savedDisplay = d }
}

// WithScheduler replaces the timer scheduler
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.sched = s }
}

// WithClock sets the time source used for revision stamps
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithBaseRevision seeds the revision counter with the revision of a resumed
// draft so the first save lands above it even when the clock is behind
func WithBaseRevision(rev int64) Option {
	return func(c *Coordinator) { c.lastRevision = rev }
}

// WithSaveTimeout bounds each save call. Zero disables the bound.
func WithSaveTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.saveTimeout = d }
}

type subscriber struct {
	id int
	fn func(Status)
}

// Coordinator turns a stream of form snapshots into debounced saves.
//
// The first snapshot passed to Observe is the hydration value and never saved.
// Later snapshots restart the debounce window; when it elapses the latest one
// is sent to the Saver. Saves never overlap: a window that closes while a
// save is running is served as soon as that save returns.
type Coordinator struct {
	ownerID string
	saver   Saver

	sched        Scheduler
	now          func() time.Time
	delay        time.Duration
	savedDisplay time.Duration
	saveTimeout  time.Duration

	mu           sync.Mutex
	hydrated     bool
	pending      *model.ProjectFormData
	gen          uint64
	cancelTimer  Cancel
	cancelRevert Cancel
	saving       bool
	queued       bool
	done         chan struct{}
	status       Status
	err          error
	lastRevision int64
	closed       bool
	subs         []subscriber
	nextSubID    int
}

// New creates a coordinator that saves drafts for ownerID through saver
func New(ownerID string, saver Saver, opts ...Option) *Coordinator {
	c := &Coordinator{
		ownerID:      ownerID,
		saver:        saver,
		sched:        TimerScheduler{},
		now:          time.Now,
		delay:        DefaultDelay,
		savedDisplay: DefaultSavedDisplay,
		saveTimeout:  DefaultSaveTimeout,
		status:       StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe records a form snapshot. The snapshot is copied.
func (c *Coordinator) Observe(data model.ProjectFormData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if !c.hydrated {
		c.hydrated = true
		return
	}

	snap := data.Clone()
	c.pending = &snap

	if c.cancelTimer != nil {
		c.cancelTimer()
	}
	c.gen++
	gen := c.gen
	c.cancelTimer = c.sched.Schedule(c.delay, func() { c.fire(gen) })
}

// fire runs when the debounce window of generation gen closes
func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.closed || c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.cancelTimer = nil
	if c.saving {
		c.queued = true
		c.mu.Unlock()
		return
	}
	c.startLocked()
	c.mu.Unlock()

	if err := c.drain(context.Background()); err != nil {
		logger.Warn("Autosave failed",
			logger.F("owner", c.ownerID),
			logger.F("error", err.Error()))
	}
}

func (c *Coordinator) startLocked() {
	c.saving = true
	c.queued = true
	c.done = make(chan struct{})
}

// drain saves queued snapshots one at a time until none is queued
func (c *Coordinator) drain(ctx context.Context) error {
	var lastErr error
	for {
		c.mu.Lock()
		if !c.queued || c.pending == nil || c.closed {
			c.saving = false
			c.queued = false
			close(c.done)
			c.mu.Unlock()
			return lastErr
		}
		data := *c.pending
		c.pending = nil
		c.queued = false
		rev := c.nextRevisionLocked()
		if c.cancelRevert != nil {
			c.cancelRevert()
			c.cancelRevert = nil
		}
		notify := c.setStatusLocked(StatusSaving)
		c.mu.Unlock()
		notify()

		err := c.save(ctx, rev, data)

		c.mu.Lock()
		if err != nil {
			c.err = err
			// keep the failed snapshot so Flush can retry it
			if c.pending == nil && !c.closed {
				c.pending = &data
			}
			notify = c.setStatusLocked(StatusError)
		} else {
			c.err = nil
			notify = c.setStatusLocked(StatusSaved)
			if !c.closed {
				c.scheduleRevertLocked()
			}
		}
		c.mu.Unlock()
		notify()
		lastErr = err
	}
}

func (c *Coordinator) save(ctx context.Context, rev int64, data model.ProjectFormData) error {
	if c.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.saveTimeout)
		defer cancel()
	}
	return c.saver.SaveDraft(ctx, c.ownerID, rev, data)
}

// nextRevisionLocked returns max(now, last+1) in nanoseconds
func (c *Coordinator) nextRevisionLocked() int64 {
	rev := c.now().UnixNano()
	if rev <= c.lastRevision {
		rev = c.lastRevision + 1
	}
	c.lastRevision = rev
	return rev
}

func (c *Coordinator) scheduleRevertLocked() {
	if c.savedDisplay <= 0 {
		return
	}
	c.cancelRevert = c.sched.Schedule(c.savedDisplay, func() {
		c.mu.Lock()
		notify := func() {}
		if c.status == StatusSaved && !c.saving {
			notify = c.setStatusLocked(StatusIdle)
		}
		c.cancelRevert = nil
		c.mu.Unlock()
		notify()
	})
}

// setStatusLocked updates the status and returns a func that notifies subscribers.
// The returned func must be called without the lock held.
func (c *Coordinator) setStatusLocked(s Status) func() {
	if c.status == s {
		return func() {}
	}
	c.status = s
	subs := make([]func(Status), len(c.subs))
	for i, sub := range c.subs {
		subs[i] = sub.fn
	}
	return func() {
		for _, fn := range subs {
			fn(s)
		}
	}
}

// Subscribe registers fn for status changes and returns a function that removes it
func (c *Coordinator) Subscribe(fn func(Status)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	id := c.nextSubID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Status returns the current save status
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error of the last save, nil after a successful one
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pending returns true if an edit is waiting to be saved
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Flush saves the pending snapshot now instead of waiting for the window,
// waiting for any running save first. It returns the last save error.
func (c *Coordinator) Flush(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil
		}
		if c.cancelTimer != nil {
			c.cancelTimer()
			c.cancelTimer = nil
		}
		if c.saving {
			if c.pending != nil {
				c.queued = true
			}
			done := c.done
			c.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if c.pending == nil {
			err := c.err
			c.mu.Unlock()
			return err
		}
		c.gen++
		c.startLocked()
		c.mu.Unlock()
		return c.drain(ctx)
	}
}

// Close stops pending timers and drops unsaved edits. A running save completes.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.pending = nil
	if c.cancelTimer != nil {
		c.cancelTimer()
		c.cancelTimer = nil
	}
	if c.cancelRevert != nil {
		c.cancelRevert()
		c.cancelRevert = nil
	}
}

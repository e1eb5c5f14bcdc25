package syncer

import (
	"sync"
	"time"
)

type DebounceState string

const (
	DebounceIdle    DebounceState = "idle"
	DebouncePending DebounceState = "pending"
	DebounceRunning DebounceState = "running"
)

// Debouncer coalesces bursts of triggers into one deferred call. A trigger
// while Pending restarts the delay; a trigger while Running is dropped.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	state DebounceState
	timer *time.Timer
	gen   uint64
}

func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn, state: DebounceIdle}
}

// Trigger arms (or re-arms) the delayed call. It reports false when the
// trigger was dropped because the call is already running.
func (d *Debouncer) Trigger() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == DebounceRunning {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.state = DebouncePending
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	return true
}

// Cancel drops a pending call. A call already running is not interrupted.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DebouncePending {
		return
	}
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.state = DebounceIdle
}

func (d *Debouncer) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A later Trigger or Cancel superseded this timer.
	if gen != d.gen || d.state != DebouncePending {
		d.mu.Unlock()
		return
	}
	d.state = DebounceRunning
	d.timer = nil
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.state = DebounceIdle
		d.mu.Unlock()
	}()
	d.fn()
}

package client

import (
	"sync"
	"time"
)

// RevealWindow is how long a successful ownership check shows the
// unmasked record before it snaps back.
const RevealWindow = 3000 * time.Millisecond

// Reveal holds the unmasked record produced by an ownership check for
// a single timed window. When the window lapses the revealed record
// and the typed verification input are cleared together, so the UI
// can never show stale unmasked data next to a reusable input.
type Reveal struct {
	mu       sync.Mutex
	window   time.Duration
	schedule func(time.Duration, func()) func()

	input    string
	revealed *DocumentReport
	cancel   func()
	gen      uint64
}

// NewReveal builds a controller with the standard window.
func NewReveal() *Reveal {
	return NewRevealWithScheduler(RevealWindow, func(d time.Duration, f func()) func() {
		t := time.AfterFunc(d, f)
		return func() { t.Stop() }
	})
}

// NewRevealWithScheduler injects the timer for tests.
func NewRevealWithScheduler(window time.Duration, schedule func(time.Duration, func()) func()) *Reveal {
	return &Reveal{window: window, schedule: schedule}
}

// SetInput records what the user has typed. Kept here so expiry can
// clear it in the same critical section as the revert.
func (r *Reveal) SetInput(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = s
}

func (r *Reveal) Input() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.input
}

// Show starts (or restarts) the reveal window for doc. A second
// success while one window is open replaces the record and resets the
// clock; the earlier timer is disarmed.
func (r *Reveal) Show(doc *DocumentReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.revealed = doc
	r.gen++
	gen := r.gen
	r.cancel = r.schedule(r.window, func() { r.expire(gen) })
}

// expire reverts only if no newer Show superseded this timer.
func (r *Reveal) expire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.revealed = nil
	r.input = ""
	r.cancel = nil
}

// Current returns the revealed record, or nil while masked.
func (r *Reveal) Current() *DocumentReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revealed
}

// Close disarms the timer without clearing state; call on teardown.
func (r *Reveal) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

package client

import (
	"context"
	"sync"
	"time"
)

// Payment poll states.
type PollState string

const (
	PollInput   PollState = "input"   // collecting phone number
	PollPending PollState = "pending" // charge requested, awaiting outcome
	PollSuccess PollState = "success"
	PollFailed  PollState = "failed"
)

const (
	// PollInterval is the gap between status checks.
	PollInterval = 3000 * time.Millisecond
	// PollBudget bounds the whole pending phase; sandbox payments that
	// never settle must not poll forever.
	PollBudget = 5 * time.Minute
)

// StatusFunc fetches the current payment status.
type StatusFunc func(ctx context.Context) (*PaymentStatus, error)

// Poller drives the client side of a mobile-money charge:
// input → pending → success|failed. Terminal states stop the loop, a
// fetch error counts as failure, and the unlock callback fires exactly
// once. Reset returns a failed poller to input for a retry.
type Poller struct {
	mu       sync.Mutex
	state    PollState
	interval time.Duration
	budget   time.Duration
	onUnlock func(*ContactDetails)
	unlocked bool
}

func NewPoller(onUnlock func(*ContactDetails)) *Poller {
	return &Poller{
		state:    PollInput,
		interval: PollInterval,
		budget:   PollBudget,
		onUnlock: onUnlock,
	}
}

// NewPollerWithTiming injects interval and budget for tests.
func NewPollerWithTiming(onUnlock func(*ContactDetails), interval, budget time.Duration) *Poller {
	p := NewPoller(onUnlock)
	p.interval = interval
	p.budget = budget
	return p
}

func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) setState(s PollState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Reset moves failed back to input so the user can retry with fresh
// fields. Any other state is left alone.
func (p *Poller) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PollFailed {
		p.state = PollInput
		p.unlocked = false
	}
}

// Run polls fetch until the payment settles, the budget lapses or ctx
// is canceled. It returns the terminal state (PollPending only when
// canceled mid-flight).
func (p *Poller) Run(ctx context.Context, fetch StatusFunc) PollState {
	p.setState(PollPending)
	deadline := time.Now().Add(p.budget)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		status, err := fetch(ctx)
		if err != nil {
			p.setState(PollFailed)
			return PollFailed
		}

		if status.Paid {
			p.finish(status)
			return PollSuccess
		}
		if status.Status == "FAILED" {
			p.setState(PollFailed)
			return PollFailed
		}

		if time.Now().After(deadline) {
			p.setState(PollFailed)
			return PollFailed
		}

		select {
		case <-ctx.Done():
			return p.State()
		case <-ticker.C:
		}
	}
}

func (p *Poller) finish(status *PaymentStatus) {
	p.mu.Lock()
	fire := !p.unlocked
	p.unlocked = true
	p.state = PollSuccess
	callback := p.onUnlock
	p.mu.Unlock()

	if fire && callback != nil {
		callback(status.Contact)
	}
}

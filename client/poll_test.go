package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastPoller(onUnlock func(*ContactDetails)) *Poller {
	return NewPollerWithTiming(onUnlock, time.Millisecond, time.Second)
}

func TestPollReachesSuccess(t *testing.T) {
	var unlocks int32
	var got *ContactDetails
	poller := fastPoller(func(c *ContactDetails) {
		atomic.AddInt32(&unlocks, 1)
		got = c
	})

	polls := 0
	state := poller.Run(context.Background(), func(ctx context.Context) (*PaymentStatus, error) {
		polls++
		if polls < 3 {
			return &PaymentStatus{Paid: false, Status: "PENDING"}, nil
		}
		return &PaymentStatus{
			Paid:    true,
			Status:  "SUCCESSFUL",
			Contact: &ContactDetails{FullName: "Jean Bosco", Phone: "0788123456"},
		}, nil
	})

	assert.Equal(t, PollSuccess, state)
	assert.Equal(t, PollSuccess, poller.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&unlocks))
	assert.Equal(t, "Jean Bosco", got.FullName)
}

func TestPollFailedOutcome(t *testing.T) {
	poller := fastPoller(nil)

	state := poller.Run(context.Background(), func(ctx context.Context) (*PaymentStatus, error) {
		return &PaymentStatus{Paid: false, Status: "FAILED"}, nil
	})

	assert.Equal(t, PollFailed, state)
}

func TestPollErrorCountsAsFailure(t *testing.T) {
	poller := fastPoller(nil)

	state := poller.Run(context.Background(), func(ctx context.Context) (*PaymentStatus, error) {
		return nil, errors.New("network down")
	})

	assert.Equal(t, PollFailed, state)
}

func TestPollBudgetExhausted(t *testing.T) {
	poller := NewPollerWithTiming(nil, time.Millisecond, 10*time.Millisecond)

	state := poller.Run(context.Background(), func(ctx context.Context) (*PaymentStatus, error) {
		return &PaymentStatus{Paid: false, Status: "PENDING"}, nil
	})

	assert.Equal(t, PollFailed, state)
}

func TestPollCancellation(t *testing.T) {
	poller := NewPollerWithTiming(nil, 50*time.Millisecond, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan PollState, 1)
	go func() {
		done <- poller.Run(ctx, func(ctx context.Context) (*PaymentStatus, error) {
			return &PaymentStatus{Paid: false, Status: "PENDING"}, nil
		})
	}()

	cancel()
	select {
	case state := <-done:
		assert.Equal(t, PollPending, state)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancellation")
	}
}

func TestResetAfterFailure(t *testing.T) {
	poller := fastPoller(nil)

	poller.Run(context.Background(), func(ctx context.Context) (*PaymentStatus, error) {
		return nil, errors.New("down")
	})
	assert.Equal(t, PollFailed, poller.State())

	poller.Reset()
	assert.Equal(t, PollInput, poller.State())
}

func TestResetIgnoresNonFailedStates(t *testing.T) {
	poller := fastPoller(nil)

	poller.Run(context.Background(), func(ctx context.Context) (*PaymentStatus, error) {
		return &PaymentStatus{Paid: true, Status: "SUCCESSFUL"}, nil
	})
	poller.Reset()

	assert.Equal(t, PollSuccess, poller.State())
}

package service

import (
	"context"
	"time"
)

type PollOutcome int

const (
	PollReady PollOutcome = iota
	PollTimedOut
	PollFailed
)

func (o PollOutcome) String() string {
	switch o {
	case PollReady:
		return "ready"
	case PollTimedOut:
		return "timed out"
	default:
		return "failed"
	}
}

// PollState is what a single check observed.
type PollState int

const (
	StatePending PollState = iota
	StateReady
	StateFailed
)

// Poller runs a check up to Attempts times with Interval between checks.
type Poller struct {
	Attempts int
	Interval time.Duration
	Sleep    func(ctx context.Context, d time.Duration) error
}

func NewPoller(attempts int, interval time.Duration) Poller {
	return Poller{Attempts: attempts, Interval: interval, Sleep: sleepContext}
}

// Poll returns PollFailed with the check's error when a check errors.
func (p Poller) Poll(ctx context.Context, check func(ctx context.Context) (PollState, error)) (PollOutcome, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		state, err := check(ctx)
		if err != nil {
			return PollFailed, err
		}
		switch state {
		case StateReady:
			return PollReady, nil
		case StateFailed:
			return PollFailed, nil
		}

		if attempt < p.Attempts {
			if err := sleep(ctx, p.Interval); err != nil {
				return PollFailed, err
			}
		}
	}
	return PollTimedOut, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

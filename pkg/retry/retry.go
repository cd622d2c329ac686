package retry

import (
	"context"
	"math/rand"
	"time"
)

type Operation = func() error

// Policy describes an exponential backoff schedule with jitter.
type Policy struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Jitter        time.Duration
}

// DefaultPolicy is tuned for upstream API calls: a handful of attempts
// with sub-second initial backoff.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:    3,
		BackoffFactor: 2.0,
		InitialDelay:  400 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
}

// Do runs op until it succeeds, the retry budget is spent, or ctx is
// cancelled. Total calls = MaxRetries + 1. The last error is returned
// unchanged.
func (p *Policy) Do(ctx context.Context, op Operation) error {
	var err error
	delay := p.InitialDelay
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}

		if attempt == p.MaxRetries {
			return err
		}

		jitter := time.Duration(rnd.Float64() * float64(p.Jitter))
		nextDelay := delay + jitter
		if nextDelay > p.MaxDelay {
			nextDelay = p.MaxDelay + jitter
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(nextDelay):
		}

		delay = time.Duration(float64(delay) * p.BackoffFactor)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}

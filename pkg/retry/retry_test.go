package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPolicy_SuccessOnFirstTry(t *testing.T) {
	ctx := context.Background()
	policy := DefaultPolicy()

	counter := 0
	err := policy.Do(ctx, func() error {
		counter++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != 1 {
		t.Errorf("expected 1 attempt, got %d", counter)
	}
}

func TestPolicy_SuccessAfterRetries(t *testing.T) {
	ctx := context.Background()
	policy := DefaultPolicy()
	policy.InitialDelay = time.Millisecond
	policy.Jitter = time.Millisecond

	counter := 0
	err := policy.Do(ctx, func() error {
		counter++
		if counter < 2 {
			return errors.New("temporary error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != 2 {
		t.Errorf("expected 2 attempts, got %d", counter)
	}
}

func TestPolicy_AttemptsExhausted(t *testing.T) {
	ctx := context.Background()
	policy := &Policy{
		MaxRetries:    2,
		BackoffFactor: 2.0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		Jitter:        time.Millisecond,
	}

	permanent := errors.New("permanent error")
	counter := 0
	err := policy.Do(ctx, func() error {
		counter++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("expected %v, got %v", permanent, err)
	}
	if counter != 3 { // initial try + 2 retries
		t.Errorf("expected 3 attempts, got %d", counter)
	}
}

func TestPolicy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := DefaultPolicy()

	err := policy.Do(ctx, func() error {
		cancel()
		return errors.New("operation error after cancel")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetrySucceedsFirst(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), DefaultRetryConfig(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Retry() = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, Interval: time.Millisecond}
	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	if err != nil {
		t.Errorf("Retry() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, Interval: time.Millisecond}
	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return errTransient
	})

	if !errors.Is(err, errTransient) {
		t.Errorf("Retry() = %v, want errTransient", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	cfg := RetryConfig{
		MaxRetries:  5,
		Interval:    time.Millisecond,
		IsRetryable: func(err error) bool { return errors.Is(err, errTransient) },
	}
	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return fatal
	})

	if !errors.Is(err, fatal) {
		t.Errorf("Retry() = %v, want fatal", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func() error {
		t.Error("fn should not run with cancelled context")
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
}

func TestRetryCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxRetries: 10, Interval: time.Hour}

	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, cfg, func() error { return errTransient })
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Retry() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Retry did not return after cancellation")
	}
}

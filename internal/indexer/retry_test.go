package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"bridgeWatch/internal/watcher"
)

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return &watcher.Error{Kind: watcher.KindTransientUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return &watcher.Error{Kind: watcher.KindTransientUnavailable}
	})
	if !errors.Is(err, watcher.ErrTransientUnavailable) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	for _, err := range []error{
		&watcher.Error{Kind: watcher.KindProviderIntegrity},
		errors.New("plain"),
	} {
		calls := 0
		got := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
			calls++
			return err
		})
		if got != err {
			t.Fatalf("expected %v, got %v", err, got)
		}
		if calls != 1 {
			t.Fatalf("permanent error %v retried %d times", err, calls-1)
		}
	}
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 5, time.Hour, func(context.Context) error {
		return &watcher.Error{Kind: watcher.KindNotYetFinalized}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

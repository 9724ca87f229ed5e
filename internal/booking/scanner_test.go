// internal/booking/scanner_test.go
package booking

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completerStub overrides only the scan entry point; the embedded
// interface panics if anything else gets called.
type completerStub struct {
	Service
	complete func(ctx context.Context) (int, error)
}

func (s *completerStub) CompleteExpired(ctx context.Context) (int, error) {
	return s.complete(ctx)
}

func TestScannerRunsImmediately(t *testing.T) {
	scanned := make(chan struct{}, 1)
	scanner := NewScanner(&completerStub{complete: func(context.Context) (int, error) {
		scanned <- struct{}{}
		return 0, nil
	}}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scanner.Run(ctx) }()

	select {
	case <-scanned:
	case <-time.After(2 * time.Second):
		t.Fatal("first scan never ran")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestScannerSkipsOverlappingScan(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	scanner := NewScanner(&completerStub{complete: func(context.Context) (int, error) {
		calls.Add(1)
		close(entered)
		<-release
		return 0, nil
	}}, time.Hour)

	go scanner.scan(context.Background())
	<-entered

	// The first scan is still holding the lock; this one must bail out
	// instead of blocking.
	scanner.scan(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	close(release)
}

func TestScannerDefaultsInterval(t *testing.T) {
	scanner := NewScanner(&completerStub{}, 0)
	assert.Equal(t, time.Hour, scanner.interval)
}

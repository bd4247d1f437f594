package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPollZeroTimeoutMakesOneProbe pins spec.md §8's boundary behavior:
// "A get with timeout = 0 makes at most one probe."
func TestPollZeroTimeoutMakesOneProbe(t *testing.T) {
	var calls int32
	probe := func(ctx context.Context) (string, bool, error) {
		atomic.AddInt32(&calls, 1)
		return "", false, nil
	}

	val, ok, err := Poll(context.Background(), 0, false, nil, probe)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", val)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestPollNegativeTimeoutMakesOneProbe extends the same rule to a
// negative Timeout, which is never a valid deadline either.
func TestPollNegativeTimeoutMakesOneProbe(t *testing.T) {
	var calls int32
	probe := func(ctx context.Context) (string, bool, error) {
		atomic.AddInt32(&calls, 1)
		return "", false, nil
	}

	_, ok, err := Poll(context.Background(), -time.Second, false, nil, probe)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestPollZeroTimeoutReturnsValueOnImmediateHit ensures the single probe
// still reports success when the value is present on the first attempt.
func TestPollZeroTimeoutReturnsValueOnImmediateHit(t *testing.T) {
	val, ok, err := Poll(context.Background(), 0, false, nil, func(ctx context.Context) (int, bool, error) {
		return 42, true, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, val)
}

// TestPollSucceedsBeforeDeadline exercises the normal polling path: the
// probe reports "not found" twice, then succeeds on the third attempt.
func TestPollSucceedsBeforeDeadline(t *testing.T) {
	var calls int32
	val, ok, err := Poll(context.Background(), 5*time.Second, true, nil, func(ctx context.Context) (string, bool, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return "", false, nil
		}
		return "ready", true, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ready", val)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

// TestPollDeadlineElapsesReturnsNotFound matches spec.md §8's boundary
// behavior: a timeout that elapses returns not-found rather than an error.
func TestPollDeadlineElapsesReturnsNotFound(t *testing.T) {
	_, ok, err := Poll(context.Background(), 1500*time.Millisecond, false, nil, func(ctx context.Context) (string, bool, error) {
		return "", false, nil
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestPollPropagatesFatalError ensures a probe error short-circuits
// polling immediately rather than being retried.
func TestPollPropagatesFatalError(t *testing.T) {
	boom := errors.New("boom")
	var calls int32
	_, ok, err := Poll(context.Background(), 5*time.Second, false, nil, func(ctx context.Context) (string, bool, error) {
		atomic.AddInt32(&calls, 1)
		return "", false, boom
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestPollCanceledContextStops ensures cancellation is observed between
// poll intervals rather than spinning to the deadline (spec.md §5
// cancellation guarantee).
func TestPollCanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, ok, err := Poll(ctx, 10*time.Second, false, nil, func(ctx context.Context) (string, bool, error) {
		return "", false, nil
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hubert-project/hubert/internal/logger"
)

// Probe is one attempt at resolving a value. ok=false with err=nil means
// "not found yet, keep polling." ok=false with err!=nil is fatal.
type Probe[T any] func(ctx context.Context) (value T, ok bool, err error)

// Poll runs probe immediately, then every PollInterval, until it succeeds,
// returns a fatal error, the context is canceled, or timeout elapses since
// the first attempt. It is the single place the 1000 ms poll cadence and
// deadline-vs-one-more-probe rule (spec §8 boundary behaviors) live, so
// every polling backend shares the same semantics.
func Poll[T any](ctx context.Context, timeout time.Duration, verbose bool, log logger.Logger, probe Probe[T]) (T, bool, error) {
	var zero T

	// timeout <= 0 makes at most one probe (spec §8 boundary behavior).
	// Callers that want the 30s store-contract default must pass
	// DefaultGetTimeout explicitly; Poll itself never substitutes it.
	if timeout <= 0 {
		val, ok, err := probe(ctx)
		return val, ok, err
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	// opID correlates every "poll attempt" log line from a single Get
	// call, the way a request ID correlates one request's log lines.
	var opID string
	if verbose && log != nil {
		opID = uuid.NewString()
	}

	attempt := 0
	for {
		attempt++
		if verbose && log != nil {
			log.Debug("poll attempt", logger.String("op", opID), logger.Int("attempt", attempt))
		}

		val, ok, err := probe(ctx)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return val, true, nil
		}

		if !time.Now().Before(deadline) {
			return zero, false, nil
		}

		select {
		case <-ctx.Done():
			return zero, false, ctx.Err()
		case now := <-ticker.C:
			if !now.Before(deadline) {
				return zero, false, nil
			}
		}
	}
}

// Package guardrails holds cross cutting safety helpers for harvest
package guardrails

import (
	"context"
	"fmt"
	"time"

	"almgetl/internal/modkit/repokit"
)

// Timeouts is an optional budget bundle for a single page batch.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Batch caps one upsert transaction
	Batch time.Duration

	// Lock caps the wait for row and advisory locks inside a batch
	Lock time.Duration
}

// ForBatch returns a sub context for the load phase bounded by Batch and any remaining parent budget
func ForBatch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Batch)
}

// LockTimeoutHook sets lock_timeout for the current transaction only.
// Returns nil when Lock is zero
func LockTimeoutHook(t Timeouts) repokit.BeginHook {
	if t.Lock <= 0 {
		return nil
	}
	val := fmt.Sprintf("%dms", t.Lock.Milliseconds())
	return func(ctx context.Context, q repokit.Queryer) error {
		_, err := q.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, val)
		return err
	}
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder.
// Never extends the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}

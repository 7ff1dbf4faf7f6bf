package testkit

import (
	"context"
	"sync"
	"time"
)

// Sleeps records every requested pause instead of blocking.
// Plug Sleeps.Sleep into any sleep seam shaped like func(ctx, d) error
type Sleeps struct {
	mu  sync.Mutex
	got []time.Duration
}

// Sleep records d and returns ctx.Err() so cancellation still short-circuits callers
func (s *Sleeps) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.got = append(s.got, d)
	s.mu.Unlock()
	return ctx.Err()
}

// All returns a copy of the recorded durations in call order
func (s *Sleeps) All() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.got))
	copy(out, s.got)
	return out
}

// Total sums the recorded durations
func (s *Sleeps) Total() time.Duration {
	var sum time.Duration
	for _, d := range s.All() {
		sum += d
	}
	return sum
}

// Clock is a manual clock for now() seams; safe for concurrent use
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a Clock frozen at t
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

// Now returns the current frozen instant
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Package throttle paces browser requests. The scraper pauses between items,
// after scroll steps and after each session; Pacer lets callers swap the
// wall clock for something tests can observe.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/pevans/venuefed/config"
)

// Pacer pauses for a duration or until ctx is done.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration) error
}

// Policy names every pause the scraper takes.
type Policy struct {
	ItemDelay       time.Duration
	ScrollSettle    time.Duration
	ListingCooldown time.Duration
	RecordDelay     time.Duration
	DetailCooldown  time.Duration
}

// PolicyFrom builds a Policy from the throttle section of the config.
func PolicyFrom(cfg config.ThrottleConfig) Policy {
	return Policy{
		ItemDelay:       cfg.ItemDelay,
		ScrollSettle:    cfg.ScrollSettle,
		ListingCooldown: cfg.ListingCooldown,
		RecordDelay:     cfg.RecordDelay,
		DetailCooldown:  cfg.DetailCooldown,
	}
}

// Sleeper is the wall-clock Pacer.
type Sleeper struct{}

// Pause waits for d or returns ctx.Err() if ctx is done first.
func (Sleeper) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Recorder is a Pacer that returns immediately and remembers every pause it
// was asked for.
type Recorder struct {
	mu     sync.Mutex
	pauses []time.Duration
}

// Pause records d. It still honors a cancelled ctx.
func (r *Recorder) Pause(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.pauses = append(r.pauses, d)
	r.mu.Unlock()

	return ctx.Err()
}

// Pauses returns a copy of the recorded pauses in order.
func (r *Recorder) Pauses() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]time.Duration, len(r.pauses))
	copy(out, r.pauses)
	return out
}

// Total returns the sum of all recorded pauses.
func (r *Recorder) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Pauses() {
		total += d
	}
	return total
}

// Count returns how many times d was requested.
func (r *Recorder) Count(d time.Duration) int {
	n := 0
	for _, p := range r.Pauses() {
		if p == d {
			n++
		}
	}
	return n
}

// Package motion holds the time-driven state behind the page's interaction
// effects: counters, scroll reveals, ripple marks and the typing effect.
package motion

import (
	"math"
	"sync"
	"time"
)

// DefaultCounterDuration applies when a counter is built without a positive duration.
const DefaultCounterDuration = 2 * time.Second

// EaseOutQuart maps progress in [0,1] onto a decelerating curve. Out of range input is clamped.
func EaseOutQuart(f float64) float64 {
	f = math.Max(0, math.Min(1, f))
	return 1 - math.Pow(1-f, 4)
}

// Counter counts from Start to End over Duration once triggered.
// It is one-shot: triggering again, even after completion, changes nothing.
type Counter struct {
	Start    int
	End      int
	Duration time.Duration

	mu        sync.Mutex
	triggered bool
	startedAt time.Time
}

func NewCounter(start, end int, duration time.Duration) *Counter {
	if duration <= 0 {
		duration = DefaultCounterDuration
	}
	return &Counter{Start: start, End: end, Duration: duration}
}

// Trigger starts the counter at now. It reports whether this call started it.
func (c *Counter) Trigger(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.triggered {
		return false
	}
	c.triggered, c.startedAt = true, now
	return true
}

func (c *Counter) Triggered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggered
}

func (c *Counter) progress(now time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.triggered {
		return 0, false
	}
	f := float64(now.Sub(c.startedAt)) / float64(c.Duration)
	return math.Max(0, math.Min(1, f)), true
}

// Value is the displayed integer at now: Start until triggered, End from Duration onwards.
func (c *Counter) Value(now time.Time) int {
	f, ok := c.progress(now)
	if !ok {
		return c.Start
	}
	if f >= 1 {
		return c.End
	}
	return int(math.Floor(float64(c.Start) + float64(c.End-c.Start)*EaseOutQuart(f)))
}

// Done reports whether the counter has reached End.
func (c *Counter) Done(now time.Time) bool {
	f, ok := c.progress(now)
	return ok && f >= 1
}

package motion

import (
	"math"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// RippleLifetime is how long a ripple mark stays on its button.
const RippleLifetime = 600 * time.Millisecond

// Rect is a button's bounding box in client coordinates.
type Rect struct {
	Left, Top, Width, Height float64
}

// Mark is one ripple, positioned relative to the button's top-left corner.
type Mark struct {
	ID      uint64
	X, Y    float64
	Size    float64
	Created time.Time
}

// Ripples is the set of live marks of one button.
type Ripples struct {
	clk clock.WithDelayedExecution

	mu     sync.Mutex
	seq    uint64
	marks  []Mark
	timers map[uint64]clock.Timer
	closed bool
}

func NewRipples(clk clock.WithDelayedExecution) *Ripples {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Ripples{clk: clk, timers: make(map[uint64]clock.Timer)}
}

// Spawn adds a mark for a click at (clientX, clientY) and schedules its removal.
// The mark's size is the larger side of rect and it is centred on the click.
func (r *Ripples) Spawn(rect Rect, clientX, clientY float64) (Mark, bool) {
	size := math.Max(rect.Width, rect.Height)
	now := r.clk.Now()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Mark{}, false
	}
	r.seq++
	m := Mark{
		ID:      r.seq,
		X:       clientX - rect.Left - size/2,
		Y:       clientY - rect.Top - size/2,
		Size:    size,
		Created: now,
	}
	r.marks = append(r.marks, m)
	r.mu.Unlock()

	id := m.ID
	t := r.clk.AfterFunc(RippleLifetime, func() { r.remove(id) })

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		t.Stop()
	case r.has(id):
		r.timers[id] = t
	}
	return m, true
}

func (r *Ripples) has(id uint64) bool {
	for _, m := range r.marks {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (r *Ripples) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timers, id)
	for i, m := range r.marks {
		if m.ID == id {
			r.marks = append(r.marks[:i:i], r.marks[i+1:]...)
			return
		}
	}
}

// Active lists the live marks in insertion order.
func (r *Ripples) Active() []Mark {
	now := r.clk.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Mark, 0, len(r.marks))
	for _, m := range r.marks {
		if now.Sub(m.Created) < RippleLifetime {
			out = append(out, m)
		}
	}
	return out
}

// Close cancels every pending removal and drops all marks.
func (r *Ripples) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.marks = nil
	r.closed = true
}

// Pending reports how many removals are still scheduled.
func (r *Ripples) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Button gives click feedback through ripples before running its handler.
type Button struct {
	Disabled bool
	Loading  bool
	OnClick  func()

	ripples *Ripples
}

func NewButton(clk clock.WithDelayedExecution, onClick func()) *Button {
	return &Button{OnClick: onClick, ripples: NewRipples(clk)}
}

// Click handles one click. Disabled or loading buttons ignore it entirely.
func (b *Button) Click(rect Rect, clientX, clientY float64) bool {
	if b.Disabled || b.Loading {
		return false
	}
	if _, ok := b.ripples.Spawn(rect, clientX, clientY); !ok {
		return false
	}
	if b.OnClick != nil {
		b.OnClick()
	}
	return true
}

func (b *Button) Ripples() *Ripples { return b.ripples }

// Close tears the button down, cancelling pending ripple timers.
func (b *Button) Close() { b.ripples.Close() }

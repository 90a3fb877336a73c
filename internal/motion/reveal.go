package motion

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Variant is the entrance animation of a revealed block.
type Variant string

const (
	FadeUp     Variant = "fade-up"
	FadeDown   Variant = "fade-down"
	FadeIn     Variant = "fade-in"
	SlideLeft  Variant = "slide-left"
	SlideRight Variant = "slide-right"
	ScaleUp    Variant = "scale-up"
)

var hiddenClasses = map[Variant]string{
	FadeUp:     "translate-y-10 opacity-0",
	FadeDown:   "-translate-y-10 opacity-0",
	FadeIn:     "opacity-0",
	SlideLeft:  "translate-x-10 opacity-0",
	SlideRight: "-translate-x-10 opacity-0",
	ScaleUp:    "scale-95 opacity-0",
}

// SettledClasses is the resting style every variant transitions to.
const SettledClasses = "translate-y-0 translate-x-0 opacity-100 scale-100"

// Defaults for reveal options.
const (
	DefaultRevealThreshold = 0.1
	DefaultRevealDuration  = 600 * time.Millisecond
)

func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := hiddenClasses[v]; !ok {
		return "", fmt.Errorf("unknown reveal animation %q", s)
	}
	return v, nil
}

// HiddenClasses is the offset/transparent style shown before the block is revealed.
func (v Variant) HiddenClasses() string { return hiddenClasses[v] }

// RevealOptions parameterises one revealed block.
type RevealOptions struct {
	Variant   Variant
	Delay     time.Duration
	Duration  time.Duration
	Threshold float64
}

// WithDefaults fills zero fields.
func (o RevealOptions) WithDefaults() RevealOptions {
	if o.Variant == "" {
		o.Variant = FadeUp
	}
	if o.Duration <= 0 {
		o.Duration = DefaultRevealDuration
	}
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = DefaultRevealThreshold
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	return o
}

// Style renders the transition timing as an inline CSS declaration list.
func (o RevealOptions) Style() string {
	return fmt.Sprintf("transition-duration:%ss;transition-delay:%ss", seconds(o.Duration), seconds(o.Delay))
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// Reveal latches once its element has been seen enough.
type Reveal struct {
	threshold float64

	mu      sync.Mutex
	visible bool
}

func NewReveal(threshold float64) *Reveal {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultRevealThreshold
	}
	return &Reveal{threshold: threshold}
}

// Observe feeds the current intersection ratio and returns the visibility flag.
// The flag flips once and never reverts.
func (r *Reveal) Observe(ratio float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.visible && ratio >= r.threshold {
		r.visible = true
	}
	return r.visible
}

func (r *Reveal) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

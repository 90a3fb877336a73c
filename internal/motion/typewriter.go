package motion

import "time"

// Defaults for the hero typing effect.
const (
	DefaultTypingDelay = time.Second
	DefaultTypingSpeed = 60 * time.Millisecond
)

// Typewriter reveals Text one rune per Speed after an initial Delay.
type Typewriter struct {
	Text  string
	Delay time.Duration
	Speed time.Duration

	runes []rune
}

func NewTypewriter(text string, delay, speed time.Duration) *Typewriter {
	if delay < 0 {
		delay = DefaultTypingDelay
	}
	if speed <= 0 {
		speed = DefaultTypingSpeed
	}
	return &Typewriter{Text: text, Delay: delay, Speed: speed, runes: []rune(text)}
}

func (t *Typewriter) count(elapsed time.Duration) int {
	if elapsed < t.Delay {
		return 0
	}
	n := int((elapsed - t.Delay) / t.Speed)
	return min(n, len(t.runes))
}

// Visible is the typed prefix after elapsed time.
func (t *Typewriter) Visible(elapsed time.Duration) string {
	return string(t.runes[:t.count(elapsed)])
}

func (t *Typewriter) Done(elapsed time.Duration) bool {
	return t.count(elapsed) == len(t.runes)
}

// Total is the time after which the whole text is visible.
func (t *Typewriter) Total() time.Duration {
	return t.Delay + time.Duration(len(t.runes))*t.Speed
}

package motion

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// FrameInterval approximates one display frame.
const FrameInterval = 16 * time.Millisecond

// Animate calls frame once immediately and then on every tick of clk until frame
// reports done or ctx ends. The ticker is always released.
func Animate(ctx context.Context, clk clock.WithTicker, interval time.Duration, frame func(now time.Time) (done bool)) error {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if interval <= 0 {
		interval = FrameInterval
	}
	if frame(clk.Now()) {
		return nil
	}
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			if frame(now) {
				return nil
			}
		}
	}
}

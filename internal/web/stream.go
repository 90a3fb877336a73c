package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dipan-dev/portfolio/internal/motion"
	"github.com/gin-gonic/gin"
)

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// handleStatStream counts one statistic up from zero. The browser opens it when the card becomes visible.
// Each value is sent once; the final "done" event carries the target.
func (s *Server) handleStatStream(c *gin.Context) {
	stats := s.deps.Content.Get().Statistics
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 || i >= len(stats) {
		c.String(http.StatusNotFound, "Unknown statistic")
		return
	}
	stat := stats[i]
	counter := motion.NewCounter(0, stat.Value, stat.Duration())
	counter.Trigger(s.clk.Now())

	sseHeaders(c)
	last := -1
	_ = motion.Animate(c.Request.Context(), s.clk, motion.FrameInterval, func(now time.Time) bool {
		if counter.Done(now) {
			c.SSEvent("done", stat.Value)
			c.Writer.Flush()
			return true
		}
		if v := counter.Value(now); v != last {
			last = v
			c.SSEvent("count", v)
			c.Writer.Flush()
		}
		return false
	})
}

// handleTaglineStream types the hero tagline one rune at a time.
func (s *Server) handleTaglineStream(c *gin.Context) {
	tw := motion.NewTypewriter(s.deps.Content.Get().Hero.Tagline, s.typingDelay, s.typingSpeed)
	start := s.clk.Now()

	sseHeaders(c)
	last := ""
	_ = motion.Animate(c.Request.Context(), s.clk, motion.FrameInterval, func(now time.Time) bool {
		elapsed := now.Sub(start)
		if text := tw.Visible(elapsed); text != last {
			last = text
			c.SSEvent("type", text)
			c.Writer.Flush()
		}
		if tw.Done(elapsed) {
			c.SSEvent("done", tw.Text)
			c.Writer.Flush()
			return true
		}
		return false
	})
}

package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dipan-dev/portfolio/internal/store"
	"github.com/gin-gonic/gin"
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(c.Request.Context(), level, "Request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// hashIP is consistent per address for the lifetime of the process.
func (s *Server) hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// Fragments, APIs and downloads belong to a page view that is already counted.
var untrackedPrefixes = []string{
	"/static/", "/stream/", "/sections/", "/api/", "/resume.pdf",
	"/admin", "/healthz", "/favicon",
}

func tracked(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	for _, p := range untrackedPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			return false
		}
	}
	return r.Header.Get("DNT") != "1"
}

// visitorTracking records page views in the background with hashed addresses.
func (s *Server) visitorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tracked(c.Request) {
			c.Next()
			return
		}
		v := store.Visit{
			HashedIP:  s.hashIP(c.ClientIP()),
			UserAgent: c.GetHeader("User-Agent"),
			Path:      c.Request.URL.Path,
			Timestamp: time.Now(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.deps.Store.RecordVisit(ctx, v); err != nil {
				slog.Warn("Failed to record visitor", "error", err)
			}
		}()
		c.Next()
	}
}

package web

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dipan-dev/portfolio/internal/store"
	"github.com/gin-gonic/gin"
)

const (
	adminCookie     = "admin_token"
	adminSessionAge = 24 * 60 * 60
	recentMessages  = 100
)

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || !equal(token, s.adminToken) {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupAdminRoutes mounts the admin area when credentials and a store are configured.
func (s *Server) setupAdminRoutes(r *gin.Engine) {
	user, pass, ok := s.cfg.GetAdminCredentials()
	if !ok || s.deps.Store == nil {
		slog.Info("Admin area disabled; set ADMIN_USERNAME and ADMIN_PASSWORD to enable it")
		return
	}

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		// Both comparisons always run.
		userOK := equal(c.PostForm("username"), user)
		passOK := equal(c.PostForm("password"), pass)
		if !userOK || !passOK {
			slog.Warn("Failed admin login attempt", "client", s.hashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"title": "Admin Login",
				"error": "Invalid credentials",
			})
			return
		}
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookie, s.adminToken, adminSessionAge, "/admin", "", c.Request.TLS != nil, true)
		slog.Info("Admin login successful", "client", s.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", c.Request.TLS != nil, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	g := r.Group("/admin")
	g.Use(s.adminAuth())

	g.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.deps.Store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			slog.Error("Failed to load admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"title": "Error", "error": "Failed to load statistics"})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"title": "Dashboard", "stats": stats})
	})

	g.GET("/messages", func(c *gin.Context) {
		msgs, err := s.deps.Store.ListMessages(c.Request.Context(), recentMessages)
		if err != nil {
			slog.Error("Failed to load messages", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"title": "Error", "error": "Failed to load messages"})
			return
		}
		c.HTML(http.StatusOK, "admin-messages.html", gin.H{"title": "Messages", "messages": msgs})
	})

	g.GET("/api/messages/:id", func(c *gin.Context) {
		msg, err := s.deps.Store.GetMessage(c.Request.Context(), c.Param("id"))
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, msg)
		}
	})

	g.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.deps.Store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	g.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.deps.Store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		slog.Info("Admin stats exported", "client", s.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})

	g.POST("/prune", func(c *gin.Context) {
		cutoff := time.Now().Add(-s.cfg.GetVisitorRetention())
		n, err := s.deps.Store.PruneVisits(c.Request.Context(), cutoff)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Visitor data pruned", "removed", n, "cutoff", cutoff)
		c.JSON(http.StatusOK, gin.H{"removed": n})
	})
}

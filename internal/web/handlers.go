package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/dipan-dev/portfolio/internal/contact"
	"github.com/dipan-dev/portfolio/internal/projects"
	"github.com/dipan-dev/portfolio/internal/theme"
	"github.com/gin-gonic/gin"
)

// mountProjects performs the single fetch of one Projects section mount.
func (s *Server) mountProjects(c *gin.Context) *projects.Section {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.GetProjectsTimeout())
	defer cancel()
	section := projects.NewSection(s.deps.Projects, s.cfg.GetGitHubUser())
	section.Load(ctx)
	return section
}

// projectsFragment carries every loaded project so the browser can switch filters without refetching.
type projectsFragment struct {
	projects.View
	All                  []projects.Repository
	EmptyFilteredMessage string
}

func (s *Server) handleProjectsFragment(c *gin.Context) {
	section := s.mountProjects(c)
	c.HTML(http.StatusOK, "projects.html", projectsFragment{
		View:                 section.View(c.Query("language")),
		All:                  section.Projects(),
		EmptyFilteredMessage: projects.EmptyFilteredMessage,
	})
}

func (s *Server) handleProjectsAPI(c *gin.Context) {
	v := s.mountProjects(c).View(c.Query("language"))
	status := http.StatusOK
	if v.State == projects.Failed.String() {
		status = http.StatusBadGateway
	}
	c.JSON(status, v)
}

// handleThemeToggle flips the theme the page currently shows. The "current" form value wins over the
// cookie so a preference the browser applied on its own is not toggled twice.
func (s *Server) handleThemeToggle(c *gin.Context) {
	current, ok := theme.Parse(c.PostForm("current"))
	if !ok {
		current = theme.Resolve(c.Request)
	}
	t := theme.Toggle(current)
	theme.Write(c.Writer, t)
	c.JSON(http.StatusOK, gin.H{"theme": t})
}

func (s *Server) handleContact(c *gin.Context) {
	if s.deps.Contact == nil {
		c.HTML(http.StatusServiceUnavailable, "contact-error.html", gin.H{
			"error": "The contact form is not available right now.",
		})
		return
	}
	var form contact.Form
	err := c.ShouldBind(&form)
	if err != nil {
		err = fmt.Errorf("%w: %w", contact.ErrInvalid, err)
	} else {
		_, err = s.deps.Contact.Submit(c.Request.Context(), s.hashIP(c.ClientIP()), form)
	}
	switch {
	case err == nil:
		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"success": "Thank you for your message! I'll get back to you soon.",
		})
	case errors.Is(err, contact.ErrInvalid):
		c.HTML(http.StatusUnprocessableEntity, "contact-error.html", gin.H{
			"error": "Please fill in your name, a valid email address and a message.",
		})
	case errors.Is(err, contact.ErrRateLimited):
		c.HTML(http.StatusTooManyRequests, "contact-error.html", gin.H{
			"error": "You have sent several messages already. Please try again later.",
		})
	default:
		slog.Error("Failed to accept contact message", "error", err)
		c.HTML(http.StatusInternalServerError, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
	}
}

func (s *Server) handleResume(c *gin.Context) {
	path := s.cfg.GetResumePath()
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		c.String(http.StatusNotFound, "Resume not available")
		return
	}
	c.Header("Content-Disposition", `inline; filename="resume.pdf"`)
	c.File(path)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(c.Request.Context()); err != nil {
			slog.Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Package web serves the portfolio page, its fragments and streams, and the admin area.
package web

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dipan-dev/portfolio/internal/config"
	"github.com/dipan-dev/portfolio/internal/contact"
	"github.com/dipan-dev/portfolio/internal/content"
	"github.com/dipan-dev/portfolio/internal/motion"
	"github.com/dipan-dev/portfolio/internal/projects"
	"github.com/dipan-dev/portfolio/internal/store"
	"github.com/gin-gonic/gin"
	"k8s.io/utils/clock"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// ContentSource returns the copy to render.
type ContentSource interface {
	Get() *content.Content
}

// Store is the persistence used by visitor tracking and the admin area.
type Store interface {
	RecordVisit(ctx context.Context, v store.Visit) error
	Stats(ctx context.Context, now time.Time) (*store.Stats, error)
	ListMessages(ctx context.Context, limit int) ([]store.Message, error)
	GetMessage(ctx context.Context, id string) (*store.Message, error)
	PruneVisits(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// Submitter accepts contact form submissions.
type Submitter interface {
	Submit(ctx context.Context, clientKey string, f contact.Form) (store.Message, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Content  ContentSource
	Projects projects.Fetcher
	Store    Store
	Contact  Submitter
}

type Option func(*Server)

// WithClock drives the animation streams from clk.
func WithClock(clk clock.WithTicker) Option {
	return func(s *Server) { s.clk = clk }
}

// WithTyping overrides the tagline typing delay and speed.
func WithTyping(delay, speed time.Duration) Option {
	return func(s *Server) { s.typingDelay, s.typingSpeed = delay, speed }
}

// Server holds the routes of the site.
type Server struct {
	cfg  *config.Config
	deps Deps
	clk  clock.WithTicker

	typingDelay time.Duration
	typingSpeed time.Duration

	salt       string
	adminToken string

	tmpl   *template.Template
	engine *gin.Engine
}

func NewServer(cfg *config.Config, deps Deps, opts ...Option) (*Server, error) {
	if deps.Content == nil || deps.Projects == nil {
		return nil, fmt.Errorf("content and projects are required")
	}
	s := &Server{
		cfg:         cfg,
		deps:        deps,
		clk:         clock.RealClock{},
		typingDelay: motion.DefaultTypingDelay,
		typingSpeed: motion.DefaultTypingSpeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	var err error
	if s.salt, err = generateToken(); err != nil {
		return nil, err
	}
	if s.adminToken, err = generateToken(); err != nil {
		return nil, err
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s.tmpl = tmpl
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))
	if deps.Store != nil {
		r.Use(s.visitorTracking())
	}

	r.GET("/", s.handleIndex)
	r.GET("/sections/projects", s.handleProjectsFragment)
	r.GET("/api/projects", s.handleProjectsAPI)
	r.GET("/stream/stats/:index", s.handleStatStream)
	r.GET("/stream/tagline", s.handleTaglineStream)
	r.POST("/theme/toggle", s.handleThemeToggle)
	r.POST("/contact", s.handleContact)
	r.GET("/resume.pdf", s.handleResume)
	r.GET("/healthz", s.handleHealth)
	s.setupAdminRoutes(r)

	s.engine = r
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Server) renderError(c *gin.Context, status int, msg string, err error) {
	slog.Error(msg, "path", c.Request.URL.Path, "error", err)
	c.String(status, msg)
}

package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/dipan-dev/portfolio/internal/content"
	"github.com/dipan-dev/portfolio/internal/motion"
	"github.com/dipan-dev/portfolio/internal/projects"
	"github.com/dipan-dev/portfolio/internal/theme"
	"github.com/gin-gonic/gin"
)

// Sections are mounted into the page in this order. Each has a template named "section-<id>".
var Sections = []string{
	"hero", "about", "workflow", "testimonials", "skills",
	"statistics", "experience", "projects", "contact", "footer",
}

// NavLink is an in-page jump target.
type NavLink struct {
	ID    string
	Label string
}

var NavLinks = []NavLink{
	{ID: "about", Label: "About"},
	{ID: "skills", Label: "Skills"},
	{ID: "experience", Label: "Experience"},
	{ID: "projects", Label: "Projects"},
	{ID: "contact", Label: "Contact"},
}

// Scroll behaviour shared with the browser script.
const (
	InitialActiveSection = "about"
	ScrolledOffset       = 50
	ActiveSectionRatio   = 0.6
	StatisticRevealRatio = 0.3
)

type pageData struct {
	Theme      theme.Theme
	ThemeSaved bool
	Content    *content.Content
	Nav        []NavLink
	Active     string
	ResumeMode string
	Scrolled   int
	NavRatio   float64
	StatRatio  float64
	RevealMin  float64
	RippleMS   int64
	Year       int
	Sections   []template.HTML
}

var templateFuncs = template.FuncMap{
	"reveal": reveal,
	"mul":    func(a, b int) int { return a * b },
	"add1":   func(i int) int { return i + 1 },
	"shown": func(selected string, r projects.Repository) bool {
		return selected == "" || selected == projects.AllLanguages || r.LanguageName() == selected
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// reveal renders the attributes of a block that animates in the first time it scrolls into view.
func reveal(variant string, delayMS int) (template.HTMLAttr, error) {
	v, err := motion.ParseVariant(variant)
	if err != nil {
		return "", err
	}
	o := motion.RevealOptions{Variant: v, Delay: time.Duration(delayMS) * time.Millisecond}.WithDefaults()
	return template.HTMLAttr(fmt.Sprintf(
		`data-reveal="%s" data-threshold="%s" class="reveal transition-all ease-out %s" style="%s"`,
		o.Variant, strconv.FormatFloat(o.Threshold, 'f', -1, 64), o.Variant.HiddenClasses(), o.Style(),
	)), nil
}

// assemble renders every section in order.
func (s *Server) assemble(data *pageData) ([]template.HTML, error) {
	out := make([]template.HTML, 0, len(Sections))
	for _, id := range Sections {
		var buf bytes.Buffer
		if err := s.tmpl.ExecuteTemplate(&buf, "section-"+id, data); err != nil {
			return nil, fmt.Errorf("failed to render section %s: %w", id, err)
		}
		out = append(out, template.HTML(buf.String()))
	}
	return out, nil
}

func (s *Server) handleIndex(c *gin.Context) {
	t := theme.Resolve(c.Request)
	_, saved := theme.Saved(c.Request)
	theme.RequestHint(c.Writer)
	data := &pageData{
		Theme:      t,
		ThemeSaved: saved,
		Content:    s.deps.Content.Get(),
		Nav:        NavLinks,
		Active:     InitialActiveSection,
		ResumeMode: s.cfg.GetResumeMode(),
		Scrolled:   ScrolledOffset,
		NavRatio:   ActiveSectionRatio,
		StatRatio:  StatisticRevealRatio,
		RevealMin:  motion.DefaultRevealThreshold,
		RippleMS:   motion.RippleLifetime.Milliseconds(),
		Year:       time.Now().Year(),
	}
	sections, err := s.assemble(data)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Failed to render page", err)
		return
	}
	data.Sections = sections
	c.HTML(http.StatusOK, "index.html", data)
}

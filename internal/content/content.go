// Package content loads the copy shown on the portfolio page.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// DefaultStatDuration is how long a statistic counts up unless configured otherwise.
const DefaultStatDuration = 2500 * time.Millisecond

type Owner struct {
	Name  string `yaml:"name"`
	Logo  string `yaml:"logo"`
	Email string `yaml:"email"`
}

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Hero struct {
	Greeting string `yaml:"greeting"`
	Tagline  string `yaml:"tagline"`
	Socials  []Link `yaml:"socials"`
}

type Highlight struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type About struct {
	Body       string        `yaml:"body"`
	HTML       template.HTML `yaml:"-"`
	Highlights []Highlight   `yaml:"highlights"`
}

type Testimonial struct {
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Quote string `yaml:"quote"`
}

type SkillCategory struct {
	Title  string   `yaml:"title"`
	Skills []string `yaml:"skills"`
}

// Statistic is an animated number on the statistics band.
type Statistic struct {
	Label      string `yaml:"label"`
	Value      int    `yaml:"value"`
	Suffix     string `yaml:"suffix"`
	DurationMS int    `yaml:"duration_ms"`
}

// Duration is the count-up duration of the statistic.
func (s Statistic) Duration() time.Duration {
	if s.DurationMS <= 0 {
		return DefaultStatDuration
	}
	return time.Duration(s.DurationMS) * time.Millisecond
}

// Entry is one experience or education item.
type Entry struct {
	Title        string        `yaml:"title"`
	Organization string        `yaml:"organization"`
	Period       string        `yaml:"period"`
	Description  string        `yaml:"description"`
	HTML         template.HTML `yaml:"-"`
	Achievements []string      `yaml:"achievements"`
}

type ContactInfo struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
	Href  string `yaml:"href"`
}

type Footer struct {
	Text string `yaml:"text"`
}

// Content is every piece of copy on the page.
type Content struct {
	Owner        Owner           `yaml:"owner"`
	Hero         Hero            `yaml:"hero"`
	About        About           `yaml:"about"`
	Workflow     []Highlight     `yaml:"workflow"`
	Testimonials []Testimonial   `yaml:"testimonials"`
	Skills       []SkillCategory `yaml:"skills"`
	Statistics   []Statistic     `yaml:"statistics"`
	Experience   []Entry         `yaml:"experience"`
	Education    []Entry         `yaml:"education"`
	Contact      []ContactInfo   `yaml:"contact"`
	Footer       Footer          `yaml:"footer"`
}

// Default returns the built-in content.
func Default() (*Content, error) {
	return Parse(defaultYAML)
}

// LoadFile reads content from a YAML file.
func LoadFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load content %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML, validates it and renders the Markdown fields.
func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	var err error
	if c.About.HTML, err = markdown(c.About.Body); err != nil {
		return nil, err
	}
	for _, entries := range [][]Entry{c.Experience, c.Education} {
		for i := range entries {
			if entries[i].HTML, err = markdown(entries[i].Description); err != nil {
				return nil, err
			}
		}
	}
	return &c, nil
}

func (c *Content) validate() error {
	var errs []error
	if strings.TrimSpace(c.Owner.Name) == "" {
		errs = append(errs, errors.New("owner.name is required"))
	}
	for i, s := range c.Statistics {
		if s.Value < 0 {
			errs = append(errs, fmt.Errorf("statistics[%d].value must not be negative", i))
		}
		if s.Label == "" {
			errs = append(errs, fmt.Errorf("statistics[%d].label is required", i))
		}
	}
	return errors.Join(errs...)
}

func markdown(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Package projects turns a user's public GitHub repositories into the ranked,
// de-forked list shown in the Projects section.
package projects

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v75/github"
)

// ErrMalformed reports a listing whose entries do not have the repository shape.
var ErrMalformed = errors.New("malformed repository listing")

// Repository is the read-only summary of one public repository.
type Repository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Language    *string   `json:"language"`
	Topics      []string  `json:"topics"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Homepage    *string   `json:"homepage"`
	URL         string    `json:"html_url"`
	UpdatedAt   time.Time `json:"updated_at"`
	Fork        bool      `json:"fork"`
}

// LanguageName returns the primary language or "" when GitHub reported none.
func (r Repository) LanguageName() string {
	if r.Language == nil {
		return ""
	}
	return *r.Language
}

// FromGitHub converts API repositories, rejecting the whole listing if any entry is malformed.
func FromGitHub(repos []*github.Repository) ([]Repository, error) {
	out := make([]Repository, 0, len(repos))
	for i, gr := range repos {
		if gr == nil {
			return nil, fmt.Errorf("%w: entry %d is null", ErrMalformed, i)
		}
		if gr.ID == nil || gr.GetName() == "" || gr.GetHTMLURL() == "" {
			return nil, fmt.Errorf("%w: entry %d lacks id, name or html_url", ErrMalformed, i)
		}
		if gr.GetStargazersCount() < 0 || gr.GetForksCount() < 0 {
			return nil, fmt.Errorf("%w: entry %d (%s) has negative counts", ErrMalformed, i, gr.GetName())
		}
		out = append(out, Repository{
			ID:          gr.GetID(),
			Name:        gr.GetName(),
			Description: nonEmpty(gr.Description),
			Language:    nonEmpty(gr.Language),
			Topics:      append([]string(nil), gr.Topics...),
			Stars:       gr.GetStargazersCount(),
			Forks:       gr.GetForksCount(),
			Homepage:    nonEmpty(gr.Homepage),
			URL:         gr.GetHTMLURL(),
			UpdatedAt:   gr.GetUpdatedAt().Time,
			Fork:        gr.GetFork(),
		})
	}
	return out, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

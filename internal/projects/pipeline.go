package projects

import "sort"

const (
	// MaxDisplayed caps the ranked list.
	MaxDisplayed = 6
	// AllLanguages is the synthetic filter entry selecting every project.
	AllLanguages = "All"
)

// Rank drops forks, orders by descending star count and keeps the first MaxDisplayed.
// Ties keep fetch order. The input is not modified.
func Rank(repos []Repository) []Repository {
	ranked := make([]Repository, 0, len(repos))
	for _, r := range repos {
		if !r.Fork {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Stars > ranked[j].Stars })
	if len(ranked) > MaxDisplayed {
		ranked = ranked[:MaxDisplayed]
	}
	return ranked
}

// Languages lists AllLanguages followed by each distinct non-null language in order of appearance.
func Languages(repos []Repository) []string {
	langs := []string{AllLanguages}
	seen := make(map[string]struct{})
	for _, r := range repos {
		l := r.LanguageName()
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		langs = append(langs, l)
	}
	return langs
}

// Filter projects repos onto one language. AllLanguages and "" select everything.
func Filter(repos []Repository, language string) []Repository {
	if language == "" || language == AllLanguages {
		return repos
	}
	var out []Repository
	for _, r := range repos {
		if r.Language != nil && *r.Language == language {
			out = append(out, r)
		}
	}
	return out
}

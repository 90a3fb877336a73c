package projects

import (
	"context"
	"log/slog"
	"sync"
)

// Messages shown in place of the project grid.
const (
	ErrorMessage         = "Failed to load projects. Please try again later."
	EmptyMessage         = "No projects found."
	EmptyFilteredMessage = "No projects match this technology."
)

// State is a step of a Section's lifecycle.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher lists the public repositories of a user.
type Fetcher interface {
	ListRepositories(ctx context.Context, user string) ([]Repository, error)
}

// Section is one mount of the Projects section: it fetches once and then only
// serves views over what it loaded.
type Section struct {
	fetcher Fetcher
	user    string

	mu       sync.Mutex
	once     sync.Once
	state    State
	projects []Repository
	err      error
}

func NewSection(f Fetcher, user string) *Section {
	return &Section{fetcher: f, user: user}
}

// Load moves the section from Idle through Loading to Ready or Failed.
// Only the first call fetches; later calls return the settled state.
func (s *Section) Load(ctx context.Context) State {
	s.once.Do(func() {
		s.setState(Loading)
		repos, err := s.fetcher.ListRepositories(ctx, s.user)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			slog.WarnContext(ctx, "Failed to load projects", "user", s.user, "error", err)
			s.state, s.err, s.projects = Failed, err, nil
			return
		}
		s.projects = Rank(repos)
		s.state = Ready
		slog.InfoContext(ctx, "Loaded projects", "user", s.user, "fetched", len(repos), "shown", len(s.projects))
	})
	return s.State()
}

func (s *Section) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Section) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the fetch failure, if any.
func (s *Section) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Projects returns the ranked list; empty unless Ready.
func (s *Section) Projects() []Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects
}

// Message is the text shown instead of cards, or "" when there are cards to show.
func (s *Section) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == Failed:
		return ErrorMessage
	case s.state == Ready && len(s.projects) == 0:
		return EmptyMessage
	}
	return ""
}

// View is the filtered projection rendered for one filter selection.
type View struct {
	State     string       `json:"state"`
	Selected  string       `json:"selected"`
	Languages []string     `json:"languages"`
	Projects  []Repository `json:"projects"`
	Message   string       `json:"message,omitempty"`
}

// View projects the loaded list onto language. Unknown languages yield an empty projection.
func (s *Section) View(language string) View {
	if language == "" {
		language = AllLanguages
	}
	projects := s.Projects()
	v := View{
		State:     s.State().String(),
		Selected:  language,
		Languages: Languages(projects),
		Projects:  Filter(projects, language),
		Message:   s.Message(),
	}
	if v.Projects == nil {
		v.Projects = []Repository{}
	}
	if v.Message == "" && len(v.Projects) == 0 {
		v.Message = EmptyFilteredMessage
	}
	return v
}

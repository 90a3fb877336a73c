package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dipan-dev/portfolio/internal/config"
	"github.com/dipan-dev/portfolio/internal/contact"
	"github.com/dipan-dev/portfolio/internal/content"
	"github.com/dipan-dev/portfolio/internal/projects"
	"github.com/dipan-dev/portfolio/internal/store"
	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

const testContent = `
owner: {name: Test Owner, logo: TO}
hero: {greeting: Hello, tagline: "Go & build"}
about: {body: "I like **Go**."}
workflow: [{title: Plan, description: Think first}]
testimonials: [{name: Ana, role: Lead, quote: Great work}]
skills: [{title: Backend, skills: [Go, SQL]}]
statistics:
  - {label: Projects, value: 42, suffix: "+", duration_ms: 40}
experience: [{title: Engineer, organization: Acme, period: "2020 - now", description: "Built *things*"}]
contact: [{label: Email, value: a@example.com, href: "mailto:a@example.com"}]
footer: {text: Built with Go.}
`

type staticContent struct{ c *content.Content }

func (s staticContent) Get() *content.Content { return s.c }

type fakeFetcher struct {
	repos []projects.Repository
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) ListRepositories(context.Context, string) ([]projects.Repository, error) {
	f.calls.Add(1)
	return f.repos, f.err
}

func ptr(s string) *string { return &s }

func testRepos() []projects.Repository {
	return []projects.Repository{
		{ID: 1, Name: "alpha", Language: ptr("Go"), Stars: 5, URL: "https://github.com/x/alpha"},
		{ID: 2, Name: "forked", Language: ptr("Go"), Stars: 100, Fork: true, URL: "https://github.com/x/forked"},
		{ID: 3, Name: "crab", Language: ptr("Rust"), Stars: 10, Description: ptr("A crab"), URL: "https://github.com/x/crab",
			UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{ID: 4, Name: "notes", Stars: 1, URL: "https://github.com/x/notes"},
	}
}

type testEnv struct {
	srv     *Server
	cfg     *config.Config
	fetcher *fakeFetcher
	store   *store.Store
}

func newTestEnv(t *testing.T, contactOpts []contact.Option, opts ...Option) *testEnv {
	t.Helper()
	c, err := content.Parse([]byte(testContent))
	if err != nil {
		t.Fatalf("content.Parse() error = %v", err)
	}
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.New()
	cfg.Set("RESUME_PATH", filepath.Join(t.TempDir(), "missing.pdf"))
	f := &fakeFetcher{repos: testRepos()}
	srv, err := NewServer(cfg, Deps{
		Content:  staticContent{c},
		Projects: f,
		Store:    st,
		Contact:  contact.NewService(st, contactOpts...),
	}, opts...)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return &testEnv{srv: srv, cfg: cfg, fetcher: f, store: st}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestIndexAssemblesSectionsInOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", w.Code)
	}
	body := w.Body.String()

	last := -1
	for _, id := range Sections {
		i := strings.Index(body, `id="`+id+`"`)
		if i < 0 {
			t.Fatalf("section %q missing", id)
		}
		if i < last {
			t.Errorf("section %q rendered out of order", id)
		}
		last = i
	}
	for _, want := range []string{
		`data-nav-link="about" class="nav-link active"`,
		`data-nav-link="skills" class="nav-link"`,
		`<strong>Go</strong>`,
		`data-reveal="fade-up"`,
		`hx-get="/sections/projects"`,
		`data-stat="/stream/stats/0"`,
		`data-resume-mode="overlay"`,
		`data-theme-saved="false"`,
		`data-reveal-threshold="0.1"`,
		`data-ripple-ms="600"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if got := env.fetcher.calls.Load(); got != 0 {
		t.Errorf("page render fetched projects %d times, want 0", got)
	}
}

func TestIndexTheme(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	body := env.do(req).Body.String()
	if !strings.Contains(body, `<html lang="en" class="dark">`) {
		t.Error("dark cookie did not apply the dark class")
	}
	if !strings.Contains(body, `data-theme-saved="true"`) {
		t.Error("saved preference not flagged for the browser")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", "dark")
	w := env.do(req)
	if !strings.Contains(w.Body.String(), `class="dark"`) {
		t.Error("system preference was ignored")
	}
	if w.Header().Get("Accept-CH") == "" {
		t.Error("Accept-CH header not set")
	}

	if body := env.get("/").Body.String(); !strings.Contains(body, `<html lang="en" class="">`) {
		t.Error("default theme is not light")
	}
}

func TestThemeToggle(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		cookie string
		want   string
	}{
		{"", "dark"},
		{"dark", "light"},
		{"light", "dark"},
		{"purple", "dark"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
		if tt.cookie != "" {
			req.AddCookie(&http.Cookie{Name: "theme", Value: tt.cookie})
		}
		w := env.do(req)
		var got struct{ Theme string }
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Theme != tt.want {
			t.Errorf("toggle from %q = %q, want %q", tt.cookie, got.Theme, tt.want)
		}
		if !strings.Contains(w.Header().Get("Set-Cookie"), "theme="+tt.want) {
			t.Errorf("Set-Cookie = %q", w.Header().Get("Set-Cookie"))
		}
	}
}

func TestThemeToggleFromShownTheme(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		name    string
		cookie  string
		current string
		want    string
	}{
		{"browser applied dark without a cookie", "", "dark", "light"},
		{"shown theme beats a stale cookie", "dark", "light", "dark"},
		{"invalid value falls back to the cookie", "dark", "sepia", "light"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postForm("/theme/toggle", url.Values{"current": {tt.current}})
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "theme", Value: tt.cookie})
			}
			w := env.do(req)
			var got struct{ Theme string }
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Theme != tt.want {
				t.Errorf("theme = %q, want %q", got.Theme, tt.want)
			}
		})
	}
}

func TestProjectsFragment(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.get("/sections/projects")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "forked") {
		t.Error("forked repository rendered")
	}
	crab, alpha, notes := strings.Index(body, ">crab<"), strings.Index(body, ">alpha<"), strings.Index(body, ">notes<")
	if crab < 0 || alpha < 0 || notes < 0 || !(crab < alpha && alpha < notes) {
		t.Errorf("projects not rendered by descending stars: crab=%d alpha=%d notes=%d", crab, alpha, notes)
	}
	for _, want := range []string{
		`data-filter="All"`, `data-filter="Rust"`, `data-filter="Go"`, "No description provided.", `data-state="ready"`,
		"<details", "Last updated", `<time datetime="2024-05-01">May 1, 2024</time>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("fragment missing %q", want)
		}
	}
	if got := env.fetcher.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}

	env.get("/sections/projects")
	if got := env.fetcher.calls.Load(); got != 2 {
		t.Errorf("second mount fetch calls = %d, want 2", got)
	}
}

func TestProjectsFragmentStates(t *testing.T) {
	tests := []struct {
		name  string
		repos []projects.Repository
		err   error
		query string
		want  string
	}{
		{"error", nil, errors.New("boom"), "", projects.ErrorMessage},
		{"empty", nil, nil, "", projects.EmptyMessage},
		{"only forks", []projects.Repository{{ID: 1, Name: "f", Fork: true, URL: "u"}}, nil, "", projects.EmptyMessage},
		{"filter matches nothing", testRepos(), nil, "?language=Haskell", `<p data-empty-filter class="projects-message text-center text-gray-500">` + projects.EmptyFilteredMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.fetcher.repos, env.fetcher.err = tt.repos, tt.err
			body := env.get("/sections/projects" + tt.query).Body.String()
			if !strings.Contains(body, tt.want) {
				t.Errorf("fragment missing %q:\n%s", tt.want, body)
			}
		})
	}
}

func TestProjectsAPI(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.get("/api/projects?language=Go")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var v projects.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.State != "ready" || v.Selected != "Go" {
		t.Errorf("state/selected = %s/%s", v.State, v.Selected)
	}
	if len(v.Projects) != 1 || v.Projects[0].Name != "alpha" {
		t.Errorf("projects = %+v", v.Projects)
	}
	if want := []string{"All", "Rust", "Go"}; strings.Join(v.Languages, ",") != strings.Join(want, ",") {
		t.Errorf("languages = %v, want %v", v.Languages, want)
	}

	env.fetcher.err = errors.New("boom")
	w = env.get("/api/projects")
	if w.Code != http.StatusBadGateway {
		t.Errorf("failed fetch status = %d, want 502", w.Code)
	}
}

func eventData(body, event string) []string {
	var out []string
	lines := strings.Split(body, "\n")
	for i := 0; i+1 < len(lines); i++ {
		if lines[i] == "event:"+event && strings.HasPrefix(lines[i+1], "data:") {
			out = append(out, strings.TrimPrefix(lines[i+1], "data:"))
		}
	}
	return out
}

func TestStatStream(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.get("/stream/stats/0")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	done := eventData(body, "done")
	if len(done) != 1 || done[0] != "42" {
		t.Fatalf("done events = %v, want [42]", done)
	}
	prev := -1
	for _, d := range eventData(body, "count") {
		n, err := strconv.Atoi(d)
		if err != nil {
			t.Fatalf("count %q: %v", d, err)
		}
		if n < prev || n > 42 {
			t.Errorf("count sequence not monotonic within bounds: %d after %d", n, prev)
		}
		prev = n
	}
	if !strings.HasSuffix(strings.TrimSpace(body), "data:42") {
		t.Errorf("stream does not end with the target:\n%s", body)
	}

	for _, path := range []string{"/stream/stats/1", "/stream/stats/-1", "/stream/stats/x"} {
		if w := env.get(path); w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
	}
}

func TestStatStreamStopsWithRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/stream/stats/0", nil).WithContext(ctx)
	w := env.do(req)
	if len(eventData(w.Body.String(), "done")) != 0 {
		t.Error("cancelled stream still completed")
	}
}

func TestTaglineStream(t *testing.T) {
	env := newTestEnv(t, nil, WithTyping(0, time.Millisecond))
	body := env.get("/stream/tagline").Body.String()
	typed := eventData(body, "type")
	if len(typed) == 0 || typed[len(typed)-1] != "Go & build" {
		t.Fatalf("type events = %q", typed)
	}
	for i := 1; i < len(typed); i++ {
		if !strings.HasPrefix(typed[i], typed[i-1]) {
			t.Errorf("typed text %q does not extend %q", typed[i], typed[i-1])
		}
	}
	if done := eventData(body, "done"); len(done) != 1 || done[0] != "Go & build" {
		t.Errorf("done events = %q", done)
	}
}

func TestContact(t *testing.T) {
	env := newTestEnv(t, []contact.Option{contact.WithLimit(time.Hour, 1)})
	valid := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "message": {"Hello"}}

	w := env.do(postForm("/contact", url.Values{"name": {"Ana"}, "email": {"nope"}, "message": {"hi"}}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid form status = %d, want 422", w.Code)
	}

	for _, form := range []url.Values{
		{"email": {"ana@example.com"}, "message": {"Hello"}},
		{"name": {"   "}, "email": {"ana@example.com"}, "message": {"Hello"}},
	} {
		if w := env.do(postForm("/contact", form)); w.Code != http.StatusUnprocessableEntity {
			t.Errorf("form %v status = %d, want 422", form, w.Code)
		}
	}

	w = env.do(postForm("/contact", valid))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Thank you for your message") {
		t.Errorf("valid form status = %d body = %s", w.Code, w.Body.String())
	}

	w = env.do(postForm("/contact", valid))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("throttled status = %d, want 429", w.Code)
	}

	msgs, err := env.store.ListMessages(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Name != "Ana" || msgs[0].HashedIP == "" {
		t.Errorf("stored messages = %+v", msgs)
	}
}

func TestResume(t *testing.T) {
	env := newTestEnv(t, nil)
	if w := env.get("/resume.pdf"); w.Code != http.StatusNotFound {
		t.Errorf("missing resume status = %d, want 404", w.Code)
	}

	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}
	env.cfg.Set("RESUME_PATH", path)
	w := env.get("/resume.pdf")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Errorf("resume status = %d body = %q", w.Code, w.Body.String())
	}
}

func TestHealthAndStatic(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.get("/healthz")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", w.Code, w.Body.String())
	}
	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		if w := env.get(path); w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, w.Code)
		}
	}
	js := env.get("/static/app.js").Body.String()
	for _, want := range []string{"prefers-color-scheme: dark", "dataset.rippleMs", "dataset.revealThreshold"} {
		if !strings.Contains(js, want) {
			t.Errorf("app.js missing %q", want)
		}
	}
}

type recordingStore struct {
	*store.Store
	visits chan store.Visit
}

func (r *recordingStore) RecordVisit(ctx context.Context, v store.Visit) error {
	r.visits <- v
	return r.Store.RecordVisit(ctx, v)
}

func TestVisitorTracking(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := &recordingStore{Store: env.store, visits: make(chan store.Visit, 8)}
	srv, err := NewServer(env.cfg, Deps{Content: env.srv.deps.Content, Projects: env.fetcher, Store: rec})
	if err != nil {
		t.Fatal(err)
	}
	env.srv = srv

	dnt := httptest.NewRequest(http.MethodGet, "/", nil)
	dnt.Header.Set("DNT", "1")
	env.do(dnt)
	env.get("/healthz")
	env.get("/static/app.css")
	env.get("/stream/stats/9")
	env.get("/sections/projects")
	env.get("/api/projects")
	env.get("/resume.pdf")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4321"
	req.Header.Set("User-Agent", "test-agent")
	env.do(req)

	select {
	case v := <-rec.visits:
		if v.Path != "/" || v.UserAgent != "test-agent" || len(v.HashedIP) != 16 || strings.Contains(v.HashedIP, "203.0.113.7") {
			t.Errorf("recorded visit = %+v", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("visit not recorded")
	}
	select {
	case v := <-rec.visits:
		t.Errorf("unexpected extra visit %+v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReveal(t *testing.T) {
	attr, err := reveal("slide-left", 150)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`data-reveal="slide-left"`, `data-threshold="0.1"`, "translate-x-10 opacity-0", "transition-delay:0.15s"} {
		if !strings.Contains(string(attr), want) {
			t.Errorf("reveal() = %s, missing %q", attr, want)
		}
	}
	if _, err := reveal("spin", 0); err == nil {
		t.Error("reveal(spin) error = nil")
	}
}

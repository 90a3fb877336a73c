package projects

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v75/github"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// PerPage is the page size of the single listing request.
const PerPage = 100

// GitHub's hourly request quotas.
const (
	AuthenticatedQuota   = 5000
	UnauthenticatedQuota = 60
)

// NewGitHubLimiter returns a limiter matching GitHub's hourly quota for the client kind.
// The burst is the whole quota, so requests only wait once the hour's budget is spent.
func NewGitHubLimiter(authenticated bool) *rate.Limiter {
	quota := UnauthenticatedQuota
	if authenticated {
		quota = AuthenticatedQuota
	}
	slog.Info("Created GitHub rate limiter", "authenticated", authenticated, "requests_per_hour", quota)
	return rate.NewLimiter(rate.Every(time.Hour/time.Duration(quota)), quota)
}

// GitHub fetches repositories through the GitHub REST API.
type GitHub struct {
	c *github.Client
	l *rate.Limiter
}

type gitHubOptions struct {
	token   string
	limiter *rate.Limiter
	baseURL string
	client  *http.Client
}

// GitHubOption configures a GitHub fetcher.
type GitHubOption func(*gitHubOptions)

// WithToken sets the personal access token for authenticated requests.
func WithToken(token string) GitHubOption {
	return func(o *gitHubOptions) { o.token = token }
}

// WithLimiter sets the rate limiter consulted before each request.
func WithLimiter(l *rate.Limiter) GitHubOption {
	return func(o *gitHubOptions) { o.limiter = l }
}

// WithBaseURL points the client at another API root, such as GitHub Enterprise or a test server.
func WithBaseURL(u string) GitHubOption {
	return func(o *gitHubOptions) { o.baseURL = u }
}

// WithHTTPClient sets the underlying HTTP client. Its transport is still wrapped for tracing.
func WithHTTPClient(c *http.Client) GitHubOption {
	return func(o *gitHubOptions) { o.client = c }
}

func NewGitHub(opts ...GitHubOption) (*GitHub, error) {
	var o gitHubOptions
	for _, opt := range opts {
		opt(&o)
	}

	base := o.client
	if base == nil {
		base = &http.Client{}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	hc := &http.Client{Transport: otelhttp.NewTransport(transport), Timeout: base.Timeout}

	if o.token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token}))
		slog.Info("Using authenticated GitHub client")
	} else {
		slog.Warn("Using unauthenticated GitHub client (rate limited)")
	}

	c := github.NewClient(hc)
	if o.baseURL != "" {
		u, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", o.baseURL, err)
		}
		if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
			u.Path += "/"
		}
		c.BaseURL = u
	}

	l := o.limiter
	if l == nil {
		l = NewGitHubLimiter(o.token != "")
	}
	return &GitHub{c: c, l: l}, nil
}

// ListRepositories issues one request for up to PerPage repositories, most recently updated first.
// Transport failures, non-2xx statuses and undecodable bodies are all returned as errors.
func (g *GitHub) ListRepositories(ctx context.Context, user string) ([]Repository, error) {
	if err := g.l.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}
	opt := &github.RepositoryListByUserOptions{
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: PerPage},
	}
	repos, _, err := g.c.Repositories.ListByUser(ctx, user, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories for %s: %w", user, err)
	}
	return FromGitHub(repos)
}

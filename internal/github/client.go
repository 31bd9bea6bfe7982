// Package github fetches and shapes repository metadata for the portfolio.
//
// Every call is cached in memory for a fixed window. The portfolio-facing
// calls (ListRepositories, AllRepos, PortfolioProjects, UserStats) never
// return errors: failures are logged and degrade to empty results, and the
// most recent failure is kept for LastError.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/joescharf/folio/internal/metrics"
	"github.com/joescharf/folio/internal/models"
)

const (
	// DefaultOwner is the account whose repositories make up the portfolio.
	DefaultOwner = "SirNotEthan"

	// DefaultCacheTTL is the freshness window of cached responses.
	DefaultCacheTTL = 5 * time.Minute

	cacheSize      = 512
	perPage        = 100
	enrichParallel = 8
)

// Client wraps go-github with caching and portfolio formatting.
type Client struct {
	api    *gh.Client
	owner  string
	token  string
	cache  *expirable.LRU[string, any]
	now    func() time.Time
	logger *slog.Logger

	httpClient *http.Client
	baseURL    string
	ttl        time.Duration

	mu      sync.Mutex
	lastErr error
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBaseURL points the client at a different API root (tests, GHE).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithCacheTTL overrides the cache freshness window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithHTTPClient sets the underlying HTTP client. A token still wraps it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides time.Now for status and activity derivation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the logger used for degraded calls.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for owner's repositories.
func NewClient(owner string, opts ...Option) (*Client, error) {
	if owner == "" {
		owner = DefaultOwner
	}
	c := &Client{
		owner:  owner,
		now:    time.Now,
		logger: slog.Default(),
		ttl:    DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	tc := c.httpClient
	if c.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		ctx := context.Background()
		if tc != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, tc)
		}
		tc = oauth2.NewClient(ctx, ts)
	}

	c.api = gh.NewClient(tc)
	if c.baseURL != "" {
		base := c.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse GitHub base URL: %w", err)
		}
		c.api.BaseURL = u
	}
	c.cache = expirable.NewLRU[string, any](cacheSize, nil, c.ttl)
	return c, nil
}

// Owner returns the account the client reads from.
func (c *Client) Owner() string { return c.owner }

// ClearCache drops every cached response.
func (c *Client) ClearCache() { c.cache.Purge() }

// LastError returns the most recent failure of a degrading call, or nil if
// the latest listing succeeded.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// fetchCached returns the value cached under key, or calls fetch and caches
// its result. Errors are translated and never cached.
func fetchCached[T any](ctx context.Context, c *Client, key, endpoint string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return typed, nil
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	v, err := fetch(ctx)
	if err != nil {
		metrics.GitHubRequests.WithLabelValues(endpoint, "error").Inc()
		var zero T
		return zero, translateError(err, c.now())
	}
	metrics.GitHubRequests.WithLabelValues(endpoint, "ok").Inc()
	c.cache.Add(key, v)
	return v, nil
}

// UserRepos lists up to 100 of the owner's repositories, most recently
// updated first.
func (c *Client) UserRepos(ctx context.Context) ([]*gh.Repository, error) {
	return fetchCached(ctx, c, "user_repos", "repos", func(ctx context.Context) ([]*gh.Repository, error) {
		repos, _, err := c.api.Repositories.ListByUser(ctx, c.owner, &gh.RepositoryListByUserOptions{
			Sort:        "updated",
			ListOptions: gh.ListOptions{PerPage: perPage},
		})
		return repos, err
	})
}

// RepoDetails fetches one repository.
func (c *Client) RepoDetails(ctx context.Context, name string) (*gh.Repository, error) {
	return fetchCached(ctx, c, "repo_"+name, "repo", func(ctx context.Context) (*gh.Repository, error) {
		repo, _, err := c.api.Repositories.Get(ctx, c.owner, name)
		return repo, err
	})
}

// RepoLanguages fetches the byte count per language of one repository.
func (c *Client) RepoLanguages(ctx context.Context, name string) (map[string]int, error) {
	return fetchCached(ctx, c, "languages_"+name, "languages", func(ctx context.Context) (map[string]int, error) {
		langs, _, err := c.api.Repositories.ListLanguages(ctx, c.owner, name)
		return langs, err
	})
}

// RepoReadme fetches and decodes the README of one repository.
func (c *Client) RepoReadme(ctx context.Context, name string) (string, error) {
	return fetchCached(ctx, c, "readme_"+name, "readme", func(ctx context.Context) (string, error) {
		content, _, err := c.api.Repositories.GetReadme(ctx, c.owner, name, nil)
		if err != nil {
			return "", err
		}
		return content.GetContent()
	})
}

// Participation fetches weekly commit counts for one repository.
func (c *Client) Participation(ctx context.Context, name string) (*models.Participation, error) {
	return fetchCached(ctx, c, "participation_"+name, "participation", func(ctx context.Context) (*models.Participation, error) {
		p, _, err := c.api.Repositories.ListParticipation(ctx, c.owner, name)
		if err != nil {
			return nil, err
		}
		return &models.Participation{All: p.All, Owner: p.Owner}, nil
	})
}

// RepoDetail fetches one public repository together with its participation
// stats. A participation failure only leaves Participation nil.
func (c *Client) RepoDetail(ctx context.Context, name string) (*models.RepoDetail, error) {
	var (
		repo *gh.Repository
		part *models.Participation
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		repo, err = c.RepoDetails(ctx, name)
		return err
	})
	g.Go(func() error {
		var err error
		part, err = c.Participation(ctx, name)
		if err != nil {
			c.logger.Warn("participation unavailable", "repo", name, "error", err)
			part = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if repo.GetPrivate() {
		return nil, &APIError{Status: http.StatusNotFound}
	}

	return &models.RepoDetail{
		RepoListing:   ToListing(repo),
		Homepage:      repo.GetHomepage(),
		CreatedAt:     repo.GetCreatedAt().Time,
		Participation: part,
	}, nil
}

// Profile fetches the account profile: the authenticated user when a token
// is configured, the owner otherwise.
func (c *Client) Profile(ctx context.Context) (*gh.User, error) {
	login := c.owner
	if c.token != "" {
		login = ""
	}
	return fetchCached(ctx, c, "profile", "user", func(ctx context.Context) (*gh.User, error) {
		u, _, err := c.api.Users.Get(ctx, login)
		return u, err
	})
}

// ListRepositories returns every public repository in portfolio shape,
// without enrichment. It returns an empty slice on failure.
func (c *Client) ListRepositories(ctx context.Context) []models.Repository {
	repos, err := c.UserRepos(ctx)
	if err != nil {
		c.degrade("list repositories", err)
		return []models.Repository{}
	}
	c.setLastError(nil)

	now := c.now()
	out := []models.Repository{}
	for _, r := range repos {
		if r.GetPrivate() {
			continue
		}
		out = append(out, FormatRepo(r, nil, "", now))
	}
	return out
}

// AllRepos returns public repositories in listing shape, newest first.
// It returns an empty slice on failure.
func (c *Client) AllRepos(ctx context.Context) []models.RepoListing {
	repos, err := c.UserRepos(ctx)
	if err != nil {
		c.degrade("fetch all repos", err)
		return []models.RepoListing{}
	}
	c.setLastError(nil)

	out := []models.RepoListing{}
	for _, r := range repos {
		if r.GetPrivate() {
			continue
		}
		out = append(out, ToListing(r))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// PortfolioProjects returns the selected repositories (or, with no
// selection, every public non-fork one) enriched with languages and README,
// newest first. Enrichment failures only affect their own repository.
func (c *Client) PortfolioProjects(ctx context.Context, selected []string) []models.Repository {
	repos, err := c.UserRepos(ctx)
	if err != nil {
		c.degrade("fetch portfolio projects", err)
		return []models.Repository{}
	}
	c.setLastError(nil)

	allow := make(map[string]bool, len(selected))
	for _, name := range selected {
		allow[name] = true
	}

	var filtered []*gh.Repository
	for _, r := range repos {
		if len(selected) > 0 {
			if allow[r.GetName()] {
				filtered = append(filtered, r)
			}
			continue
		}
		if !r.GetPrivate() && !r.GetFork() {
			filtered = append(filtered, r)
		}
	}

	now := c.now()
	projects := make([]models.Repository, len(filtered))

	var g errgroup.Group
	g.SetLimit(enrichParallel)
	for i, r := range filtered {
		g.Go(func() error {
			projects[i] = c.enrich(ctx, r, now)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects
}

// enrich fetches languages and README concurrently. A languages failure
// falls back to the bare repository; a README failure just omits it.
func (c *Client) enrich(ctx context.Context, r *gh.Repository, now time.Time) models.Repository {
	var (
		langs   map[string]int
		readme  string
		langErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		langs, langErr = c.RepoLanguages(ctx, r.GetName())
		return nil
	})
	g.Go(func() error {
		var err error
		readme, err = c.RepoReadme(ctx, r.GetName())
		if err != nil {
			readme = ""
		}
		return nil
	})
	_ = g.Wait()

	if langErr != nil {
		c.logger.Warn("error processing repo", "repo", r.GetName(), "error", langErr)
		return FormatRepo(r, nil, "", now)
	}
	return FormatRepo(r, langs, readme, now)
}

// UserStats aggregates the profile and repository totals. It returns nil on
// failure.
func (c *Client) UserStats(ctx context.Context) *models.ProfileStats {
	user, err := c.Profile(ctx)
	if err != nil {
		c.degrade("fetch user stats", err)
		return nil
	}
	repos, err := c.UserRepos(ctx)
	if err != nil {
		c.degrade("fetch user stats", err)
		return nil
	}
	c.setLastError(nil)

	now := c.now()
	stats := &models.ProfileStats{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		Bio:         user.GetBio(),
		AvatarURL:   user.GetAvatarURL(),
		HTMLURL:     user.GetHTMLURL(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
		PublicRepos: user.GetPublicRepos(),
		CreatedAt:   user.GetCreatedAt().Time,
		Languages:   []string{},
	}

	seen := make(map[string]bool)
	for _, r := range repos {
		stats.TotalStars += r.GetStargazersCount()
		stats.TotalForks += r.GetForksCount()
		stats.TotalSize += r.GetSize()
		if lang := r.GetLanguage(); lang != "" && !seen[lang] {
			seen[lang] = true
			stats.Languages = append(stats.Languages, lang)
		}

		age := now.Sub(r.GetUpdatedAt().Time)
		if age < 30*24*time.Hour {
			stats.Activity.Last30Days++
		}
		if age < 90*24*time.Hour {
			stats.Activity.Last90Days++
		}
		stats.Activity.Total++
	}
	return stats
}

func (c *Client) degrade(op string, err error) {
	c.logger.Error("github request failed", "op", op, "owner", c.owner, "error", err)
	c.setLastError(err)
}

// Package refresh runs the portfolio pipeline: read the configuration,
// fetch remote projects, merge custom ones, filter for the current view and
// summarize.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joescharf/folio/internal/aggregate"
	"github.com/joescharf/folio/internal/metrics"
	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/portfolio"
)

// RepoSource is the remote side of the pipeline. *github.Client satisfies it.
type RepoSource interface {
	PortfolioProjects(ctx context.Context, selected []string) []models.Repository
	AllRepos(ctx context.Context) []models.RepoListing
	UserStats(ctx context.Context) *models.ProfileStats
	RepoDetail(ctx context.Context, name string) (*models.RepoDetail, error)
	LastError() error
	ClearCache()
}

// Result is one run of the project pipeline.
type Result struct {
	Projects []models.Repository `json:"projects"`
	Stats    aggregate.Stats     `json:"stats"`
	LastSync int64               `json:"lastSync"`
	View     portfolio.View      `json:"view"`
	Error    string              `json:"error,omitempty"`
}

// ReposResult lists every repository plus the ones not yet configured.
type ReposResult struct {
	Repos    []models.RepoListing `json:"repos"`
	NewRepos []models.RepoListing `json:"newRepos"`
}

// SyncResult holds the outcome of a full sync.
type SyncResult struct {
	Projects *Result              `json:"projects"`
	Repos    *ReposResult         `json:"repos"`
	Profile  *models.ProfileStats `json:"profile"`
}

// Syncer wires the configuration store to a RepoSource.
type Syncer struct {
	cfg    *portfolio.ConfigStore
	source RepoSource
	logger *slog.Logger
}

// NewSyncer returns a Syncer. A nil logger uses slog.Default.
func NewSyncer(cfg *portfolio.ConfigStore, source RepoSource, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{cfg: cfg, source: source, logger: logger}
}

// Projects runs the pipeline for the view described by q. Remote projects
// are only fetched when something is selected or force is set. Only forced
// runs record a sync; the others report the stored timestamp.
func (s *Syncer) Projects(ctx context.Context, q url.Values, force bool) (*Result, error) {
	cfg, err := s.cfg.Config(ctx)
	if err != nil {
		return nil, err
	}
	view, err := s.cfg.View(ctx, q)
	if err != nil {
		return nil, err
	}

	res := &Result{View: view}
	remote := []models.Repository{}
	if len(cfg.SelectedRepos) > 0 || force {
		remote = s.source.PortfolioProjects(ctx, cfg.SelectedRepos)
		if err := s.source.LastError(); err != nil {
			res.Error = err.Error()
		}
	}

	merged := aggregate.Merge(remote, cfg.CustomProjects, view.Featured)
	res.Projects = aggregate.Filter(merged, view.Categories, view.Hidden)
	res.Stats = aggregate.Summarize(res.Projects)

	if !force {
		if cfg.LastSync != nil {
			res.LastSync = *cfg.LastSync
		}
		return res, nil
	}
	res.LastSync, err = s.cfg.MarkSyncComplete(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AllRepos lists every repository and detects the unconfigured ones.
func (s *Syncer) AllRepos(ctx context.Context) (*ReposResult, error) {
	repos := s.source.AllRepos(ctx)
	fresh, err := s.cfg.DetectNewRepos(ctx, repos)
	if err != nil {
		return nil, err
	}
	return &ReposResult{Repos: repos, NewRepos: fresh}, nil
}

// RepoDetail looks up one repository with its commit activity.
func (s *Syncer) RepoDetail(ctx context.Context, name string) (*models.RepoDetail, error) {
	return s.source.RepoDetail(ctx, name)
}

// AutoSelect adds the heuristically chosen repositories to the selection,
// reruns the pipeline and returns the chosen names.
func (s *Syncer) AutoSelect(ctx context.Context, criteria portfolio.SelectionCriteria) ([]string, error) {
	repos, err := s.AllRepos(ctx)
	if err != nil {
		return nil, err
	}
	names := s.cfg.AutoSelectRepositories(repos.Repos, criteria)
	for _, name := range names {
		if err := s.cfg.AddSelectedRepo(ctx, name); err != nil {
			return nil, fmt.Errorf("select %s: %w", name, err)
		}
	}
	if _, err := s.Projects(ctx, nil, false); err != nil {
		return nil, err
	}
	return names, nil
}

// Sync drops cached GitHub responses and forces a full refresh of projects,
// repositories and profile stats.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	s.source.ClearCache()
	return s.run(ctx, "manual", true)
}

// Initial is the startup refresh: a forced sync when one is due, otherwise
// the regular pipeline.
func (s *Syncer) Initial(ctx context.Context) (*SyncResult, error) {
	due, err := s.cfg.ShouldAutoSync(ctx)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "initial", due)
}

func (s *Syncer) run(ctx context.Context, trigger string, force bool) (*SyncResult, error) {
	metrics.Syncs.WithLabelValues(trigger).Inc()

	projects, err := s.Projects(ctx, nil, force)
	if err != nil {
		return nil, err
	}
	repos, err := s.AllRepos(ctx)
	if err != nil {
		return nil, err
	}
	profile := s.source.UserStats(ctx)

	s.logger.Info("portfolio synced",
		"trigger", trigger,
		"projects", len(projects.Projects),
		"repos", len(repos.Repos),
		"new", len(repos.NewRepos),
	)
	return &SyncResult{Projects: projects, Repos: repos, Profile: profile}, nil
}

// maxPoll bounds how long a configuration change waits before Run sees it.
const maxPoll = time.Minute

// Run checks the configuration on a ticker and syncs whenever auto-sync is
// enabled and due. Changes to autoSync or syncInterval apply from the next
// tick. It returns when ctx is done.
func (s *Syncer) Run(ctx context.Context) error {
	cfg, err := s.cfg.Config(ctx)
	if err != nil {
		return err
	}
	if !cfg.AutoSync {
		s.logger.Info("auto-sync disabled")
	}
	return s.loop(ctx, maxPoll)
}

func (s *Syncer) loop(ctx context.Context, poll time.Duration) error {
	cfg, err := s.cfg.Config(ctx)
	if err != nil {
		return err
	}
	period := tickPeriod(cfg.SyncInterval, poll)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cfg, err := s.cfg.Config(ctx)
			if err != nil {
				s.logger.Error("auto-sync check failed", "error", err)
				continue
			}
			if p := tickPeriod(cfg.SyncInterval, poll); p != period {
				period = p
				ticker.Reset(period)
				s.logger.Info("auto-sync interval changed", "interval", period)
			}
			due, err := s.cfg.ShouldAutoSync(ctx)
			if err != nil {
				s.logger.Error("auto-sync check failed", "error", err)
				continue
			}
			if !due {
				continue
			}
			if _, err := s.run(ctx, "auto", true); err != nil {
				s.logger.Error("auto-sync failed", "error", err)
			}
		}
	}
}

// tickPeriod is the sync interval, capped at poll.
func tickPeriod(intervalMs int64, poll time.Duration) time.Duration {
	d := time.Duration(intervalMs) * time.Millisecond
	if d <= 0 {
		d = time.Duration(models.DefaultSyncInterval) * time.Millisecond
	}
	return min(d, poll)
}

// Package portfolio persists the single portfolio configuration record and
// derives per-request views of it, including share links.
package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/store"
)

// DefaultKey is the storage key of the configuration record.
const DefaultKey = "portfolio_config"

// ConfigStore reads and writes the portfolio configuration record. The
// record is created with defaults on first access.
type ConfigStore struct {
	st     store.Store
	key    string
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures a ConfigStore.
type Option func(*ConfigStore)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ConfigStore) { s.now = now }
}

// WithLogger sets the logger used when a stored record cannot be decoded.
func WithLogger(l *slog.Logger) Option {
	return func(s *ConfigStore) { s.logger = l }
}

// WithKey stores the record under a different key.
func WithKey(key string) Option {
	return func(s *ConfigStore) { s.key = key }
}

// NewConfigStore returns a ConfigStore over st.
func NewConfigStore(st store.Store, opts ...Option) *ConfigStore {
	s := &ConfigStore{
		st:     st,
		key:    DefaultKey,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the current record.
func (s *ConfigStore) Config(ctx context.Context) (*models.PortfolioConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Update applies fn to the record and writes the whole record back.
func (s *ConfigStore) Update(ctx context.Context, fn func(*models.PortfolioConfig)) (*models.PortfolioConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	fn(cfg)
	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// load must be called with mu held.
func (s *ConfigStore) load(ctx context.Context) (*models.PortfolioConfig, error) {
	raw, ok, err := s.st.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read portfolio config: %w", err)
	}
	if ok {
		var cfg models.PortfolioConfig
		err := json.Unmarshal([]byte(raw), &cfg)
		if err == nil {
			normalize(&cfg)
			return &cfg, nil
		}
		s.logger.Warn("error parsing portfolio config, recreating defaults", "key", s.key, "error", err)
	}

	cfg := models.DefaultPortfolioConfig()
	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *ConfigStore) save(ctx context.Context, cfg *models.PortfolioConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode portfolio config: %w", err)
	}
	if err := s.st.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("write portfolio config: %w", err)
	}
	return nil
}

// normalize replaces nil collections left by sparse imported records.
func normalize(cfg *models.PortfolioConfig) {
	if cfg.SelectedRepos == nil {
		cfg.SelectedRepos = []string{}
	}
	if cfg.FeaturedRepos == nil {
		cfg.FeaturedRepos = []string{}
	}
	if cfg.HiddenRepos == nil {
		cfg.HiddenRepos = []string{}
	}
	if cfg.CustomProjects == nil {
		cfg.CustomProjects = []models.Repository{}
	}
	if cfg.Categories == nil {
		cfg.Categories = map[string]bool{}
	}
}

// AddSelectedRepo adds name to the selection unless it is already there.
func (s *ConfigStore) AddSelectedRepo(ctx context.Context, name string) error {
	_, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		if !contains(cfg.SelectedRepos, name) {
			cfg.SelectedRepos = append(cfg.SelectedRepos, name)
		}
	})
	return err
}

// RemoveSelectedRepo drops name from the selection and from the featured
// list, so featured stays a subset of selected.
func (s *ConfigStore) RemoveSelectedRepo(ctx context.Context, name string) error {
	_, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		cfg.SelectedRepos = without(cfg.SelectedRepos, name)
		cfg.FeaturedRepos = without(cfg.FeaturedRepos, name)
	})
	return err
}

// ToggleFeaturedRepo flips membership of name in the featured list and
// reports whether it is now featured.
func (s *ConfigStore) ToggleFeaturedRepo(ctx context.Context, name string) (bool, error) {
	var on bool
	_, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		cfg.FeaturedRepos, on = toggle(cfg.FeaturedRepos, name)
	})
	return on, err
}

// ToggleHiddenRepo flips membership of name in the hidden list and reports
// whether it is now hidden.
func (s *ConfigStore) ToggleHiddenRepo(ctx context.Context, name string) (bool, error) {
	var on bool
	_, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		cfg.HiddenRepos, on = toggle(cfg.HiddenRepos, name)
	})
	return on, err
}

// AddCustomProject stores p as a custom project and returns the stored
// copy, with its generated id, IsCustom set and CreatedAt stamped.
func (s *ConfigStore) AddCustomProject(ctx context.Context, p models.Repository) (models.Repository, error) {
	now := s.now()
	p.ID = "custom_" + strconv.FormatInt(now.UnixMilli(), 10)
	p.IsCustom = true
	p.CreatedAt = now.UTC()

	_, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		cfg.CustomProjects = append(cfg.CustomProjects, p)
	})
	if err != nil {
		return models.Repository{}, err
	}
	return p, nil
}

// RemoveCustomProject deletes every custom project with the given id.
func (s *ConfigStore) RemoveCustomProject(ctx context.Context, id string) error {
	_, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		kept := cfg.CustomProjects[:0]
		for _, p := range cfg.CustomProjects {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		cfg.CustomProjects = kept
	})
	return err
}

// ToggleCategory flips a category and reports the new state. An unknown
// category becomes enabled.
func (s *ConfigStore) ToggleCategory(ctx context.Context, category string) (bool, error) {
	var on bool
	_, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		on = !cfg.Categories[category]
		cfg.Categories[category] = on
	})
	return on, err
}

// UpdateDisplaySettings merges the non-nil fields of patch.
func (s *ConfigStore) UpdateDisplaySettings(ctx context.Context, patch models.DisplaySettingsPatch) (models.DisplaySettings, error) {
	cfg, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		ds := &cfg.DisplaySettings
		if patch.ShowStats != nil {
			ds.ShowStats = *patch.ShowStats
		}
		if patch.ShowLanguages != nil {
			ds.ShowLanguages = *patch.ShowLanguages
		}
		if patch.ShowTopics != nil {
			ds.ShowTopics = *patch.ShowTopics
		}
		switch {
		case patch.ClearMaxProjectsPerCategory:
			ds.MaxProjectsPerCategory = nil
		case patch.MaxProjectsPerCategory != nil:
			v := *patch.MaxProjectsPerCategory
			ds.MaxProjectsPerCategory = &v
		}
	})
	if err != nil {
		return models.DisplaySettings{}, err
	}
	return cfg.DisplaySettings, nil
}

// SelectedRepos returns the selected repository names.
func (s *ConfigStore) SelectedRepos(ctx context.Context) ([]string, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.SelectedRepos, nil
}

// CustomProjects returns the stored custom projects.
func (s *ConfigStore) CustomProjects(ctx context.Context) ([]models.Repository, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.CustomProjects, nil
}

// DisplaySettings returns the display settings.
func (s *ConfigStore) DisplaySettings(ctx context.Context) (models.DisplaySettings, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return models.DisplaySettings{}, err
	}
	return cfg.DisplaySettings, nil
}

// ShouldAutoSync reports whether auto-sync is on and either no sync has
// happened yet or the sync interval has fully elapsed.
func (s *ConfigStore) ShouldAutoSync(ctx context.Context) (bool, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return false, err
	}
	if !cfg.AutoSync {
		return false, nil
	}
	if cfg.LastSync == nil || *cfg.LastSync == 0 {
		return true, nil
	}
	return s.now().UnixMilli()-*cfg.LastSync >= cfg.SyncInterval, nil
}

// MarkSyncComplete stamps the current time as the last sync.
func (s *ConfigStore) MarkSyncComplete(ctx context.Context) (int64, error) {
	ts := s.now().UnixMilli()
	_, err := s.Update(ctx, func(cfg *models.PortfolioConfig) {
		cfg.LastSync = &ts
	})
	return ts, err
}

// Export returns the stored record as indented JSON.
func (s *ConfigStore) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(ctx); err != nil {
		return "", err
	}
	raw, _, err := s.st.Get(ctx, s.key)
	if err != nil {
		return "", fmt.Errorf("read portfolio config: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return "", fmt.Errorf("format portfolio config: %w", err)
	}
	return buf.String(), nil
}

// Import replaces the stored record with text. Any valid JSON is accepted
// as is; invalid JSON is rejected and leaves the record untouched.
func (s *ConfigStore) Import(ctx context.Context, text string) error {
	if !json.Valid([]byte(text)) {
		return fmt.Errorf("import portfolio config: invalid JSON")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.st.Set(ctx, s.key, text); err != nil {
		return fmt.Errorf("write portfolio config: %w", err)
	}
	return nil
}

// Reset discards the record and recreates the defaults.
func (s *ConfigStore) Reset(ctx context.Context) (*models.PortfolioConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.st.Remove(ctx, s.key); err != nil {
		return nil, fmt.Errorf("remove portfolio config: %w", err)
	}
	return s.load(ctx)
}

// EnabledCategories lists the enabled categories of cfg: the default
// categories in display order, then any others sorted by name.
func EnabledCategories(cfg *models.PortfolioConfig) []string {
	out := []string{}
	known := make(map[string]bool)
	for _, c := range models.DefaultCategories() {
		known[string(c)] = true
		if cfg.Categories[string(c)] {
			out = append(out, string(c))
		}
	}
	var extra []string
	for name, on := range cfg.Categories {
		if on && !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func without(list []string, s string) []string {
	out := []string{}
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func toggle(list []string, s string) ([]string, bool) {
	if contains(list, s) {
		return without(list, s), false
	}
	return append(list, s), true
}

// union appends the names of add missing from base, de-duplicating both.
func union(base, add []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range [][]string{base, add} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

package portfolio

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/joescharf/folio/internal/models"
)

// SelectionCriteria tunes AutoSelectRepositories.
type SelectionCriteria struct {
	MinStars           int      `json:"minStars"`
	IncludeRecent      bool     `json:"includeRecent"`
	PreferredLanguages []string `json:"preferredLanguages"`
	MaxRepos           int      `json:"maxRepos"`
}

// DefaultSelectionCriteria returns the criteria used when none are given.
func DefaultSelectionCriteria() SelectionCriteria {
	return SelectionCriteria{
		MinStars:           0,
		IncludeRecent:      true,
		PreferredLanguages: []string{"JavaScript", "TypeScript", "Python"},
		MaxRepos:           20,
	}
}

const recentWindow = 30 * 24 * time.Hour

// AutoSelectRepositories picks repository names worth showing.
func (s *ConfigStore) AutoSelectRepositories(repos []models.RepoListing, c SelectionCriteria) []string {
	return AutoSelect(repos, c, s.now())
}

// AutoSelect drops archived, private and under-starred repositories. With
// IncludeRecent, repositories updated in the last 30 days come first,
// followed by older ones that have a star or a preferred language; the rest
// are dropped. Preferred-language repositories are then moved to the front.
// At most MaxRepos names are returned.
func AutoSelect(repos []models.RepoListing, c SelectionCriteria, now time.Time) []string {
	var filtered []models.RepoListing
	for _, r := range repos {
		if r.Stars >= c.MinStars && !r.Archived && !r.IsPrivate {
			filtered = append(filtered, r)
		}
	}

	preferred := func(r models.RepoListing) bool {
		return slices.Contains(c.PreferredLanguages, r.Language)
	}

	if c.IncludeRecent {
		cutoff := now.Add(-recentWindow)
		var recent, old []models.RepoListing
		for _, r := range filtered {
			if r.UpdatedAt.After(cutoff) {
				recent = append(recent, r)
			} else if r.Stars > 0 || preferred(r) {
				old = append(old, r)
			}
		}
		filtered = append(recent, old...)
	}

	if len(c.PreferredLanguages) > 0 {
		var first, rest []models.RepoListing
		for _, r := range filtered {
			if preferred(r) {
				first = append(first, r)
			} else {
				rest = append(rest, r)
			}
		}
		filtered = append(first, rest...)
	}

	if c.MaxRepos >= 0 && len(filtered) > c.MaxRepos {
		filtered = filtered[:c.MaxRepos]
	}
	names := make([]string, len(filtered))
	for i, r := range filtered {
		names[i] = r.Name
	}
	return names
}

// DetectNewRepos returns the repositories that are neither selected nor
// hidden, skipping archived and private ones, newest first.
func (s *ConfigStore) DetectNewRepos(ctx context.Context, all []models.RepoListing) ([]models.RepoListing, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(cfg.SelectedRepos)+len(cfg.HiddenRepos))
	for _, n := range cfg.SelectedRepos {
		known[n] = true
	}
	for _, n := range cfg.HiddenRepos {
		known[n] = true
	}

	out := []models.RepoListing{}
	for _, r := range all {
		if known[r.Name] || r.Archived || r.IsPrivate {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

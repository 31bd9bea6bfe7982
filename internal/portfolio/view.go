package portfolio

import (
	"context"
	"net/url"
	"slices"
	"strings"
)

// View is the effective featured, hidden and category settings for one
// request. It is never persisted.
type View struct {
	Featured   []string `json:"featured"`
	Hidden     []string `json:"hidden"`
	Categories []string `json:"categories"`
	// Override is the decoded share link, if any.
	Override *URLConfig `json:"override,omitempty"`
}

// View merges the stored record with the share and legacy parameters of q.
// A share link list that is non-empty replaces the stored one. Otherwise
// featured and hide add names and show removes names from hidden.
func (s *ConfigStore) View(ctx context.Context, q url.Values) (View, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return View{}, err
	}

	override, err := ParseURLConfig(q)
	if err != nil {
		s.logger.Warn("failed to parse URL config", "error", err)
		override = nil
	}

	v := View{
		Featured:   slices.Clone(cfg.FeaturedRepos),
		Hidden:     slices.Clone(cfg.HiddenRepos),
		Categories: EnabledCategories(cfg),
		Override:   override,
	}

	if override != nil && len(override.FeaturedRepos) > 0 {
		v.Featured = override.FeaturedRepos
	} else if p := q.Get("featured"); p != "" {
		v.Featured = union(v.Featured, strings.Split(p, ","))
	}

	if override != nil && len(override.HiddenRepos) > 0 {
		v.Hidden = override.HiddenRepos
	} else {
		if p := q.Get("show"); p != "" {
			for _, name := range strings.Split(p, ",") {
				v.Hidden = without(v.Hidden, name)
			}
		}
		if p := q.Get("hide"); p != "" {
			v.Hidden = union(v.Hidden, strings.Split(p, ","))
		}
	}

	if override != nil && len(override.EnabledCategories) > 0 {
		v.Categories = override.EnabledCategories
	}
	return v, nil
}

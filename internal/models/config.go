package models

import (
	"bytes"
	"encoding/json"
)

// DisplaySettings toggles optional UI sections.
type DisplaySettings struct {
	ShowStats              bool `json:"showStats"`
	ShowLanguages          bool `json:"showLanguages"`
	ShowTopics             bool `json:"showTopics"`
	MaxProjectsPerCategory *int `json:"maxProjectsPerCategory"`
}

// DisplaySettingsPatch carries the fields to change; nil means keep.
// ClearMaxProjectsPerCategory sets the cap back to null. Decoding an
// explicit "maxProjectsPerCategory": null sets it.
type DisplaySettingsPatch struct {
	ShowStats                   *bool `json:"showStats,omitempty"`
	ShowLanguages               *bool `json:"showLanguages,omitempty"`
	ShowTopics                  *bool `json:"showTopics,omitempty"`
	MaxProjectsPerCategory      *int  `json:"maxProjectsPerCategory,omitempty"`
	ClearMaxProjectsPerCategory bool  `json:"-"`
}

// UnmarshalJSON tells an absent maxProjectsPerCategory from a null one.
func (p *DisplaySettingsPatch) UnmarshalJSON(data []byte) error {
	type plain DisplaySettingsPatch
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	if v, ok := fields["maxProjectsPerCategory"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		p.MaxProjectsPerCategory = nil
		p.ClearMaxProjectsPerCategory = true
	}
	return nil
}

// PortfolioConfig is the single persisted portfolio record.
//
// FeaturedRepos is meant to be a subset of SelectedRepos. Only
// RemoveSelectedRepo keeps that true; nothing else validates it.
type PortfolioConfig struct {
	SelectedRepos   []string        `json:"selectedRepos"`
	FeaturedRepos   []string        `json:"featuredRepos"`
	HiddenRepos     []string        `json:"hiddenRepos"`
	CustomProjects  []Repository    `json:"customProjects"`
	LastSync        *int64          `json:"lastSync"`
	AutoSync        bool            `json:"autoSync"`
	SyncInterval    int64           `json:"syncInterval"`
	Categories      map[string]bool `json:"categories"`
	DisplaySettings DisplaySettings `json:"displaySettings"`
}

// DefaultSyncInterval is one hour, in milliseconds.
const DefaultSyncInterval int64 = 3600000

// DefaultPortfolioConfig returns the record created on first access.
func DefaultPortfolioConfig() *PortfolioConfig {
	cats := make(map[string]bool)
	for _, c := range DefaultCategories() {
		cats[string(c)] = true
	}
	return &PortfolioConfig{
		SelectedRepos:  []string{},
		FeaturedRepos:  []string{},
		HiddenRepos:    []string{},
		CustomProjects: []Repository{},
		AutoSync:       true,
		SyncInterval:   DefaultSyncInterval,
		Categories:     cats,
		DisplaySettings: DisplaySettings{
			ShowStats:     true,
			ShowLanguages: true,
			ShowTopics:    true,
		},
	}
}

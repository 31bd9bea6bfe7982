package portfolio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/joescharf/folio/internal/models"
)

// URLConfig is a read-only override decoded from a share link.
type URLConfig struct {
	HiddenRepos       []string `json:"hiddenRepos"`
	FeaturedRepos     []string `json:"featuredRepos"`
	EnabledCategories []string `json:"enabledCategories"`
}

// compactConfig is the share-link payload. Field order fixes the JSON key
// order to h, f, c.
type compactConfig struct {
	H []string `json:"h,omitempty"`
	F []string `json:"f,omitempty"`
	C []string `json:"c,omitempty"`
}

func (c compactConfig) empty() bool {
	return len(c.H) == 0 && len(c.F) == 0 && len(c.C) == 0
}

type preset struct {
	name       string
	categories []string
}

var presets = []preset{
	{"all", categoryNames(models.DefaultCategories()...)},
	{"web", categoryNames(models.CategoryWeb)},
	{"games", categoryNames(models.CategoryGame)},
	{"mobile", categoryNames(models.CategoryMobile)},
	{"3d", categoryNames(models.Category3D)},
}

func categoryNames(cats ...models.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// GenerateSyncURL builds a share link for the current hidden, featured and
// enabled-category settings. It returns base unchanged when there is
// nothing to share.
func (s *ConfigStore) GenerateSyncURL(ctx context.Context, base string) (string, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return "", err
	}
	return ShareURL(base, cfg)
}

// ShareURL encodes cfg into a share link rooted at base.
func ShareURL(base string, cfg *models.PortfolioConfig) (string, error) {
	compact := compactConfig{
		H: cfg.HiddenRepos,
		F: cfg.FeaturedRepos,
		C: EnabledCategories(cfg),
	}
	if compact.empty() {
		return base, nil
	}

	if name := presetFor(compact); name != "" {
		return base + "?preset=" + name, nil
	}

	data, err := json.Marshal(compact)
	if err != nil {
		return "", fmt.Errorf("encode share config: %w", err)
	}
	return base + "?config=" + base64.RawURLEncoding.EncodeToString(data), nil
}

// presetFor returns the preset name matching c exactly, an f-<hash> name
// for featured-only links over every category, or "".
func presetFor(c compactConfig) string {
	if len(c.H) == 0 && len(c.F) == 0 {
		for _, p := range presets {
			if slices.Equal(p.categories, c.C) {
				return p.name
			}
		}
	}
	if len(c.F) > 0 && len(c.H) == 0 && slices.Equal(c.C, presets[0].categories) {
		return "f-" + hashNames(c.F)
	}
	return ""
}

// hashNames is the 31-multiplier 32-bit string hash of the sorted,
// comma-joined names, in base 36, cut to six characters.
func hashNames(names []string) string {
	sorted := slices.Clone(names)
	sort.Strings(sorted)

	var h int32
	for _, u := range utf16.Encode([]rune(strings.Join(sorted, ","))) {
		h = (h << 5) - h + int32(u)
	}
	out := strconv.FormatInt(int64(h), 36)
	if len(out) > 6 {
		out = out[:6]
	}
	return out
}

// ParseURLConfig decodes the share parameters of q. preset wins over
// config. It returns nil with no error when q carries no override or an
// unknown preset, and nil with an error when config cannot be decoded.
func ParseURLConfig(q url.Values) (*URLConfig, error) {
	if name := q.Get("preset"); name != "" {
		return expandPreset(name), nil
	}

	raw := q.Get("config")
	if raw == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return nil, fmt.Errorf("decode share config: %w", err)
	}
	var compact compactConfig
	if err := json.Unmarshal(data, &compact); err != nil {
		return nil, fmt.Errorf("parse share config: %w", err)
	}
	return &URLConfig{
		HiddenRepos:       orEmpty(compact.H),
		FeaturedRepos:     orEmpty(compact.F),
		EnabledCategories: orEmpty(compact.C),
	}, nil
}

func expandPreset(name string) *URLConfig {
	for _, p := range presets {
		if p.name == name {
			return &URLConfig{
				HiddenRepos:       []string{},
				FeaturedRepos:     []string{},
				EnabledCategories: slices.Clone(p.categories),
			}
		}
	}
	// The featured hash is one-way; the link only restores the categories.
	if strings.HasPrefix(name, "f-") {
		return &URLConfig{
			HiddenRepos:       []string{},
			FeaturedRepos:     []string{},
			EnabledCategories: slices.Clone(presets[0].categories),
		}
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package portfolio

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/folio/internal/models"
)

const base = "https://folio.example"

func queryOf(t *testing.T, link string) url.Values {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query()
}

func TestGenerateSyncURL_Presets(t *testing.T) {
	tests := []struct {
		name string
		cats map[string]bool
		want string
	}{
		{"all", nil, base + "?preset=all"},
		{"web only", map[string]bool{"Web Development": true, "Game Development": false}, base + "?preset=web"},
		{"games", map[string]bool{"Game Development": true}, base + "?preset=games"},
		{"mobile", map[string]bool{"Mobile Development": true}, base + "?preset=mobile"},
		{"3d", map[string]bool{"3D Modeling": true}, base + "?preset=3d"},
		{"nothing", map[string]bool{}, base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultPortfolioConfig()
			if tt.cats != nil {
				cfg.Categories = tt.cats
			}
			got, err := ShareURL(base, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateSyncURL_FeaturedHash(t *testing.T) {
	cfg := models.DefaultPortfolioConfig()
	cfg.FeaturedRepos = []string{"b", "a"}

	got, err := ShareURL(base, cfg)
	require.NoError(t, err)
	// "a,b" hashes to 94679, "211z" in base 36.
	assert.Equal(t, base+"?preset=f-211z", got)
	assert.Equal(t, []string{"b", "a"}, cfg.FeaturedRepos, "hashing does not reorder the record")

	q := queryOf(t, got)
	uc, err := ParseURLConfig(q)
	require.NoError(t, err)
	require.NotNil(t, uc)
	assert.Empty(t, uc.FeaturedRepos)
	assert.Len(t, uc.EnabledCategories, 4)
}

func TestHashNames(t *testing.T) {
	assert.Equal(t, "211z", hashNames([]string{"a", "b"}))
	// Long inputs overflow to negative values; the sign is kept.
	h := hashNames([]string{"portfolio-site", "obby-game", "discord-bot"})
	assert.LessOrEqual(t, len(h), 6)
	assert.Equal(t, h, hashNames([]string{"discord-bot", "obby-game", "portfolio-site"}))
}

func TestShareURL_RoundTrip(t *testing.T) {
	cfg := models.DefaultPortfolioConfig()
	cfg.HiddenRepos = []string{"old-thing"}
	cfg.FeaturedRepos = []string{"bot", "game"}
	cfg.Categories["3D Modeling"] = false

	link, err := ShareURL(base, cfg)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, base+"?config="))
	assert.NotContains(t, strings.TrimPrefix(link, base+"?config="), "=", "padding is stripped")

	uc, err := ParseURLConfig(queryOf(t, link))
	require.NoError(t, err)
	require.NotNil(t, uc)
	assert.Equal(t, cfg.HiddenRepos, uc.HiddenRepos)
	assert.Equal(t, cfg.FeaturedRepos, uc.FeaturedRepos)
	assert.Equal(t, []string{"Web Development", "Game Development", "Mobile Development"}, uc.EnabledCategories)
}

func TestParseURLConfig(t *testing.T) {
	t.Run("no params", func(t *testing.T) {
		uc, err := ParseURLConfig(url.Values{})
		require.NoError(t, err)
		assert.Nil(t, uc)
	})
	t.Run("unknown preset", func(t *testing.T) {
		uc, err := ParseURLConfig(url.Values{"preset": {"nope"}})
		require.NoError(t, err)
		assert.Nil(t, uc)
	})
	t.Run("preset wins over config", func(t *testing.T) {
		uc, err := ParseURLConfig(url.Values{"preset": {"web"}, "config": {"garbage"}})
		require.NoError(t, err)
		require.NotNil(t, uc)
		assert.Equal(t, []string{"Web Development"}, uc.EnabledCategories)
	})
	t.Run("bad base64", func(t *testing.T) {
		uc, err := ParseURLConfig(url.Values{"config": {"!!!"}})
		require.Error(t, err)
		assert.Nil(t, uc)
	})
	t.Run("bad json", func(t *testing.T) {
		uc, err := ParseURLConfig(url.Values{"config": {"bm90IGpzb24"}})
		require.Error(t, err)
		assert.Nil(t, uc)
	})
	t.Run("padded input accepted", func(t *testing.T) {
		// {"h":["x"]}
		uc, err := ParseURLConfig(url.Values{"config": {"eyJoIjpbIngiXX0="}})
		require.NoError(t, err)
		require.NotNil(t, uc)
		assert.Equal(t, []string{"x"}, uc.HiddenRepos)
		assert.Equal(t, []string{}, uc.FeaturedRepos)
		assert.Equal(t, []string{}, uc.EnabledCategories)
	})
}

func TestGenerateSyncURL_FromStore(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()

	got, err := cs.GenerateSyncURL(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, base+"?preset=all", got)

	_, err = cs.ToggleHiddenRepo(ctx, "x")
	require.NoError(t, err)
	got, err = cs.GenerateSyncURL(ctx, base)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, base+"?config="))
}

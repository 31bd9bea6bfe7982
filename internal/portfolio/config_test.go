package portfolio

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*ConfigStore, *store.MemoryStore, *clock) {
	t.Helper()
	mem := store.NewMemoryStore()
	clk := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewConfigStore(mem, WithClock(clk.now)), mem, clk
}

func TestConfig_CreatesDefaultsOnFirstAccess(t *testing.T) {
	cs, mem, _ := newTestStore(t)
	ctx := context.Background()

	cfg, err := cs.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPortfolioConfig(), cfg)

	raw, ok, err := mem.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok, "defaults are persisted")
	assert.Contains(t, raw, `"autoSync":true`)
	assert.Contains(t, raw, `"lastSync":null`)
}

func TestConfig_CorruptRecordRecreatesDefaults(t *testing.T) {
	cs, mem, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, DefaultKey, "{not json"))

	cfg, err := cs.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPortfolioConfig(), cfg)
}

func TestAddSelectedRepo_NoDuplicates(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, cs.AddSelectedRepo(ctx, "a"))
	require.NoError(t, cs.AddSelectedRepo(ctx, "b"))
	require.NoError(t, cs.AddSelectedRepo(ctx, "a"))

	got, err := cs.SelectedRepos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestRemoveSelectedRepo_CascadesToFeatured(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := cs.Update(ctx, func(cfg *models.PortfolioConfig) {
		cfg.SelectedRepos = []string{"X", "Y"}
		cfg.FeaturedRepos = []string{"X"}
	})
	require.NoError(t, err)

	require.NoError(t, cs.RemoveSelectedRepo(ctx, "X"))

	cfg, err := cs.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, cfg.SelectedRepos)
	assert.Equal(t, []string{}, cfg.FeaturedRepos)
}

func TestToggleFeaturedAndHidden(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()

	on, err := cs.ToggleFeaturedRepo(ctx, "a")
	require.NoError(t, err)
	assert.True(t, on)
	on, err = cs.ToggleFeaturedRepo(ctx, "a")
	require.NoError(t, err)
	assert.False(t, on)

	on, err = cs.ToggleHiddenRepo(ctx, "z")
	require.NoError(t, err)
	assert.True(t, on)

	cfg, err := cs.Config(ctx)
	require.NoError(t, err)
	assert.Empty(t, cfg.FeaturedRepos)
	assert.Equal(t, []string{"z"}, cfg.HiddenRepos)
}

func TestCustomProjects(t *testing.T) {
	cs, _, clk := newTestStore(t)
	ctx := context.Background()

	p, err := cs.AddCustomProject(ctx, models.Repository{Name: "Sculpt", Category: models.Category3D, Featured: true})
	require.NoError(t, err)
	assert.Equal(t, "custom_1740819600000", p.ID)
	assert.True(t, p.IsCustom)
	assert.Equal(t, clk.t, p.CreatedAt)

	clk.advance(time.Millisecond)
	q, err := cs.AddCustomProject(ctx, models.Repository{Name: "Other"})
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, q.ID)

	list, err := cs.CustomProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Sculpt", list[0].Name)

	require.NoError(t, cs.RemoveCustomProject(ctx, p.ID))
	list, err = cs.CustomProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)

	require.NoError(t, cs.RemoveCustomProject(ctx, "custom_missing"))
}

func TestToggleCategory(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()

	on, err := cs.ToggleCategory(ctx, string(models.CategoryWeb))
	require.NoError(t, err)
	assert.False(t, on)

	on, err = cs.ToggleCategory(ctx, "Music")
	require.NoError(t, err)
	assert.True(t, on, "unknown category starts enabled")

	cfg, err := cs.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Game Development", "3D Modeling", "Mobile Development", "Music"}, EnabledCategories(cfg))
}

func TestUpdateDisplaySettings_Merges(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()

	off := false
	limit := 3
	ds, err := cs.UpdateDisplaySettings(ctx, models.DisplaySettingsPatch{ShowTopics: &off, MaxProjectsPerCategory: &limit})
	require.NoError(t, err)
	assert.True(t, ds.ShowStats)
	assert.True(t, ds.ShowLanguages)
	assert.False(t, ds.ShowTopics)
	require.NotNil(t, ds.MaxProjectsPerCategory)
	assert.Equal(t, 3, *ds.MaxProjectsPerCategory)

	got, err := cs.DisplaySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, ds, got)

	ds, err = cs.UpdateDisplaySettings(ctx, models.DisplaySettingsPatch{ClearMaxProjectsPerCategory: true})
	require.NoError(t, err)
	assert.Nil(t, ds.MaxProjectsPerCategory)
	assert.False(t, ds.ShowTopics)
}

func TestShouldAutoSync(t *testing.T) {
	cs, _, clk := newTestStore(t)
	ctx := context.Background()

	ok, err := cs.ShouldAutoSync(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "never synced")

	_, err = cs.MarkSyncComplete(ctx)
	require.NoError(t, err)

	ok, err = cs.ShouldAutoSync(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	clk.advance(time.Hour - time.Millisecond)
	ok, _ = cs.ShouldAutoSync(ctx)
	assert.False(t, ok)

	clk.advance(time.Millisecond)
	ok, _ = cs.ShouldAutoSync(ctx)
	assert.True(t, ok, "interval elapsed exactly")

	_, err = cs.Update(ctx, func(cfg *models.PortfolioConfig) { cfg.AutoSync = false })
	require.NoError(t, err)
	ok, _ = cs.ShouldAutoSync(ctx)
	assert.False(t, ok, "disabled")
}

func TestExportImport(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, cs.AddSelectedRepo(ctx, "a"))

	text, err := cs.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "\n  \"selectedRepos\": [\n    \"a\"\n  ]")

	other, _, _ := newTestStore(t)
	require.NoError(t, other.Import(ctx, text))
	got, err := other.SelectedRepos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestImport_InvalidJSONLeavesRecord(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, cs.AddSelectedRepo(ctx, "keep"))

	err := cs.Import(ctx, "{oops")
	require.Error(t, err)

	got, err := cs.SelectedRepos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, got)
}

func TestImport_StoresArbitraryJSONVerbatim(t *testing.T) {
	cs, mem, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, cs.Import(ctx, `{"selectedRepos":["x"],"extra":1}`))
	raw, _, err := mem.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, `{"selectedRepos":["x"],"extra":1}`, raw)

	text, err := cs.Export(ctx)
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &v))
	assert.Contains(t, v, "extra", "export reflects the stored record")

	cfg, err := cs.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, cfg.SelectedRepos)
	assert.Equal(t, []string{}, cfg.HiddenRepos, "sparse record is normalized")
}

func TestReset(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, cs.AddSelectedRepo(ctx, "a"))

	cfg, err := cs.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPortfolioConfig(), cfg)
}

func TestWithKey(t *testing.T) {
	mem := store.NewMemoryStore()
	cs := NewConfigStore(mem, WithKey("other"))
	ctx := context.Background()
	require.NoError(t, cs.AddSelectedRepo(ctx, "a"))

	_, ok, err := mem.Get(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, _ = mem.Get(ctx, DefaultKey)
	assert.False(t, ok)
}

func TestConcurrentMutations(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = cs.AddSelectedRepo(ctx, string(rune('a'+i)))
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	got, err := cs.SelectedRepos(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

package refresh

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/portfolio"
	"github.com/joescharf/folio/internal/store"
)

type fakeSource struct {
	mu        sync.Mutex
	projects  []models.Repository
	repos     []models.RepoListing
	stats     *models.ProfileStats
	err       error
	calls     int
	cleared   int
	lastAllow []string
}

func (f *fakeSource) PortfolioProjects(_ context.Context, selected []string) []models.Repository {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastAllow = selected
	return append([]models.Repository(nil), f.projects...)
}

func (f *fakeSource) AllRepos(context.Context) []models.RepoListing { return f.repos }

func (f *fakeSource) UserStats(context.Context) *models.ProfileStats { return f.stats }

func (f *fakeSource) RepoDetail(_ context.Context, name string) (*models.RepoDetail, error) {
	for _, r := range f.repos {
		if r.Name == name {
			return &models.RepoDetail{RepoListing: r}, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeSource) LastError() error { return f.err }

func (f *fakeSource) ClearCache() {
	f.mu.Lock()
	f.cleared++
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var now = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Syncer, *portfolio.ConfigStore, *fakeSource) {
	t.Helper()
	cs := portfolio.NewConfigStore(store.NewMemoryStore(), portfolio.WithClock(func() time.Time { return now }))
	src := &fakeSource{
		projects: []models.Repository{
			{Name: "bot", Category: models.CategoryWeb, Stars: 2},
			{Name: "obby", Category: models.CategoryGame, Stars: 1},
		},
		repos: []models.RepoListing{
			{Name: "bot", UpdatedAt: now.Add(-time.Hour), Language: "JavaScript"},
			{Name: "obby", UpdatedAt: now.Add(-2 * time.Hour), Language: "Lua"},
			{Name: "stale", UpdatedAt: now.Add(-90 * 24 * time.Hour), Language: "C"},
		},
		stats: &models.ProfileStats{Login: "o"},
	}
	return NewSyncer(cs, src, nil), cs, src
}

func TestProjects_NothingSelectedSkipsRemote(t *testing.T) {
	s, cs, src := setup(t)
	ctx := context.Background()
	_, err := cs.AddCustomProject(ctx, models.Repository{Name: "sculpt", Category: models.Category3D})
	require.NoError(t, err)

	res, err := s.Projects(ctx, nil, false)
	require.NoError(t, err)
	assert.Zero(t, src.callCount())
	require.Len(t, res.Projects, 1)
	assert.Equal(t, "sculpt", res.Projects[0].Name)
}

func TestProjects_OnlyForcedRunsMarkSync(t *testing.T) {
	s, cs, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, cs.AddSelectedRepo(ctx, "bot"))

	// Public views read the pipeline without touching the sync schedule.
	res, err := s.Projects(ctx, nil, false)
	require.NoError(t, err)
	assert.Zero(t, res.LastSync)
	cfg, err := cs.Config(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg.LastSync)
	due, err := cs.ShouldAutoSync(ctx)
	require.NoError(t, err)
	assert.True(t, due)

	res, err = s.Projects(ctx, nil, true)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), res.LastSync)
	cfg, err = cs.Config(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg.LastSync)
	assert.Equal(t, now.UnixMilli(), *cfg.LastSync)

	res, err = s.Projects(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), res.LastSync, "reports the stored timestamp")
}

func TestProjects_ForceFetchesEverything(t *testing.T) {
	s, _, src := setup(t)

	res, err := s.Projects(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, src.callCount())
	assert.Empty(t, src.lastAllow)
	assert.Len(t, res.Projects, 2)
	assert.Equal(t, 3, res.Stats.TotalStars)
}

func TestProjects_AppliesView(t *testing.T) {
	s, cs, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, cs.AddSelectedRepo(ctx, "bot"))
	_, err := cs.ToggleFeaturedRepo(ctx, "bot")
	require.NoError(t, err)

	res, err := s.Projects(ctx, url.Values{"preset": {"games"}}, false)
	require.NoError(t, err)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, "obby", res.Projects[0].Name)

	res, err = s.Projects(ctx, url.Values{"hide": {"obby"}}, false)
	require.NoError(t, err)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, "bot", res.Projects[0].Name)
	assert.True(t, res.Projects[0].Featured)
	assert.Equal(t, 1, res.Stats.Featured)
}

func TestProjects_SurfacesSourceError(t *testing.T) {
	s, _, src := setup(t)
	src.err = errors.New("GitHub API rate limit exceeded")

	res, err := s.Projects(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, "GitHub API rate limit exceeded", res.Error)
}

func TestAllRepos_DetectsNew(t *testing.T) {
	s, cs, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, cs.AddSelectedRepo(ctx, "bot"))

	res, err := s.AllRepos(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Repos, 3)
	require.Len(t, res.NewRepos, 2)
	assert.Equal(t, "obby", res.NewRepos[0].Name)
}

func TestAutoSelect(t *testing.T) {
	s, cs, src := setup(t)
	ctx := context.Background()

	names, err := s.AutoSelect(ctx, portfolio.DefaultSelectionCriteria())
	require.NoError(t, err)
	assert.Equal(t, []string{"bot", "obby"}, names)

	selected, err := cs.SelectedRepos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bot", "obby"}, selected)
	assert.Equal(t, 1, src.callCount(), "pipeline reran with the new selection")
	assert.Equal(t, []string{"bot", "obby"}, src.lastAllow)
}

func TestSyncAndInitial(t *testing.T) {
	s, _, src := setup(t)
	ctx := context.Background()

	res, err := s.Initial(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.callCount(), "first start is due, so remote is forced")
	assert.Equal(t, "o", res.Profile.Login)
	assert.Len(t, res.Repos.Repos, 3)

	// Just synced, nothing selected: the regular pipeline skips remote.
	_, err = s.Initial(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.callCount())

	_, err = s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, 1, src.cleared, "a manual sync drops the GitHub cache")
}

func TestRepoDetail_PassesThrough(t *testing.T) {
	s, _, _ := setup(t)

	d, err := s.RepoDetail(context.Background(), "obby")
	require.NoError(t, err)
	assert.Equal(t, "Lua", d.Language)

	_, err = s.RepoDetail(context.Background(), "missing")
	assert.Error(t, err)
}

func TestLoop_SyncsWhenDue(t *testing.T) {
	s, _, src := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.loop(ctx, 10*time.Millisecond) }()

	// The clock is frozen, so only the first tick is due.
	require.Eventually(t, func() bool { return src.callCount() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, src.callCount())

	cancel()
	require.NoError(t, <-done)
}

func TestLoop_RereadsConfigEachTick(t *testing.T) {
	var clock atomic.Int64
	clock.Store(now.UnixMilli())
	cs := portfolio.NewConfigStore(store.NewMemoryStore(), portfolio.WithClock(func() time.Time {
		return time.UnixMilli(clock.Load())
	}))
	src := &fakeSource{}
	s := NewSyncer(cs, src, nil)
	bg := context.Background()
	_, err := cs.Update(bg, func(c *models.PortfolioConfig) { c.AutoSync = false })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(bg)
	done := make(chan error, 1)
	go func() { done <- s.loop(ctx, 10*time.Millisecond) }()

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, src.callCount(), "disabled at start")

	// Turning auto-sync on takes effect without a restart.
	_, err = cs.Update(bg, func(c *models.PortfolioConfig) { c.AutoSync = true })
	require.NoError(t, err)
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// Half the hourly interval has passed: not due yet.
	clock.Add((30 * time.Minute).Milliseconds())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, src.callCount())

	// A shorter interval applies from the next tick.
	_, err = cs.Update(bg, func(c *models.PortfolioConfig) { c.SyncInterval = (10 * time.Minute).Milliseconds() })
	require.NoError(t, err)
	require.Eventually(t, func() bool { return src.callCount() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestTickPeriod(t *testing.T) {
	assert.Equal(t, 5*time.Second, tickPeriod(5000, time.Minute))
	assert.Equal(t, time.Minute, tickPeriod(models.DefaultSyncInterval, time.Minute))
	assert.Equal(t, time.Minute, tickPeriod(0, time.Minute), "unset falls back to the default")
}

func TestRun_DisabledWaitsForCancel(t *testing.T) {
	s, cs, src := setup(t)
	_, err := cs.Update(context.Background(), func(c *models.PortfolioConfig) { c.AutoSync = false })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx))
	assert.Zero(t, src.callCount())
}

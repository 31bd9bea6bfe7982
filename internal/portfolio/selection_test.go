package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/folio/internal/models"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.Add(-time.Duration(n) * 24 * time.Hour) }

func TestAutoSelect_DropsOldUnstarredOtherLanguage(t *testing.T) {
	repos := []models.RepoListing{
		{Name: "a", UpdatedAt: daysAgo(40), Stars: 0, Language: "Go"},
		{Name: "b", UpdatedAt: daysAgo(2), Stars: 0, Language: "Go"},
	}
	assert.Equal(t, []string{"b"}, AutoSelect(repos, DefaultSelectionCriteria(), now))
}

func TestAutoSelect_PassOrder(t *testing.T) {
	repos := []models.RepoListing{
		{Name: "old-starred-go", UpdatedAt: daysAgo(100), Stars: 5, Language: "Go"},
		{Name: "recent-go", UpdatedAt: daysAgo(1), Language: "Go"},
		{Name: "old-python", UpdatedAt: daysAgo(90), Language: "Python"},
		{Name: "recent-ts", UpdatedAt: daysAgo(3), Language: "TypeScript"},
		{Name: "archived", UpdatedAt: daysAgo(1), Archived: true, Language: "Python"},
		{Name: "private", UpdatedAt: daysAgo(1), IsPrivate: true},
	}

	got := AutoSelect(repos, DefaultSelectionCriteria(), now)
	// Recent first, then old; then preferred languages moved ahead.
	assert.Equal(t, []string{"recent-ts", "old-python", "recent-go", "old-starred-go"}, got)
}

func TestAutoSelect_Criteria(t *testing.T) {
	repos := []models.RepoListing{
		{Name: "a", UpdatedAt: daysAgo(100), Stars: 1, Language: "Rust"},
		{Name: "b", UpdatedAt: daysAgo(100), Stars: 3, Language: "Go"},
		{Name: "c", UpdatedAt: daysAgo(100), Stars: 0, Language: "C"},
	}

	got := AutoSelect(repos, SelectionCriteria{MinStars: 1, MaxRepos: 20}, now)
	assert.Equal(t, []string{"a", "b"}, got, "no reordering without recency or languages")

	got = AutoSelect(repos, SelectionCriteria{MaxRepos: 20}, now)
	assert.Equal(t, []string{"a", "b", "c"}, got, "without IncludeRecent nothing old is dropped")

	got = AutoSelect(repos, SelectionCriteria{MaxRepos: 1}, now)
	assert.Equal(t, []string{"a"}, got)

	got = AutoSelect(repos, SelectionCriteria{PreferredLanguages: []string{"Go"}, MaxRepos: 20}, now)
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestAutoSelectRepositories_UsesStoreClock(t *testing.T) {
	cs, _, _ := newTestStore(t)
	repos := []models.RepoListing{{Name: "fresh", UpdatedAt: now.Add(-time.Hour)}}
	assert.Equal(t, []string{"fresh"}, cs.AutoSelectRepositories(repos, DefaultSelectionCriteria()))
}

func TestDetectNewRepos(t *testing.T) {
	cs, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, cs.AddSelectedRepo(ctx, "picked"))
	_, err := cs.ToggleHiddenRepo(ctx, "hidden")
	require.NoError(t, err)

	all := []models.RepoListing{
		{Name: "picked", UpdatedAt: daysAgo(1)},
		{Name: "hidden", UpdatedAt: daysAgo(1)},
		{Name: "older", UpdatedAt: daysAgo(10)},
		{Name: "archived", UpdatedAt: daysAgo(1), Archived: true},
		{Name: "newer", UpdatedAt: daysAgo(2)},
	}

	got, err := cs.DetectNewRepos(ctx, all)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Name)
	assert.Equal(t, "older", got[1].Name)
}

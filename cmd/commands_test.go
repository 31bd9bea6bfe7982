package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/portfolio"
)

func newCmd() *cobra.Command {
	c := &cobra.Command{}
	c.SetContext(context.Background())
	return c
}

func loadConfig(t *testing.T) *models.PortfolioConfig {
	t.Helper()
	cs, err := getConfigStore()
	require.NoError(t, err)
	cfg, err := cs.Config(context.Background())
	require.NoError(t, err)
	return cfg
}

func TestRootRun_NoProjects(t *testing.T) {
	testEnv(t)

	require.NoError(t, rootRun(newCmd()))
	assert.Contains(t, stdout(), "No projects selected yet")
}

func TestSelectAndRootRun(t *testing.T) {
	testEnv(t)

	require.NoError(t, selectRun(newCmd(), []string{"bot", "obby"}, true))
	assert.Equal(t, []string{"bot", "obby"}, loadConfig(t).SelectedRepos)

	require.NoError(t, rootRun(newCmd()))
	out := stdout()
	assert.Contains(t, out, "bot")
	assert.Contains(t, out, "obby")
	assert.Contains(t, out, "Game Development")
}

func TestSelectRemove_ClearsFlags(t *testing.T) {
	testEnv(t)

	require.NoError(t, selectRun(newCmd(), []string{"bot"}, true))
	require.NoError(t, toggleRun(newCmd(), "bot", "featured"))
	require.NoError(t, toggleRun(newCmd(), "bot", "hidden"))
	require.NoError(t, selectRun(newCmd(), []string{"bot"}, false))

	cfg := loadConfig(t)
	assert.Empty(t, cfg.SelectedRepos)
	assert.Empty(t, cfg.FeaturedRepos)
	assert.Equal(t, []string{"bot"}, cfg.HiddenRepos, "hidden is left alone")
	assert.NotContains(t, selectRemoveCmd.Long, "hidden")
}

func TestSelect_DryRun(t *testing.T) {
	testEnv(t)
	dryRun = true

	require.NoError(t, selectRun(newCmd(), []string{"bot"}, true))
	assert.Empty(t, loadConfig(t).SelectedRepos)
}

func TestToggleRun(t *testing.T) {
	testEnv(t)

	require.NoError(t, toggleRun(newCmd(), "bot", "featured"))
	require.NoError(t, toggleRun(newCmd(), "dotfiles", "hidden"))
	require.NoError(t, toggleRun(newCmd(), "3D Modeling", "category"))

	cfg := loadConfig(t)
	assert.Equal(t, []string{"bot"}, cfg.FeaturedRepos)
	assert.Equal(t, []string{"dotfiles"}, cfg.HiddenRepos)
	assert.False(t, cfg.Categories["3D Modeling"])

	out := stdout()
	assert.Contains(t, out, "bot is now featured")
	assert.Contains(t, out, "Hiding 3D Modeling")
}

func TestReposListRun_New(t *testing.T) {
	testEnv(t)
	require.NoError(t, selectRun(newCmd(), []string{"bot"}, true))
	ui.Out.(interface{ Reset() }).Reset()

	require.NoError(t, reposListRun(newCmd(), true))
	out := stdout()
	assert.NotContains(t, out, "bot")
	assert.Contains(t, out, "obby")
	assert.Contains(t, out, "old-site")
}

func TestReposShowRun(t *testing.T) {
	testEnv(t)
	src, err := newSource()
	require.NoError(t, err)
	weeks := make([]int, 52)
	weeks[0], weeks[50], weeks[51] = 9, 2, 3
	src.(*fakeSource).weekly = &models.Participation{All: weeks, Owner: []int{1, 1}}

	require.NoError(t, reposShowRun(newCmd(), "obby"))
	out := stdout()
	assert.Contains(t, out, "obby")
	assert.Contains(t, out, "Lua")
	assert.Contains(t, out, "5 in 4 weeks, 14 in a year (2 by the owner)")

	err = reposShowRun(newCmd(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `repository "missing" not found`)
}

func TestReposShowRun_PendingParticipation(t *testing.T) {
	testEnv(t)

	require.NoError(t, reposShowRun(newCmd(), "bot"))
	assert.Contains(t, stdout(), "(not computed yet)")
}

func TestReposAutoSelectRun(t *testing.T) {
	testEnv(t)
	d := portfolio.DefaultSelectionCriteria()
	autoMinStars, autoMaxRepos, autoLanguages, autoNoRecent = d.MinStars, d.MaxRepos, d.PreferredLanguages, false

	require.NoError(t, reposAutoSelectRun(newCmd()))
	assert.Equal(t, []string{"bot", "obby"}, loadConfig(t).SelectedRepos)
	assert.Contains(t, stdout(), "Selected 2 repositories")
}

func TestCustomAddListRemove(t *testing.T) {
	testEnv(t)
	customDescription = "Hand-built site"
	customCategory = string(models.CategoryWeb)
	customStatus = string(models.StatusCompleted)
	t.Cleanup(func() { customDescription = "" })

	require.NoError(t, customAddRun(newCmd(), "Agency Site"))
	projects := loadConfig(t).CustomProjects
	require.Len(t, projects, 1)
	p := projects[0]
	assert.True(t, strings.HasPrefix(p.ID, "custom_"))
	assert.True(t, p.IsCustom)
	assert.Equal(t, "Hand-built site", p.LongDescription)

	require.NoError(t, customListRun(newCmd()))
	assert.Contains(t, stdout(), "Agency Site")

	err := customRemoveRun(newCmd(), "custom_nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, customRemoveRun(newCmd(), p.ID))
	assert.Empty(t, loadConfig(t).CustomProjects)
}

func TestDisplaySetRun(t *testing.T) {
	testEnv(t)

	cmd := &cobra.Command{}
	addDisplaySetFlags(cmd)
	require.NoError(t, cmd.Flags().Set("show-topics", "false"))
	require.NoError(t, cmd.Flags().Set("max-per-category", "6"))

	require.NoError(t, displaySetRun(cmd))
	ds := loadConfig(t).DisplaySettings
	assert.False(t, ds.ShowTopics)
	assert.True(t, ds.ShowStats)
	require.NotNil(t, ds.MaxProjectsPerCategory)
	assert.Equal(t, 6, *ds.MaxProjectsPerCategory)

	// --no-max clears the limit again.
	cmd = &cobra.Command{}
	addDisplaySetFlags(cmd)
	require.NoError(t, cmd.Flags().Set("no-max", "true"))
	require.NoError(t, displaySetRun(cmd))
	ds = loadConfig(t).DisplaySettings
	assert.Nil(t, ds.MaxProjectsPerCategory)
	assert.False(t, ds.ShowTopics, "other settings are kept")
	assert.Contains(t, stdout(), "max-per-category=unlimited")
}

func TestPortfolioExportImportReset(t *testing.T) {
	dir := testEnv(t)
	require.NoError(t, selectRun(newCmd(), []string{"bot"}, true))

	exportOut = filepath.Join(dir, "export.json")
	t.Cleanup(func() { exportOut = "" })
	require.NoError(t, portfolioExportRun(newCmd()))
	data, err := os.ReadFile(exportOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"selectedRepos\": [")

	resetForce = false
	err = portfolioResetRun(newCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	resetForce = true
	t.Cleanup(func() { resetForce = false })
	require.NoError(t, portfolioResetRun(newCmd()))
	assert.Empty(t, loadConfig(t).SelectedRepos)

	require.NoError(t, portfolioImportRun(newCmd(), exportOut))
	assert.Equal(t, []string{"bot"}, loadConfig(t).SelectedRepos)
}

func TestPortfolioImport_Invalid(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	err := portfolioImportRun(newCmd(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestPortfolioImport_Stdin(t *testing.T) {
	testEnv(t)
	cmd := newCmd()
	cmd.SetIn(strings.NewReader(`{"selectedRepos":["obby"]}`))

	require.NoError(t, portfolioImportRun(cmd, "-"))
	assert.Equal(t, []string{"obby"}, loadConfig(t).SelectedRepos)
}

func TestPortfolioShowRun(t *testing.T) {
	testEnv(t)
	require.NoError(t, selectRun(newCmd(), []string{"bot"}, true))

	require.NoError(t, portfolioShowRun(newCmd()))
	out := stdout()
	assert.Contains(t, out, "Selected:")
	assert.Contains(t, out, "Last sync:")
	assert.Contains(t, out, "never")
}

func TestShareURLAndParse(t *testing.T) {
	testEnv(t)
	shareBase = "https://example.dev/"

	require.NoError(t, shareURLRun(newCmd()))
	assert.Equal(t, "https://example.dev?preset=all\n", stdout())

	ui.Out.(interface{ Reset() }).Reset()
	require.NoError(t, shareParseRun("https://example.dev/?preset=games"))
	assert.Contains(t, stdout(), "Game Development")

	ui.Out.(interface{ Reset() }).Reset()
	require.NoError(t, shareParseRun("https://example.dev/"))
	assert.Contains(t, stdout(), "No view override")

	assert.Error(t, shareParseRun("config=%%%"))
}

func TestStatsRun(t *testing.T) {
	testEnv(t)
	require.NoError(t, selectRun(newCmd(), []string{"bot", "obby"}, true))
	ui.Out.(interface{ Reset() }).Reset()

	statsGitHub = false
	require.NoError(t, statsRun(newCmd()))
	out := stdout()
	assert.Contains(t, out, "2 (0 featured)")
	assert.Contains(t, out, "Game Development=1")

	statsGitHub = true
	t.Cleanup(func() { statsGitHub = false })
	ui.Out.(interface{ Reset() }).Reset()
	require.NoError(t, statsRun(newCmd()))
	assert.Contains(t, stdout(), "SirNotEthan")
}

func TestSyncRun(t *testing.T) {
	testEnv(t)
	require.NoError(t, selectRun(newCmd(), []string{"bot"}, true))

	require.NoError(t, syncRun(newCmd()))
	out := stdout()
	assert.Contains(t, out, "Synced 1 projects from 3 repositories")
	assert.Contains(t, out, "2 new repositories")
	assert.NotNil(t, loadConfig(t).LastSync)
}

func TestContactRun_NotConfigured(t *testing.T) {
	testEnv(t)
	viper.Set("contact.webhook_url", "")

	err := contactRun(newCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/folio/internal/github"
	"github.com/joescharf/folio/internal/output"
	"github.com/joescharf/folio/internal/portfolio"
)

var (
	autoMinStars  int
	autoMaxRepos  int
	autoLanguages []string
	autoNoRecent  bool
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Browse the owner's GitHub repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reposListRun(cmd, false)
	},
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every public repository and whether it is shown",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reposListRun(cmd, false)
	},
}

var reposNewCmd = &cobra.Command{
	Use:   "new",
	Short: "List repositories that are neither selected nor hidden",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reposListRun(cmd, true)
	},
}

var reposShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one repository with its commit activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reposShowRun(cmd, args[0])
	},
}

var reposAutoSelectCmd = &cobra.Command{
	Use:   "auto-select",
	Short: "Select repositories by stars, recency and language",
	Long: `Select repositories automatically.

Archived and private repositories and those under --min-stars are skipped.
Unless --no-recent is set, repositories updated in the last 30 days come
first, then older ones with a star or a preferred language; the rest are
dropped. Repositories in --languages move to the front and at most --max
are selected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reposAutoSelectRun(cmd)
	},
}

func init() {
	defaults := portfolio.DefaultSelectionCriteria()
	reposAutoSelectCmd.Flags().IntVar(&autoMinStars, "min-stars", defaults.MinStars, "Minimum stars for the first pass")
	reposAutoSelectCmd.Flags().IntVar(&autoMaxRepos, "max", defaults.MaxRepos, "Maximum number of repositories to select")
	reposAutoSelectCmd.Flags().StringSliceVar(&autoLanguages, "languages", defaults.PreferredLanguages, "Preferred languages")
	reposAutoSelectCmd.Flags().BoolVar(&autoNoRecent, "no-recent", false, "Do not require recent activity in the first pass")

	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposNewCmd)
	reposCmd.AddCommand(reposShowCmd)
	reposCmd.AddCommand(reposAutoSelectCmd)
	rootCmd.AddCommand(reposCmd)
}

func reposListRun(cmd *cobra.Command, newOnly bool) error {
	ctx := cmdContext(cmd)
	syncer, err := getSyncer()
	if err != nil {
		return err
	}
	cfgStore, err := getConfigStore()
	if err != nil {
		return err
	}
	cfg, err := cfgStore.Config(ctx)
	if err != nil {
		return err
	}

	res, err := syncer.AllRepos(ctx)
	if err != nil {
		return err
	}
	repos := res.Repos
	if newOnly {
		repos = res.NewRepos
	}
	if len(repos) == 0 {
		if newOnly {
			ui.Info("No new repositories")
		} else {
			ui.Info("No repositories found")
		}
		return nil
	}

	selected := nameSet(cfg.SelectedRepos)
	featured := nameSet(cfg.FeaturedRepos)
	hidden := nameSet(cfg.HiddenRepos)

	table := ui.Table([]string{"Name", "Language", "Stars", "Updated", "Selected", "Featured", "Hidden"})
	for _, r := range repos {
		name := r.Name
		if r.Archived {
			name += " (archived)"
		}
		_ = table.Append([]string{
			output.Cyan(name),
			r.Language,
			output.StarsColor(r.Stars),
			r.UpdatedAt.Format("2006-01-02"),
			output.Mark(selected[r.Name]),
			output.Mark(featured[r.Name]),
			output.Mark(hidden[r.Name]),
		})
	}
	return table.Render()
}

func reposShowRun(cmd *cobra.Command, name string) error {
	syncer, err := getSyncer()
	if err != nil {
		return err
	}
	d, err := syncer.RepoDetail(cmdContext(cmd), name)
	if github.IsNotFound(err) {
		return fmt.Errorf("repository %q not found", name)
	}
	if err != nil {
		return err
	}

	title := d.Name
	if d.Archived {
		title += " (archived)"
	}
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Name:", output.Cyan(title))
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Description:", orNone(d.Description))
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Language:", orNone(d.Language))
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Stars:", output.StarsColor(d.Stars))
	fmt.Fprintf(ui.Out, "  %-14s %d\n", "Forks:", d.Forks)
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Topics:", listOrNone(d.Topics))
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Updated:", d.UpdatedAt.Format("2006-01-02"))
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "URL:", d.URL)
	if d.Homepage != "" {
		fmt.Fprintf(ui.Out, "  %-14s %s\n", "Homepage:", d.Homepage)
	}
	if d.Participation == nil {
		fmt.Fprintf(ui.Out, "  %-14s %s\n", "Commits:", "(not computed yet)")
		return nil
	}
	all, owner := d.Participation.All, d.Participation.Owner
	fmt.Fprintf(ui.Out, "  %-14s %d in 4 weeks, %d in a year (%d by the owner)\n", "Commits:",
		sumTail(all, 4), sumTail(all, len(all)), sumTail(owner, len(owner)))
	return nil
}

// sumTail adds the last n weekly counts.
func sumTail(weeks []int, n int) int {
	total := 0
	for i := max(len(weeks)-n, 0); i < len(weeks); i++ {
		total += weeks[i]
	}
	return total
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func reposAutoSelectRun(cmd *cobra.Command) error {
	ctx := cmdContext(cmd)
	criteria := portfolio.SelectionCriteria{
		MinStars:           autoMinStars,
		IncludeRecent:      !autoNoRecent,
		PreferredLanguages: autoLanguages,
		MaxRepos:           autoMaxRepos,
	}

	syncer, err := getSyncer()
	if err != nil {
		return err
	}

	if dryRun {
		res, err := syncer.AllRepos(ctx)
		if err != nil {
			return err
		}
		names := portfolio.AutoSelect(res.Repos, criteria, time.Now())
		for _, name := range names {
			ui.DryRunMsg("Would select %s", name)
		}
		return nil
	}

	names, err := syncer.AutoSelect(ctx, criteria)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		ui.Info("No repositories matched")
		return nil
	}
	for _, name := range names {
		ui.VerboseLog("selected %s", name)
	}
	ui.Success("Selected %d repositories", len(names))
	return nil
}

func nameSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

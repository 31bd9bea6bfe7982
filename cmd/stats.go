package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var statsGitHub bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the visible projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun(cmd)
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsGitHub, "github", false, "Show GitHub profile statistics instead")
	rootCmd.AddCommand(statsCmd)
}

func statsRun(cmd *cobra.Command) error {
	ctx := cmdContext(cmd)

	if statsGitHub {
		src, err := newSource()
		if err != nil {
			return err
		}
		p := src.UserStats(ctx)
		if p == nil {
			if err := src.LastError(); err != nil {
				return fmt.Errorf("GitHub stats unavailable: %w", err)
			}
			return fmt.Errorf("GitHub stats unavailable")
		}
		fmt.Fprintf(ui.Out, "  %-14s %s\n", "Login:", p.Login)
		fmt.Fprintf(ui.Out, "  %-14s %d\n", "Public repos:", p.PublicRepos)
		fmt.Fprintf(ui.Out, "  %-14s %d\n", "Followers:", p.Followers)
		fmt.Fprintf(ui.Out, "  %-14s %d\n", "Stars:", p.TotalStars)
		fmt.Fprintf(ui.Out, "  %-14s %d\n", "Forks:", p.TotalForks)
		fmt.Fprintf(ui.Out, "  %-14s %s\n", "Languages:", listOrNone(p.Languages))
		fmt.Fprintf(ui.Out, "  %-14s %d in 30 days, %d in 90 days\n", "Active:", p.Activity.Last30Days, p.Activity.Last90Days)
		return nil
	}

	syncer, err := getSyncer()
	if err != nil {
		return err
	}
	res, err := syncer.Projects(ctx, nil, false)
	if err != nil {
		return err
	}
	s := res.Stats
	fmt.Fprintf(ui.Out, "  %-14s %d (%d featured)\n", "Projects:", s.Total, s.Featured)
	fmt.Fprintf(ui.Out, "  %-14s %d\n", "Stars:", s.TotalStars)
	fmt.Fprintf(ui.Out, "  %-14s %d\n", "Forks:", s.TotalForks)
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Categories:", counts(s.ByCategory))
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Status:", counts(s.ByStatus))
	fmt.Fprintf(ui.Out, "  %-14s %s\n", "Languages:", listOrNone(s.Languages))
	return nil
}

// counts renders a histogram as "a=1, b=2", sorted by key.
func counts(m map[string]int) string {
	if len(m) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, ", ")
}

package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/folio/internal/portfolio"
)

var shareBase string

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Build and inspect view share links",
}

var shareURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print a link reproducing the current featured, hidden and category choices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return shareURLRun(cmd)
	},
}

var shareParseCmd = &cobra.Command{
	Use:   "parse <url|query>",
	Short: "Decode the view carried by a share link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return shareParseRun(args[0])
	},
}

func init() {
	shareURLCmd.Flags().StringVar(&shareBase, "base", "http://localhost:8080", "Site base URL")

	shareCmd.AddCommand(shareURLCmd)
	shareCmd.AddCommand(shareParseCmd)
	rootCmd.AddCommand(shareCmd)
}

func shareURLRun(cmd *cobra.Command) error {
	cfg, err := getConfigStore()
	if err != nil {
		return err
	}
	link, err := cfg.GenerateSyncURL(cmdContext(cmd), strings.TrimRight(shareBase, "/"))
	if err != nil {
		return err
	}
	fmt.Fprintln(ui.Out, link)
	return nil
}

func shareParseRun(raw string) error {
	query := raw
	if i := strings.Index(raw, "?"); i >= 0 {
		query = raw[i+1:]
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}

	uc, err := portfolio.ParseURLConfig(q)
	if err != nil {
		return err
	}
	if uc == nil {
		ui.Info("No view override in %s", raw)
		return nil
	}

	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Featured:", listOrNone(uc.FeaturedRepos))
	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Hidden:", listOrNone(uc.HiddenRepos))
	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Categories:", listOrNone(uc.EnabledCategories))
	return nil
}

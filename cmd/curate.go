package cmd

import (
	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Choose which repositories appear on the site",
}

var selectAddCmd = &cobra.Command{
	Use:   "add <repo>...",
	Short: "Add repositories to the portfolio",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return selectRun(cmd, args, true)
	},
}

var selectRemoveCmd = &cobra.Command{
	Use:     "remove <repo>...",
	Aliases: []string{"rm"},
	Short:   "Remove repositories from the portfolio",
	Long:    "Remove repositories from the portfolio. They also stop being featured.",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return selectRun(cmd, args, false)
	},
}

var featureCmd = &cobra.Command{
	Use:   "feature <repo>",
	Short: "Toggle whether a repository is featured",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRun(cmd, args[0], "featured")
	},
}

var hideCmd = &cobra.Command{
	Use:   "hide <repo>",
	Short: "Toggle whether a repository is hidden",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRun(cmd, args[0], "hidden")
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category <name>",
	Short: "Toggle whether a category is shown",
	Long: `Toggle whether a category is shown.

Known categories: "Web Development", "Game Development", "3D Modeling",
"Mobile Development".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRun(cmd, args[0], "category")
	},
}

func init() {
	selectCmd.AddCommand(selectAddCmd)
	selectCmd.AddCommand(selectRemoveCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(featureCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(categoryCmd)
}

func selectRun(cmd *cobra.Command, names []string, add bool) error {
	ctx := cmdContext(cmd)
	cfg, err := getConfigStore()
	if err != nil {
		return err
	}

	for _, name := range names {
		if dryRun {
			if add {
				ui.DryRunMsg("Would select %s", name)
			} else {
				ui.DryRunMsg("Would unselect %s", name)
			}
			continue
		}
		if add {
			if err := cfg.AddSelectedRepo(ctx, name); err != nil {
				return err
			}
			ui.Success("Selected %s", name)
		} else {
			if err := cfg.RemoveSelectedRepo(ctx, name); err != nil {
				return err
			}
			ui.Success("Unselected %s", name)
		}
	}
	return nil
}

func toggleRun(cmd *cobra.Command, name, what string) error {
	ctx := cmdContext(cmd)
	cfg, err := getConfigStore()
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would toggle %s for %s", what, name)
		return nil
	}

	var on bool
	switch what {
	case "featured":
		on, err = cfg.ToggleFeaturedRepo(ctx, name)
	case "hidden":
		on, err = cfg.ToggleHiddenRepo(ctx, name)
	default:
		on, err = cfg.ToggleCategory(ctx, name)
	}
	if err != nil {
		return err
	}

	switch {
	case what == "category" && on:
		ui.Success("Showing %s", name)
	case what == "category":
		ui.Success("Hiding %s", name)
	case on:
		ui.Success("%s is now %s", name, what)
	default:
		ui.Success("%s is no longer %s", name, what)
	}
	return nil
}

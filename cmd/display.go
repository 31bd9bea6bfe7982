package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/folio/internal/models"
)

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Manage optional site sections",
}

var displaySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change display settings; omitted flags keep their value",
	Example: `  folio display set --show-topics=false
  folio display set --max-per-category 6
  folio display set --no-max`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return displaySetRun(cmd)
	},
}

func init() {
	addDisplaySetFlags(displaySetCmd)

	displayCmd.AddCommand(displaySetCmd)
	rootCmd.AddCommand(displayCmd)
}

func addDisplaySetFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("show-stats", true, "Show the stats section")
	f.Bool("show-languages", true, "Show languages on project cards")
	f.Bool("show-topics", true, "Show topics on project cards")
	f.Int("max-per-category", 0, "Maximum projects per category")
	f.Bool("no-max", false, "Remove the per-category limit")
	cmd.MarkFlagsMutuallyExclusive("max-per-category", "no-max")
}

func displaySetRun(cmd *cobra.Command) error {
	f := cmd.Flags()
	var patch models.DisplaySettingsPatch
	boolFlag := func(name string) *bool {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetBool(name)
		return &v
	}
	patch.ShowStats = boolFlag("show-stats")
	patch.ShowLanguages = boolFlag("show-languages")
	patch.ShowTopics = boolFlag("show-topics")
	if f.Changed("max-per-category") {
		v, _ := f.GetInt("max-per-category")
		patch.MaxProjectsPerCategory = &v
	}
	if noMax, _ := f.GetBool("no-max"); noMax {
		patch.ClearMaxProjectsPerCategory = true
	}

	if patch == (models.DisplaySettingsPatch{}) {
		ui.Warning("Nothing to change")
		return nil
	}
	if dryRun {
		ui.DryRunMsg("Would update display settings")
		return nil
	}

	cfg, err := getConfigStore()
	if err != nil {
		return err
	}
	ds, err := cfg.UpdateDisplaySettings(cmdContext(cmd), patch)
	if err != nil {
		return err
	}
	limit := "unlimited"
	if ds.MaxProjectsPerCategory != nil {
		limit = fmt.Sprint(*ds.MaxProjectsPerCategory)
	}
	ui.Success("Display: stats=%t languages=%t topics=%t max-per-category=%s",
		ds.ShowStats, ds.ShowLanguages, ds.ShowTopics, limit)
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/output"
)

var (
	customDescription string
	customLong        string
	customCategory    string
	customStatus      string
	customLink        string
	customTech        []string
	customImages      []string
	customFeatured    bool
)

var customCmd = &cobra.Command{
	Use:   "custom",
	Short: "Manage projects that are not GitHub repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return customListRun(cmd)
	},
}

var customAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a custom project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return customAddRun(cmd, args[0])
	},
}

var customRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a custom project by id",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return customRemoveRun(cmd, args[0])
	},
}

var customListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List custom projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return customListRun(cmd)
	},
}

func init() {
	f := customAddCmd.Flags()
	f.StringVarP(&customDescription, "description", "d", "", "Short description")
	f.StringVar(&customLong, "long", "", "Long description (defaults to the short one)")
	f.StringVarP(&customCategory, "category", "c", string(models.CategoryWeb), "Category")
	f.StringVarP(&customStatus, "status", "s", string(models.StatusCompleted), "Status")
	f.StringVarP(&customLink, "link", "l", "", "Project link")
	f.StringSliceVarP(&customTech, "tech", "t", nil, "Technologies")
	f.StringSliceVar(&customImages, "image", nil, "Image URLs")
	f.BoolVar(&customFeatured, "featured", false, "Feature the project")

	customCmd.AddCommand(customAddCmd)
	customCmd.AddCommand(customRemoveCmd)
	customCmd.AddCommand(customListCmd)
	rootCmd.AddCommand(customCmd)
}

func customAddRun(cmd *cobra.Command, name string) error {
	ctx := cmdContext(cmd)
	cfg, err := getConfigStore()
	if err != nil {
		return err
	}

	long := customLong
	if long == "" {
		long = customDescription
	}
	p := models.Repository{
		Name:            name,
		Description:     customDescription,
		LongDescription: long,
		Technologies:    nonNil(customTech),
		Link:            customLink,
		Status:          models.Status(customStatus),
		Category:        models.Category(customCategory),
		Featured:        customFeatured,
		Topics:          []string{},
		Images:          nonNil(customImages),
	}

	if dryRun {
		ui.DryRunMsg("Would add custom project %q (%s, %s)", name, p.Category, p.Status)
		return nil
	}

	stored, err := cfg.AddCustomProject(ctx, p)
	if err != nil {
		return err
	}
	ui.Success("Added custom project %s (%s)", stored.Name, stored.ID)
	return nil
}

func customRemoveRun(cmd *cobra.Command, id string) error {
	ctx := cmdContext(cmd)
	cfg, err := getConfigStore()
	if err != nil {
		return err
	}

	projects, err := cfg.CustomProjects(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, p := range projects {
		if p.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("custom project not found: %s", id)
	}

	if dryRun {
		ui.DryRunMsg("Would remove custom project %s", id)
		return nil
	}
	if err := cfg.RemoveCustomProject(ctx, id); err != nil {
		return err
	}
	ui.Success("Removed custom project %s", id)
	return nil
}

func customListRun(cmd *cobra.Command) error {
	cfg, err := getConfigStore()
	if err != nil {
		return err
	}
	projects, err := cfg.CustomProjects(cmdContext(cmd))
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		ui.Info("No custom projects")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Category", "Status", "Featured", "Link"})
	for _, p := range projects {
		_ = table.Append([]string{
			p.ID,
			output.Cyan(p.Name),
			string(p.Category),
			output.StatusColor(string(p.Status)),
			output.Mark(p.Featured),
			p.Link,
		})
	}
	return table.Render()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

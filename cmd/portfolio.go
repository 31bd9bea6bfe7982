package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/folio/internal/output"
	"github.com/joescharf/folio/internal/portfolio"
	"github.com/joescharf/folio/internal/refresh"
)

var (
	exportOut  string
	showJSON   bool
	resetForce bool
)

var portfolioCmd = &cobra.Command{
	Use:     "portfolio",
	Aliases: []string{"pf"},
	Short:   "Show, export, import or reset the portfolio configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return portfolioShowRun(cmd)
	},
}

var portfolioShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the portfolio configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return portfolioShowRun(cmd)
	},
}

var portfolioExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configuration as indented JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return portfolioExportRun(cmd)
	},
}

var portfolioImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace the configuration with a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return portfolioImportRun(cmd, args[0])
	},
}

var portfolioResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return portfolioResetRun(cmd)
	},
}

func init() {
	portfolioShowCmd.Flags().BoolVar(&showJSON, "json", false, "Print the raw configuration as JSON")
	portfolioExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to file instead of stdout")
	portfolioResetCmd.Flags().BoolVar(&resetForce, "force", false, "Reset without confirmation")

	portfolioCmd.AddCommand(portfolioShowCmd)
	portfolioCmd.AddCommand(portfolioExportCmd)
	portfolioCmd.AddCommand(portfolioImportCmd)
	portfolioCmd.AddCommand(portfolioResetCmd)
	rootCmd.AddCommand(portfolioCmd)
}

func portfolioShowRun(cmd *cobra.Command) error {
	ctx := cmdContext(cmd)
	cfgStore, err := getConfigStore()
	if err != nil {
		return err
	}
	cfg, err := cfgStore.Config(ctx)
	if err != nil {
		return err
	}

	if showJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	lastSync := "never"
	if cfg.LastSync != nil {
		lastSync = msTime(*cfg.LastSync).Format("2006-01-02 15:04:05")
	}
	due, err := cfgStore.ShouldAutoSync(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Selected:", listOrNone(cfg.SelectedRepos))
	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Featured:", listOrNone(cfg.FeaturedRepos))
	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Hidden:", listOrNone(cfg.HiddenRepos))
	fmt.Fprintf(ui.Out, "  %-12s %s\n", "Categories:", listOrNone(portfolio.EnabledCategories(cfg)))
	fmt.Fprintf(ui.Out, "  %-12s %d\n", "Custom:", len(cfg.CustomProjects))
	fmt.Fprintf(ui.Out, "  %-12s %s (auto-sync %t, due %t)\n", "Last sync:", lastSync, cfg.AutoSync, due)
	return nil
}

func portfolioExportRun(cmd *cobra.Command) error {
	cfgStore, err := getConfigStore()
	if err != nil {
		return err
	}
	text, err := cfgStore.Export(cmdContext(cmd))
	if err != nil {
		return err
	}

	if exportOut == "" {
		fmt.Fprintln(ui.Out, text)
		return nil
	}
	if dryRun {
		ui.DryRunMsg("Would write configuration to %s", exportOut)
		return nil
	}
	if err := os.WriteFile(exportOut, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	ui.Success("Exported configuration to %s", exportOut)
	return nil
}

func portfolioImportRun(cmd *cobra.Command, path string) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open import: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	text := strings.TrimSpace(string(data))

	if !json.Valid([]byte(text)) {
		return fmt.Errorf("import: %s is not valid JSON", path)
	}
	if dryRun {
		ui.DryRunMsg("Would import %d bytes of configuration", len(text))
		return nil
	}

	cfgStore, err := getConfigStore()
	if err != nil {
		return err
	}
	if err := cfgStore.Import(cmdContext(cmd), text); err != nil {
		return err
	}
	ui.Success("Imported configuration")
	return nil
}

func portfolioResetRun(cmd *cobra.Command) error {
	if dryRun {
		ui.DryRunMsg("Would reset the portfolio configuration to defaults")
		return nil
	}
	if !resetForce {
		return fmt.Errorf("reset discards selections and custom projects; rerun with --force")
	}
	cfgStore, err := getConfigStore()
	if err != nil {
		return err
	}
	if _, err := cfgStore.Reset(cmdContext(cmd)); err != nil {
		return err
	}
	ui.Success("Portfolio configuration reset")
	return nil
}

// printProjects renders a pipeline result as a table.
func printProjects(res *refresh.Result) error {
	table := ui.Table([]string{"Name", "Category", "Status", "Stars", "Featured", "Technologies"})
	for _, p := range res.Projects {
		name := p.Name
		if p.IsCustom {
			name += " (custom)"
		}
		_ = table.Append([]string{
			output.Cyan(name),
			string(p.Category),
			output.StatusColor(string(p.Status)),
			output.StarsColor(p.Stars),
			output.Mark(p.Featured),
			strings.Join(p.Technologies, ", "),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}
	if res.Error != "" {
		ui.Warning("GitHub: %s", res.Error)
	}
	return nil
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

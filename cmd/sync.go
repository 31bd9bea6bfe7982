package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh projects, repositories and profile stats from GitHub",
	RunE: func(cmd *cobra.Command, args []string) error {
		return syncRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func syncRun(cmd *cobra.Command) error {
	if dryRun {
		ui.DryRunMsg("Would sync with GitHub")
		return nil
	}
	syncer, err := getSyncer()
	if err != nil {
		return err
	}
	res, err := syncer.Sync(cmdContext(cmd))
	if err != nil {
		return err
	}

	ui.Success("Synced %d projects from %d repositories at %s",
		len(res.Projects.Projects), len(res.Repos.Repos),
		msTime(res.Projects.LastSync).Format("15:04:05"))
	if n := len(res.Repos.NewRepos); n > 0 {
		ui.Info("%d new repositories; see 'folio repos new'", n)
	}
	if res.Projects.Error != "" {
		ui.Warning("GitHub: %s", res.Projects.Error)
	}
	return nil
}

func msTime(ms int64) time.Time {
	return time.UnixMilli(ms).Local()
}

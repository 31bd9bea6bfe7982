package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/folio/internal/github"
	"github.com/joescharf/folio/internal/output"
	"github.com/joescharf/folio/internal/portfolio"
	"github.com/joescharf/folio/internal/refresh"
	"github.com/joescharf/folio/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI
	db *store.SQLiteDB

	verbose bool
	dryRun  bool
)

// newSource builds the remote repository source, replaceable in tests.
var newSource = defaultSource

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Portfolio back end - GitHub projects, curation and share links",
	Long: `folio serves a personal portfolio site and curates what it shows.
It pulls repositories from GitHub, keeps the selection of featured, hidden
and custom projects, and builds share links for particular views.

Running bare 'folio' prints the projects the site currently shows.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/folio/config.yaml)")
}

func initConfig() {
	configDir, err := configDirFunc()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
		os.Exit(1)
	}

	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FOLIO")
	viper.AutomaticEnv()
	setDefaults(configDir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults(configDir string) {
	viper.SetDefault("state_dir", configDir)
	viper.SetDefault("db_path", filepath.Join(configDir, "folio.db"))
	viper.SetDefault("github.owner", github.DefaultOwner)
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.base_url", "")
	viper.SetDefault("github.cache_ttl", github.DefaultCacheTTL)
	viper.SetDefault("admin.password", "")
	viper.SetDefault("admin.session_timeout", 4*time.Hour)
	viper.SetDefault("contact.webhook_url", "")
	viper.SetDefault("serve.port", 8080)
	viper.SetDefault("serve.log_file", "")
	viper.SetDefault("serve.rate_limit", 10)
	viper.SetDefault("serve.allowed_origins", []string{})
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The database opens lazily, so config and version work without one.
}

// rootRun handles `folio` with no subcommand: print the visible projects.
func rootRun(cmd *cobra.Command) error {
	syncer, err := getSyncer()
	if err != nil {
		return cmd.Help()
	}
	res, err := syncer.Projects(cmdContext(cmd), nil, false)
	if err != nil {
		return err
	}
	if len(res.Projects) == 0 {
		ui.Info("No projects selected yet. Try 'folio repos new' and 'folio select add <name>'.")
		return nil
	}
	return printProjects(res)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// getDB returns the shared database, opening and migrating it on first call.
func getDB() (*store.SQLiteDB, error) {
	if db != nil {
		return db, nil
	}

	s, err := store.OpenSQLite(viper.GetString("db_path"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	db = s
	return db, nil
}

// getConfigStore returns the portfolio record over the durable namespace.
func getConfigStore() (*portfolio.ConfigStore, error) {
	d, err := getDB()
	if err != nil {
		return nil, err
	}
	return portfolio.NewConfigStore(d.Namespace(store.NamespaceLocal), portfolio.WithLogger(cliLogger())), nil
}

// getSyncer wires the config store to the remote source.
func getSyncer() (*refresh.Syncer, error) {
	cfg, err := getConfigStore()
	if err != nil {
		return nil, err
	}
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	return refresh.NewSyncer(cfg, src, cliLogger()), nil
}

func defaultSource() (refresh.RepoSource, error) {
	opts := []github.Option{
		github.WithCacheTTL(viper.GetDuration("github.cache_ttl")),
		github.WithLogger(cliLogger()),
	}
	if token := viper.GetString("github.token"); token != "" {
		opts = append(opts, github.WithToken(token))
	}
	if base := viper.GetString("github.base_url"); base != "" {
		opts = append(opts, github.WithBaseURL(base))
	}
	c, err := github.NewClient(viper.GetString("github.owner"), opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// cliLogger keeps library warnings quiet unless --verbose is set.
func cliLogger() *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

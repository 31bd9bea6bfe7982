package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "folio"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage folio configuration.

Running bare 'folio config' is the same as 'folio config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# folio configuration
# See: folio config show (for effective values and sources)

# State/data directory (default: ~/.config/folio)
# state_dir: {{ .StateDir }}

# SQLite database path (default: ~/.config/folio/folio.db)
# db_path: {{ .DBPath }}

# GitHub
github:
  # Account whose public repositories make up the portfolio
  owner: "{{ .GitHubOwner }}"

  # Optional token; raises the API rate limit
  token: ""

  # How long API responses are reused (default: 5m)
  cache_ttl: {{ .GitHubCacheTTL }}

# Admin page
admin:
  # Password for the admin page. This is a convenience gate, not security:
  # anyone who can read this file or the running process can see it.
  password: ""

  # Admin session lifetime, refreshed on each check (default: 4h)
  session_timeout: {{ .AdminSessionTimeout }}

# Contact form
contact:
  # Chat webhook that receives contact form submissions
  webhook_url: "{{ .ContactWebhookURL }}"

# HTTP server
serve:
  port: {{ .ServePort }}

  # Rotating JSON log file; empty logs to stderr
  log_file: "{{ .ServeLogFile }}"

  # Login and contact requests per minute per client IP
  rate_limit: {{ .ServeRateLimit }}
`

type configTemplateData struct {
	StateDir            string
	DBPath              string
	GitHubOwner         string
	GitHubCacheTTL      time.Duration
	AdminSessionTimeout time.Duration
	ContactWebhookURL   string
	ServePort           int
	ServeLogFile        string
	ServeRateLimit      int
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:            viper.GetString("state_dir"),
		DBPath:              viper.GetString("db_path"),
		GitHubOwner:         viper.GetString("github.owner"),
		GitHubCacheTTL:      viper.GetDuration("github.cache_ttl"),
		AdminSessionTimeout: viper.GetDuration("admin.session_timeout"),
		ContactWebhookURL:   viper.GetString("contact.webhook_url"),
		ServePort:           viper.GetInt("serve.port"),
		ServeLogFile:        viper.GetString("serve.log_file"),
		ServeRateLimit:      viper.GetInt("serve.rate_limit"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
	// Secret values are masked in `config show`.
	Secret bool
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "FOLIO_STATE_DIR"},
	{Key: "db_path", EnvVar: "FOLIO_DB_PATH"},
	{Key: "github.owner", EnvVar: "FOLIO_GITHUB_OWNER"},
	{Key: "github.token", EnvVar: "FOLIO_GITHUB_TOKEN", Secret: true},
	{Key: "github.base_url", EnvVar: "FOLIO_GITHUB_BASE_URL"},
	{Key: "github.cache_ttl", EnvVar: "FOLIO_GITHUB_CACHE_TTL"},
	{Key: "admin.password", EnvVar: "FOLIO_ADMIN_PASSWORD", Secret: true},
	{Key: "admin.session_timeout", EnvVar: "FOLIO_ADMIN_SESSION_TIMEOUT"},
	{Key: "contact.webhook_url", EnvVar: "FOLIO_CONTACT_WEBHOOK_URL", Secret: true},
	{Key: "serve.port", EnvVar: "FOLIO_SERVE_PORT"},
	{Key: "serve.log_file", EnvVar: "FOLIO_SERVE_LOG_FILE"},
	{Key: "serve.rate_limit", EnvVar: "FOLIO_SERVE_RATE_LIMIT"},
	{Key: "serve.allowed_origins", EnvVar: "FOLIO_SERVE_ALLOWED_ORIGINS"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		if k.Secret {
			val = maskSecret(viper.GetString(k.Key))
		}
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-24s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// maskSecret shows only whether a secret is set.
func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	return "********"
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'folio config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}

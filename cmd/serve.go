package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/joescharf/folio/internal/api"
	"github.com/joescharf/folio/internal/auth"
	"github.com/joescharf/folio/internal/contact"
	"github.com/joescharf/folio/internal/daemon"
	"github.com/joescharf/folio/internal/refresh"
	webui "github.com/joescharf/folio/internal/ui"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portfolio API and site server",
	Long: `Start an HTTP server with the JSON API and the embedded site.
By default it listens on port 8080. Use --port to change it.

The server syncs with GitHub on startup and then on the configured
interval while auto-sync is enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmdContext(cmd))
	},
}

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the background server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

func init() {
	serveCmd.AddCommand(serveStartCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)

	serveCmd.PersistentFlags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("serve.port", serveCmd.PersistentFlags().Lookup("port"))
}

func pidFile() *daemon.PIDFile {
	return daemon.InDir(viper.GetString("state_dir"))
}

// serveLogPath is where a background server's stdout and stderr go.
func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "folio-serve.log")
}

func serveRun(ctx context.Context) error {
	pf := pidFile()
	if err := pf.Acquire(); err != nil {
		return err
	}
	defer func() { _ = pf.Release() }()

	logger := newServeLogger(viper.GetString("serve.log_file"), os.Stderr)
	slog.SetDefault(logger)

	handler, syncer, err := buildServer(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("serve.port")),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if _, err := syncer.Initial(ctx); err != nil {
		logger.Warn("initial sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return syncer.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("serving", "addr", srv.Addr, "pid", os.Getpid())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildServer wires the API from configuration.
func buildServer(logger *slog.Logger) (http.Handler, *refresh.Syncer, error) {
	cfg, err := getConfigStore()
	if err != nil {
		return nil, nil, err
	}
	src, err := newSource()
	if err != nil {
		return nil, nil, err
	}
	syncer := refresh.NewSyncer(cfg, src, logger)

	site, err := webui.Handler()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize UI handler: %w", err)
	}

	sessions := auth.NewSessions(0,
		auth.WithSecret(viper.GetString("admin.password")),
		auth.WithSessionTimeout(viper.GetDuration("admin.session_timeout")),
	)

	server := api.NewServer(api.Deps{
		Config:         cfg,
		Syncer:         syncer,
		Stats:          src,
		Sessions:       sessions,
		Contact:        contact.NewNotifier(viper.GetString("contact.webhook_url")),
		Logger:         logger,
		RateLimit:      viper.GetInt("serve.rate_limit"),
		AllowedOrigins: viper.GetStringSlice("serve.allowed_origins"),
		UI:             site,
	})
	return server.Router(), syncer, nil
}

// newServeLogger returns a JSON logger writing to a rotating file when
// path is set, or to fallback otherwise.
func newServeLogger(path string, fallback io.Writer) *slog.Logger {
	w := fallback
	if path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func serveStartRun() error {
	pf := pidFile()
	if pid, running := pf.IsRunning(); running {
		return fmt.Errorf("folio serve is already running (pid %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	args := []string{"serve", "--port", fmt.Sprint(viper.GetInt("serve.port"))}
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}

	logPath := serveLogPath()
	if dryRun {
		ui.DryRunMsg("Would run %s %v, logging to %s", exe, args, logPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setDaemonAttrs(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	ui.Success("Started folio serve (pid %d) on port %d", child.Process.Pid, viper.GetInt("serve.port"))
	ui.VerboseLog("Logging to %s", logPath)
	return child.Process.Release()
}

func serveStopRun() error {
	pf := pidFile()
	pid, running := pf.IsRunning()
	if !running {
		return fmt.Errorf("folio serve is not running")
	}
	if dryRun {
		ui.DryRunMsg("Would stop folio serve (pid %d)", pid)
		return nil
	}

	if err := pf.Stop(); err != nil {
		return fmt.Errorf("stop pid %d: %w", pid, err)
	}
	deadline := time.Now().Add(shutdownTimeout + time.Second)
	for time.Now().Before(deadline) {
		if _, alive := pf.IsRunning(); !alive {
			_ = pf.Release()
			ui.Success("Stopped folio serve (pid %d)", pid)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	ui.Warning("folio serve did not exit in time, killing pid %d", pid)
	if err := pf.Signal(sigKILL()); err != nil {
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}
	return pf.Release()
}

func serveStatusRun() error {
	pid, running := pidFile().IsRunning()
	if !running {
		ui.Info("folio serve is not running")
		return nil
	}
	ui.Success("folio serve is running (pid %d)", pid)
	ui.VerboseLog("Log file: %s", serveLogPath())
	return nil
}

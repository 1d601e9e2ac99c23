package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/config"
	"github.com/blackwell-systems/salesprofile/internal/scheduler"
	"github.com/blackwell-systems/salesprofile/internal/server"
	"github.com/blackwell-systems/salesprofile/internal/watcher"
)

var (
	serveAddr    string
	servePIDFile string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports as a JSON API",
	Long: `Start a read-only JSON API over the sales database.

Endpoints:
  GET /healthz
  GET /clients?group=
  GET /clients/{client}/profile?month=&anchor=&min_co=&limit=
  GET /clients/{client}/churn
  GET /churn?group=&risk=
  GET /products
  GET /products/{product}/profile?month=&group_below=
  GET /top-clients?group=&percent=

The config file is watched: edits to the analysis settings take effect
without a restart. Database settings and schedules need a restart.

Configured schedules (see 'salesprofile schedules') export reports while
the server runs.`,
	Example: `  salesprofile serve
  salesprofile serve --addr 127.0.0.1:9090
  salesprofile serve stop`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running server",
	Args:  cobra.NoArgs,
	RunE:  runServeStop,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&servePIDFile, "pid-file", "", "PID file (default: $XDG_CONFIG_HOME/salesprofile/serve.pid)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not reload settings when the config file changes")

	serveCmd.AddCommand(serveStopCmd)
	RootCmd.AddCommand(serveCmd)
}

// getPIDFile returns the PID file path, using the flag value or default.
func getPIDFile() (string, error) {
	if servePIDFile != "" {
		return servePIDFile, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "serve.pid"), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	addr := serveAddr
	if addr == "" {
		addr = s.cfg.Server.Addr
	}

	pidFile, err := getPIDFile()
	if err != nil {
		return err
	}
	if err := watcher.WritePIDFile(pidFile); err != nil {
		return err
	}
	defer watcher.RemovePIDFile(pidFile)

	srv := server.New(s.analyzer, s.cfg.Server.AllowedOrigins, s.log)

	if len(s.cfg.Schedules) > 0 {
		sched := scheduler.New(s.log)
		for _, job := range scheduleJobs(s.cfg, srv.Analyzer, s.log) {
			if err := sched.Add(job); err != nil {
				return err
			}
		}
		sched.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(ctx)
		}()
	}

	if !serveNoWatch {
		w, err := startConfigWatcher(s, srv)
		if err != nil {
			s.log.Warn("config reload disabled", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (PID %d)\n", addr, os.Getpid())
	return srv.ListenAndServe(ctx, addr)
}

// startConfigWatcher swaps in a new Analyzer whenever the config file's
// analysis settings change.
func startConfigWatcher(s *session, srv *server.Server) (*watcher.Watcher, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	w, err := watcher.New(path, func() error {
		return reloadAnalyzer(s, srv)
	}, s.log)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

func reloadAnalyzer(s *session, srv *server.Server) error {
	next, err := loadConfig()
	if err != nil {
		return err
	}
	if next.Database != s.cfg.Database {
		s.log.Warn("database settings changed; restart the server to apply them")
	}
	if !slices.Equal(next.Schedules, s.cfg.Schedules) {
		s.log.Warn("schedules changed; restart the server to apply them")
	}
	opts, err := analyzerOptions(next)
	if err != nil {
		return err
	}

	s.tables.Purge()
	srv.Swap(analyzer.New(s.tables, opts, s.log))
	s.log.Info("analysis settings applied",
		zap.String("group", opts.Group),
		zap.Float64("alpha", opts.Alpha),
		zap.Int("horizon", opts.Horizon))
	return nil
}

func runServeStop(cmd *cobra.Command, args []string) error {
	pidFile, err := getPIDFile()
	if err != nil {
		return err
	}
	running, err := watcher.IsRunning(pidFile)
	if err != nil {
		return err
	}
	if !running {
		fmt.Fprintln(cmd.OutOrStdout(), "Server is not running.")
		return nil
	}
	if err := watcher.Stop(pidFile); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Stop signal sent.")
	return nil
}

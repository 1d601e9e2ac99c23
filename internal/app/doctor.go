package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/config"
	"github.com/blackwell-systems/salesprofile/internal/store"
	"github.com/blackwell-systems/salesprofile/internal/watcher"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues and check setup",
	Long: `Runs diagnostic checks on your salesprofile setup.

Checks:
  • Config file loads and validates
  • Database is reachable and holds sales data
  • Month labels in the data match the configured calendar
  • Whether the API server is running`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Running salesprofile diagnostics...")
	fmt.Fprintln(out)

	criticalIssues := 0
	warningIssues := 0

	// Check 1: config
	path, err := getConfigPath()
	if err != nil {
		fmt.Fprintln(out, "✗ Config path error:", err)
		criticalIssues++
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "⚠ No config file at", path, "(using defaults)")
		fmt.Fprintln(out, "  Action: Run 'salesprofile config init'")
		warningIssues++
	} else {
		fmt.Fprintln(out, "✓ Config file found:", path)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(out, "✗ Config is invalid:", err)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", criticalIssues+1, warningIssues)
		return fmt.Errorf("diagnostics failed")
	}
	fmt.Fprintf(out, "✓ Config is valid (group %s, %d-month calendar)\n", cfg.Analysis.Group, mustCalendarLen(cfg))

	// Check 2: database reachable
	dsn, err := getDBPath(cfg)
	if err != nil {
		fmt.Fprintln(out, "✗ Database path error:", err)
		criticalIssues++
	} else if cfg.Database.Driver == store.DriverSQLite && dsn != ":memory:" && !fileExists(dsn) {
		fmt.Fprintln(out, "✗ Database not found at:", dsn)
		fmt.Fprintln(out, "  Action: Run 'salesprofile import' to create a snapshot")
		criticalIssues++
	} else {
		st, err := store.Open(cfg.Database.Driver, dsn)
		if err != nil {
			fmt.Fprintln(out, "✗ Cannot open database:", err)
			criticalIssues++
		} else {
			defer st.Close()
			st.SetTimeout(cfg.Database.Timeout())
			fmt.Fprintf(out, "✓ Database is accessible (%s)\n", cfg.Database.Driver)

			c, w := checkData(cmd.Context(), out, st, cfg)
			criticalIssues += c
			warningIssues += w
		}
	}

	// Check 5: server
	pidFile, err := getPIDFile()
	if err != nil {
		fmt.Fprintln(out, "⚠ Failed to get PID file path:", err)
		warningIssues++
	} else if running, err := watcher.IsRunning(pidFile); err != nil {
		fmt.Fprintln(out, "⚠ Failed to check server status:", err)
		warningIssues++
	} else if running {
		fmt.Fprintln(out, "✓ API server running")
	} else {
		fmt.Fprintln(out, "• API server not running (start it with 'salesprofile serve')")
	}

	fmt.Fprintln(out)
	if criticalIssues == 0 && warningIssues == 0 {
		fmt.Fprintln(out, "✓ All checks passed!")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  • List clients: salesprofile clients")
		fmt.Fprintln(out, "  • Find churn risk: salesprofile churn --all --risk High")
		return nil
	}

	if criticalIssues > 0 {
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", criticalIssues, warningIssues)
		return fmt.Errorf("diagnostics failed")
	}

	fmt.Fprintf(out, "Found %d warning(s). Reports will run but may be incomplete.\n", warningIssues)
	return nil
}

// checkData runs the row count and month label checks.
func checkData(ctx context.Context, out io.Writer, st *store.Store, cfg *config.Config) (critical, warnings int) {
	// Check 3: data present
	rows, err := st.CountRows(ctx)
	switch {
	case errors.Is(err, store.ErrNotInitialized):
		fmt.Fprintln(out, "✗ Sales tables are missing")
		fmt.Fprintln(out, "  Action: Run 'salesprofile import'")
		return 1, 0
	case err != nil:
		fmt.Fprintln(out, "✗ Cannot count rows:", err)
		return 1, 0
	case rows == 0:
		fmt.Fprintln(out, "✗ Sales tables are empty")
		fmt.Fprintln(out, "  Action: Run 'salesprofile import'")
		return 1, 0
	}
	fmt.Fprintf(out, "✓ %d rows across the sales tables\n", rows)

	// Check 4: month labels
	cal, err := cfg.MonthCalendar()
	if err != nil {
		fmt.Fprintln(out, "✗ Calendar error:", err)
		return 1, 0
	}
	labels, err := st.Months(ctx)
	if err != nil {
		fmt.Fprintln(out, "⚠ Cannot read month labels:", err)
		return 0, 1
	}
	var unknown []string
	for _, m := range labels {
		if !cal.Contains(m) {
			unknown = append(unknown, m)
		}
	}
	if len(unknown) > 0 {
		fmt.Fprintf(out, "⚠ %d month label(s) not in the calendar: %v\n", len(unknown), unknown)
		fmt.Fprintln(out, "  Rows for these months are left out of trends and forecasts.")
		fmt.Fprintln(out, "  Action: Set analysis.months in the config file")
		return 0, 1
	}
	fmt.Fprintf(out, "✓ %d month(s) of data, all in the calendar\n", len(labels))
	return 0, 0
}

func mustCalendarLen(cfg *config.Config) int {
	cal, err := cfg.MonthCalendar()
	if err != nil {
		return 0
	}
	return cal.Len()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

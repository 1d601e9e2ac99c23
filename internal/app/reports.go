package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/export"
	"github.com/blackwell-systems/salesprofile/internal/output"
)

var (
	reportsDir       string
	reportsPruneDays int
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List or prune exported report files",
	Long: `List the JSON and XLSX reports written with --format json --out or
--format xlsx, newest first. With --prune-days, delete reports older than
the given number of days instead.`,
	Example: `  salesprofile reports
  salesprofile reports --dir ./exports --prune-days 30`,
	Args: cobra.NoArgs,
	RunE: runReports,
}

func init() {
	reportsCmd.Flags().StringVar(&reportsDir, "dir", "", "export directory (default from config)")
	reportsCmd.Flags().IntVar(&reportsPruneDays, "prune-days", 0, "delete reports older than this many days")

	RootCmd.AddCommand(reportsCmd)
}

func runReports(cmd *cobra.Command, args []string) error {
	if reportsPruneDays < 0 {
		return fmt.Errorf("--prune-days must not be negative, got %d", reportsPruneDays)
	}

	dir := reportsDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Export.Dir
	}
	m := export.New(dir)
	out := cmd.OutOrStdout()

	if reportsPruneDays > 0 {
		n, err := m.Cleanup(time.Duration(reportsPruneDays) * 24 * time.Hour)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d report(s) older than %d day(s) from %s\n", n, reportsPruneDays, m.Dir())
		return nil
	}

	entries, err := m.List()
	if err != nil {
		return err
	}
	fmt.Fprint(out, output.RenderExports(entries, time.Now()))
	return nil
}

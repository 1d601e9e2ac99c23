package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/config"
	"github.com/blackwell-systems/salesprofile/internal/export"
	"github.com/blackwell-systems/salesprofile/internal/scheduler"
)

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "List scheduled report exports",
	Long: `List the report exports that 'salesprofile serve' runs on a schedule,
with the next time each one fires.

Schedules are configured in the config file:

  schedules:
    - name: weekly-churn
      cron: "0 6 * * 1"
      report: churn
      group: All
    - name: monthly-top
      cron: "@monthly"
      report: top_clients
      percent: 20
      format: json

Reports are written to export.dir, as xlsx unless format is json.`,
	Args: cobra.NoArgs,
	RunE: runSchedules,
}

func init() {
	RootCmd.AddCommand(schedulesCmd)
}

func runSchedules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(cfg.Schedules) == 0 {
		fmt.Fprintln(out, "No scheduled reports configured.")
		return nil
	}

	now := time.Now()
	for _, sc := range cfg.Schedules {
		next, err := scheduler.Next(sc.Cron, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-20s %-14s %-12s next %s\n",
			sc.Name, sc.Cron, sc.Report, next.Format("2006-01-02 15:04"))
	}
	return nil
}

// scheduleJobs turns the configured schedules into jobs. Each run uses the
// analyzer current at that moment, so reloaded settings apply.
func scheduleJobs(cfg *config.Config, current func() *analyzer.Analyzer, log *zap.Logger) []scheduler.Job {
	jobs := make([]scheduler.Job, 0, len(cfg.Schedules))
	m := export.New(cfg.Export.Dir)
	for _, sc := range cfg.Schedules {
		sc := sc
		jobs = append(jobs, scheduler.Job{
			Name:     sc.Name,
			Schedule: sc.Cron,
			Run: func(ctx context.Context) error {
				path, err := exportScheduled(ctx, current(), m, sc)
				if err != nil {
					return err
				}
				log.Info("report exported", zap.String("job", sc.Name), zap.String("path", path))
				return nil
			},
		})
	}
	return jobs
}

// exportScheduled builds the report named by sc and writes it with m.
func exportScheduled(ctx context.Context, a *analyzer.Analyzer, m *export.Manager, sc config.ScheduleConfig) (string, error) {
	var r report
	switch sc.Report {
	case config.ScheduleChurn:
		rows, err := a.ChurnScan(ctx, sc.Group, nil)
		if err != nil {
			return "", err
		}
		r = report{
			kind:   export.KindChurn,
			data:   rows,
			sheets: func() []export.Sheet { return export.ChurnSheets(rows) },
		}

	case config.ScheduleTopClients:
		percent := sc.Percent
		if percent == 0 {
			percent = defaultTopPercent
		}
		top, err := a.TopClients(ctx, analyzer.TopClientsRequest{Group: sc.Group, Percent: percent})
		if err != nil {
			return "", err
		}
		r = report{
			kind:   export.KindTopClients,
			data:   top,
			sheets: func() []export.Sheet { return export.TopClientsSheets(top) },
		}

	default:
		return "", fmt.Errorf("unknown scheduled report %q", sc.Report)
	}

	if strings.EqualFold(sc.Format, formatJSON) {
		return m.WriteJSON(r.kind, r.data)
	}
	return m.WriteXLSX(r.kind, r.sheets())
}

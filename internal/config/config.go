// Package config loads salesprofile settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/salesprofile/internal/months"
)

// Environment variables that override the file.
const (
	EnvDSN    = "SALESPROFILE_DSN"
	EnvDriver = "SALESPROFILE_DRIVER"
)

// FileName is the config file name inside Dir.
const FileName = "config.yaml"

// Dir returns the salesprofile config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/salesprofile if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "salesprofile"), nil
}

// DefaultPath returns the config file location inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Config is the full settings tree.
type Config struct {
	Database DatabaseConfig `yaml:"database" json:"database"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Export   ExportConfig   `yaml:"export" json:"export"`

	Schedules []ScheduleConfig `yaml:"schedules,omitempty" json:"schedules,omitempty"`
}

// DatabaseConfig selects the sales database.
type DatabaseConfig struct {
	Driver         string `yaml:"driver" json:"driver"`
	DSN            string `yaml:"dsn" json:"dsn"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	CacheSize      int    `yaml:"cache_size" json:"cache_size"`
}

// Timeout returns the per-query timeout, or zero for none.
func (d DatabaseConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// AnalysisConfig holds the heuristic parameters behind every report.
type AnalysisConfig struct {
	Group               string   `yaml:"group" json:"group"`
	Calendar            string   `yaml:"calendar" json:"calendar"`
	Months              []string `yaml:"months,omitempty" json:"months,omitempty"`
	Alpha               float64  `yaml:"alpha" json:"alpha"`
	Horizon             int      `yaml:"horizon" json:"horizon"`
	ChurnLowMultiple    float64  `yaml:"churn_low_multiple" json:"churn_low_multiple"`
	ChurnMediumMultiple float64  `yaml:"churn_medium_multiple" json:"churn_medium_multiple"`
	ParetoThreshold     float64  `yaml:"pareto_threshold" json:"pareto_threshold"`
	MinCoMonths         int      `yaml:"min_co_months" json:"min_co_months"`
	CrossSellLimit      int      `yaml:"cross_sell_limit" json:"cross_sell_limit"`
	GroupBelowPct       float64  `yaml:"group_below_pct" json:"group_below_pct"`
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Addr           string   `yaml:"addr" json:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// LogConfig configures diagnostics.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ExportConfig configures report files.
type ExportConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// Report kinds a schedule can export.
const (
	ScheduleChurn      = "churn"
	ScheduleTopClients = "top_clients"
)

// ScheduleConfig is a report that `serve` exports on a cron schedule.
type ScheduleConfig struct {
	Name    string  `yaml:"name" json:"name"`
	Cron    string  `yaml:"cron" json:"cron"`
	Report  string  `yaml:"report" json:"report"`
	Group   string  `yaml:"group,omitempty" json:"group,omitempty"`
	Percent float64 `yaml:"percent,omitempty" json:"percent,omitempty"`
	Format  string  `yaml:"format,omitempty" json:"format,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         "sqlite",
			TimeoutSeconds: 30,
			CacheSize:      256,
		},
		Analysis: AnalysisConfig{
			Group:               "DISTRIBUTORS",
			Calendar:            "default",
			Alpha:               0.4,
			Horizon:             3,
			ChurnLowMultiple:    1.5,
			ChurnMediumMultiple: 2.5,
			ParetoThreshold:     80,
			MinCoMonths:         1,
			CrossSellLimit:      5,
			GroupBelowPct:       3,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Export: ExportConfig{
			Dir: ".",
		},
	}
}

// Load reads the config file at path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDSN)); v != "" {
		c.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDriver)); v != "" {
		c.Database.Driver = v
	}
}

// Validate checks every setting is usable.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver %q must be sqlite, mysql or postgres", c.Database.Driver)
	}
	if c.Database.TimeoutSeconds < 0 {
		return fmt.Errorf("database.timeout_seconds must not be negative")
	}

	a := c.Analysis
	if !(a.Alpha > 0 && a.Alpha <= 1) {
		return fmt.Errorf("analysis.alpha must be in (0, 1], got %g", a.Alpha)
	}
	if a.Horizon < 1 {
		return fmt.Errorf("analysis.horizon must be at least 1, got %d", a.Horizon)
	}
	if a.ChurnLowMultiple <= 0 || a.ChurnMediumMultiple < a.ChurnLowMultiple {
		return fmt.Errorf("analysis churn multiples must satisfy 0 < low (%g) <= medium (%g)",
			a.ChurnLowMultiple, a.ChurnMediumMultiple)
	}
	if !(a.ParetoThreshold > 0 && a.ParetoThreshold <= 100) {
		return fmt.Errorf("analysis.pareto_threshold must be in (0, 100], got %g", a.ParetoThreshold)
	}
	if a.MinCoMonths < 1 {
		return fmt.Errorf("analysis.min_co_months must be at least 1, got %d", a.MinCoMonths)
	}
	if a.CrossSellLimit < 1 {
		return fmt.Errorf("analysis.cross_sell_limit must be at least 1, got %d", a.CrossSellLimit)
	}
	if a.GroupBelowPct < 0 || a.GroupBelowPct >= 100 {
		return fmt.Errorf("analysis.group_below_pct must be in [0, 100), got %g", a.GroupBelowPct)
	}
	if _, err := c.MonthCalendar(); err != nil {
		return err
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q must be console or json", c.Log.Format)
	}

	seen := make(map[string]bool, len(c.Schedules))
	for i, sc := range c.Schedules {
		if err := sc.validate(); err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
		if seen[sc.Name] {
			return fmt.Errorf("schedules[%d]: duplicate name %q", i, sc.Name)
		}
		seen[sc.Name] = true
	}
	return nil
}

func (sc ScheduleConfig) validate() error {
	if strings.TrimSpace(sc.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := cron.ParseStandard(sc.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", sc.Cron, err)
	}
	switch sc.Report {
	case ScheduleChurn, ScheduleTopClients:
	default:
		return fmt.Errorf("report %q must be %s or %s", sc.Report, ScheduleChurn, ScheduleTopClients)
	}
	switch sc.Format {
	case "", "json", "xlsx":
	default:
		return fmt.Errorf("format %q must be json or xlsx", sc.Format)
	}
	if sc.Percent < 0 || sc.Percent > 100 {
		return fmt.Errorf("percent must be between 0 and 100, got %g", sc.Percent)
	}
	return nil
}

// MonthCalendar returns the configured calendar. An explicit months list
// takes precedence over a named calendar.
func (c *Config) MonthCalendar() (months.Calendar, error) {
	if len(c.Analysis.Months) > 0 {
		cal, err := months.New(c.Analysis.Months...)
		if err != nil {
			return months.Calendar{}, fmt.Errorf("analysis.months: %w", err)
		}
		return cal, nil
	}
	cal, err := months.Named(c.Analysis.Calendar)
	if err != nil {
		return months.Calendar{}, fmt.Errorf("analysis.calendar: %w", err)
	}
	return cal, nil
}

// Write saves c to path as YAML, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

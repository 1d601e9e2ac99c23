package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/config"
	"github.com/blackwell-systems/salesprofile/internal/export"
	"github.com/blackwell-systems/salesprofile/internal/logging"
	"github.com/blackwell-systems/salesprofile/internal/output"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

// Output formats accepted by report commands.
const (
	formatTable = "table"
	formatJSON  = export.FormatJSON
	formatXLSX  = export.FormatXLSX
)

// defaultDBName is the SQLite snapshot file inside the config directory.
const defaultDBName = "salesprofile.db"

// defaultTopPercent is the share of clients `top` keeps.
const defaultTopPercent = 10

// getConfigPath returns the config file path, using the flag value or default.
func getConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config) error {
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg.Validate()
}

// getDBPath returns the DSN to open. An empty SQLite DSN resolves to the
// snapshot in the config directory.
func getDBPath(cfg *config.Config) (string, error) {
	if cfg.Database.DSN != "" || cfg.Database.Driver != store.DriverSQLite {
		if cfg.Database.DSN == "" {
			return "", fmt.Errorf("database.dsn is required for driver %s", cfg.Database.Driver)
		}
		return cfg.Database.DSN, nil
	}

	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return filepath.Join(dir, defaultDBName), nil
}

// analyzerOptions converts the analysis settings.
func analyzerOptions(cfg *config.Config) (analyzer.Options, error) {
	cal, err := cfg.MonthCalendar()
	if err != nil {
		return analyzer.Options{}, err
	}
	a := cfg.Analysis
	return analyzer.Options{
		Calendar: cal,
		Group:    a.Group,
		Alpha:    a.Alpha,
		Horizon:  a.Horizon,
		Churn: analyzer.ChurnThresholds{
			LowMultiple:    a.ChurnLowMultiple,
			MediumMultiple: a.ChurnMediumMultiple,
		},
		ParetoThreshold: a.ParetoThreshold,
		MinCoMonths:     a.MinCoMonths,
		CrossSellLimit:  a.CrossSellLimit,
	}, nil
}

// session bundles what a report command needs.
type session struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *store.Store
	tables   *store.Cached
	analyzer *analyzer.Analyzer
}

// openSession loads config, opens the database and builds an Analyzer.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	dsn, err := getDBPath(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	st.SetTimeout(cfg.Database.Timeout())

	tables, err := store.NewCached(st, cfg.Database.CacheSize)
	if err != nil {
		st.Close()
		return nil, err
	}

	opts, err := analyzerOptions(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	log.Debug("session opened",
		zap.String("driver", cfg.Database.Driver),
		zap.String("group", opts.Group),
		zap.Strings("calendar", opts.Calendar.Labels()))

	return &session{
		cfg:      cfg,
		log:      log,
		store:    st,
		tables:   tables,
		analyzer: analyzer.New(tables, opts, log),
	}, nil
}

func (s *session) Close() {
	s.log.Sync()
	s.store.Close()
}

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatXLSX:
		return nil
	}
	return fmt.Errorf("invalid format %q (must be table, json or xlsx)", format)
}

// report describes one result in every output format.
type report struct {
	kind   string
	data   any
	text   func() string
	sheets func() []export.Sheet
}

// emit writes r in format. JSON goes to stdout unless outDir is set; XLSX
// always goes to a file in outDir, or the configured export directory.
func emit(w io.Writer, cfg *config.Config, format, outDir string, r report) error {
	dir := outDir
	if dir == "" {
		dir = cfg.Export.Dir
	}

	switch format {
	case formatTable:
		fmt.Fprint(w, r.text())
		return nil

	case formatJSON:
		if outDir == "" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(r.data)
		}
		path, err := export.New(dir).WriteJSON(r.kind, r.data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Report written to %s\n", path)
		return nil

	case formatXLSX:
		if r.sheets == nil {
			return fmt.Errorf("%s reports cannot be exported as xlsx", r.kind)
		}
		path, err := export.New(dir).WriteXLSX(r.kind, r.sheets())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Report written to %s\n", path)
		return nil
	}
	return validateFormat(format)
}

// startSpinner shows a spinner on an interactive stderr and returns its stop
// function.
func startSpinner(message string) func() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}
	sp := output.NewSpinner(message)
	sp.Start()
	return sp.Stop
}

// exactArg returns the single positional argument, trimmed.
func exactArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("expected exactly one %s name", what)
	}
	return strings.TrimSpace(args[0]), nil
}

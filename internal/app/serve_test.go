package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/salesprofile/internal/server"
)

func TestServeCommandFlags(t *testing.T) {
	for _, name := range []string{"addr", "no-watch"} {
		if serveCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag on serve", name)
		}
	}
	if serveCmd.PersistentFlags().Lookup("pid-file") == nil {
		t.Error("expected persistent --pid-file flag on serve")
	}

	found := false
	for _, c := range serveCmd.Commands() {
		if c.Name() == "stop" {
			found = true
		}
	}
	if !found {
		t.Error("expected 'serve stop' to be registered")
	}
}

func TestGetPIDFile(t *testing.T) {
	dir := isolate(t)
	defer func() { servePIDFile = "" }()

	got, err := getPIDFile()
	if err != nil {
		t.Fatalf("getPIDFile: %v", err)
	}
	if want := filepath.Join(dir, "salesprofile", "serve.pid"); got != want {
		t.Errorf("default PID file = %q, want %q", got, want)
	}

	servePIDFile = "/tmp/custom.pid"
	if got, _ := getPIDFile(); got != "/tmp/custom.pid" {
		t.Errorf("PID file = %q, want /tmp/custom.pid", got)
	}
}

func TestServeStop_NotRunning(t *testing.T) {
	dir := isolate(t)

	out, err := runCLI(t, "serve", "stop", "--pid-file", filepath.Join(dir, "serve.pid"))
	if err != nil {
		t.Fatalf("serve stop: %v", err)
	}
	if !strings.Contains(out, "Server is not running") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestServeStop_StalePIDFile(t *testing.T) {
	dir := isolate(t)
	pidFile := filepath.Join(dir, "serve.pid")
	// PIDs this large are never allocated on Linux.
	if err := os.WriteFile(pidFile, []byte(fmt.Sprint(1<<30)), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := runCLI(t, "serve", "stop", "--pid-file", pidFile)
	if err != nil {
		t.Fatalf("serve stop: %v", err)
	}
	if !strings.Contains(out, "Server is not running") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("expected the stale PID file to be removed")
	}
}

func TestReloadAnalyzer_AppliesAnalysisSettings(t *testing.T) {
	dir := isolate(t)
	db := seedDB(t, dir)

	cfgFile := filepath.Join(dir, "serve.yaml")
	if err := os.WriteFile(cfgFile, []byte("analysis:\n  group: DISTRIBUTORS\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	configPath, dbDSN = cfgFile, db
	defer func() { configPath, dbDSN = "", "" }()

	s, err := openSession()
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	defer s.Close()

	srv := server.New(s.analyzer, nil, s.log)
	before := srv.Analyzer()

	if err := os.WriteFile(cfgFile, []byte("analysis:\n  group: RETAIL\n  horizon: 6\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := reloadAnalyzer(s, srv); err != nil {
		t.Fatalf("reloadAnalyzer: %v", err)
	}

	after := srv.Analyzer()
	if after == before {
		t.Fatal("expected a new analyzer after reload")
	}
	if got := after.Options(); got.Group != "RETAIL" || got.Horizon != 6 {
		t.Errorf("options after reload = group %q horizon %d, want RETAIL 6", got.Group, got.Horizon)
	}
	if s.tables.Len() != 0 {
		t.Errorf("expected the query cache to be purged, %d entries left", s.tables.Len())
	}
}

func TestReloadAnalyzer_InvalidConfigKeepsCurrent(t *testing.T) {
	dir := isolate(t)
	db := seedDB(t, dir)

	cfgFile := filepath.Join(dir, "serve.yaml")
	configPath, dbDSN = cfgFile, db
	defer func() { configPath, dbDSN = "", "" }()

	s, err := openSession()
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	defer s.Close()

	srv := server.New(s.analyzer, nil, s.log)
	before := srv.Analyzer()

	if err := os.WriteFile(cfgFile, []byte("analysis:\n  alpha: 0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := reloadAnalyzer(s, srv); err == nil {
		t.Fatal("expected an error for an invalid config")
	}
	if srv.Analyzer() != before {
		t.Error("analyzer should be unchanged after a failed reload")
	}
}

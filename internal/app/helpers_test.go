package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/salesprofile/internal/config"
	"github.com/blackwell-systems/salesprofile/internal/store"
	"github.com/blackwell-systems/salesprofile/internal/store/storetest"
)

// isolate points the config directory at a temp dir and clears environment
// overrides. It returns the temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(config.EnvDSN, "")
	t.Setenv(config.EnvDriver, "")
	t.Setenv("NO_COLOR", "1")
	return dir
}

// seedDB writes the storetest fixture into a SQLite file and returns its path.
func seedDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sales.db")

	st, err := store.New(path)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer st.Close()
	if err := st.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}

	ctx := context.Background()
	for _, c := range storetest.Customers {
		if err := st.InsertCustomer(ctx, c); err != nil {
			t.Fatalf("InsertCustomer: %v", err)
		}
	}
	for _, s := range storetest.Sales {
		if err := st.InsertSale(ctx, s); err != nil {
			t.Fatalf("InsertSale: %v", err)
		}
	}
	for _, cs := range storetest.CustomerSales {
		if err := st.InsertCustomerSale(ctx, cs); err != nil {
			t.Fatalf("InsertCustomerSale: %v", err)
		}
	}
	for _, rs := range storetest.RouteSales {
		if err := st.InsertRouteSale(ctx, rs); err != nil {
			t.Fatalf("InsertRouteSale: %v", err)
		}
	}
	return path
}

// resetFlags restores every flag in the command tree to its default, since
// flag values live in package variables shared across tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns what it wrote.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(RootCmd)

	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	// A nil slice would make cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	RootCmd.SetArgs(args)

	err := RootCmd.Execute()
	return buf.String(), err
}

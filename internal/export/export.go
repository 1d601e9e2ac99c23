// Package export writes salesprofile reports to disk as JSON envelopes or
// XLSX workbooks.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Report kinds.
const (
	KindClientProfile  = "client_profile"
	KindProductProfile = "product_profile"
	KindTopClients     = "top_clients"
	KindChurn          = "churn"
	KindManagers       = "managers"
	KindManagerProfile = "manager_profile"
)

const timestampLayout = "20060102_150405"

// Report is the JSON envelope around an exported report.
type Report struct {
	ReportID    string          `json:"report_id"`
	Kind        string          `json:"kind"`
	GeneratedAt time.Time       `json:"generated_at"`
	Data        json.RawMessage `json:"data"`
}

// Manager writes and lists exported reports in a directory.
type Manager struct {
	dir string
	now func() time.Time
}

// New creates a Manager rooted at dir.
func New(dir string) *Manager {
	if dir == "" {
		dir = "."
	}
	return &Manager{dir: dir, now: time.Now}
}

// Dir returns the export directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Filename returns the file name for a report of kind generated at t.
func Filename(kind, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", kind, t.Format(timestampLayout), ext)
}

// path picks a free file name for kind, appending a counter when a report of
// the same kind was already written within the same second.
func (m *Manager) path(kind, ext string, t time.Time) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	name := Filename(kind, ext, t)
	p := filepath.Join(m.dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		p = filepath.Join(m.dir, fmt.Sprintf("%s_%s_%d.%s", kind, t.Format(timestampLayout), i, ext))
	}
}

// WriteJSON wraps data in a Report envelope and writes it. It returns the
// path written.
func (m *Manager) WriteJSON(kind string, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s report: %w", kind, err)
	}

	now := m.now().UTC()
	rep := Report{
		ReportID:    uuid.NewString(),
		Kind:        kind,
		GeneratedAt: now,
		Data:        payload,
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report envelope: %w", err)
	}

	p, err := m.path(kind, FormatJSON, now)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return p, nil
}

// Load reads a JSON report written by WriteJSON.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse report JSON: %w", err)
	}
	if rep.ReportID == "" || rep.Kind == "" {
		return nil, fmt.Errorf("failed to parse report JSON: missing report_id or kind")
	}
	return &rep, nil
}

// Entry describes an exported file.
type Entry struct {
	Path    string
	Kind    string
	Format  string
	ModTime time.Time
}

// List returns the exported reports in the directory, newest first.
func (m *Manager) List() ([]Entry, error) {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	var out []Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(f.Name()), ".")
		if ext != FormatJSON && ext != FormatXLSX {
			continue
		}
		kind, ok := kindOf(f.Name())
		if !ok {
			continue
		}
		info, err := f.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", f.Name(), err)
		}
		out = append(out, Entry{
			Path:    filepath.Join(m.dir, f.Name()),
			Kind:    kind,
			Format:  ext,
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

// Cleanup removes exported reports older than maxAge and returns how many
// were deleted.
func (m *Manager) Cleanup(maxAge time.Duration) (int, error) {
	entries, err := m.List()
	if err != nil {
		return 0, err
	}

	cutoff := m.now().Add(-maxAge)
	deleted := 0
	for _, e := range entries {
		if !e.ModTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return deleted, fmt.Errorf("failed to delete export %s: %w", e.Path, err)
		}
		deleted++
	}
	return deleted, nil
}

// kindOf recovers the report kind from a file name produced by Filename.
func kindOf(name string) (string, bool) {
	for _, k := range []string{KindClientProfile, KindProductProfile, KindTopClients, KindChurn, KindManagers, KindManagerProfile} {
		if strings.HasPrefix(name, k+"_") {
			return k, true
		}
	}
	return "", false
}

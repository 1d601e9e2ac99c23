package output

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/blackwell-systems/salesprofile/internal/export"
)

// RenderExports lists exported report files with their age relative to now.
func RenderExports(entries []export.Entry, now time.Time) string {
	if len(entries) == 0 {
		return "No exported reports found.\n"
	}

	var sb strings.Builder
	tw := newTable(&sb, "File", "Kind", "Format", "Written")
	for _, e := range entries {
		tw.Append([]string{
			truncate(filepath.Base(e.Path), 48),
			e.Kind,
			e.Format,
			humanize.RelTime(e.ModTime, now, "ago", "from now"),
		})
	}
	tw.Render()
	return sb.String()
}

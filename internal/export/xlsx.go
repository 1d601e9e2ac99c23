package export

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's sheet name length limit.
const maxSheetName = 31

// Sheet is one worksheet of a workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// WriteXLSX writes sheets into a new workbook and returns the path written.
func (m *Manager) WriteXLSX(kind string, sheets []Sheet) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("no sheets to export for %s", kind)
	}

	f, err := buildWorkbook(sheets)
	if err != nil {
		return "", err
	}
	defer f.Close()

	p, err := m.path(kind, FormatXLSX, m.now().UTC())
	if err != nil {
		return "", err
	}
	if err := f.SaveAs(p); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return p, nil
}

func buildWorkbook(sheets []Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)

	seen := make(map[string]bool, len(sheets))
	for i, sh := range sheets {
		name := sheetName(sh.Name, i, seen)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, sh); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, name string, sh Sheet) error {
	row := 1
	if len(sh.Header) > 0 {
		header := make([]any, len(sh.Header))
		for i, h := range sh.Header {
			header[i] = h
		}
		if err := setRow(f, name, row, header); err != nil {
			return err
		}
		row++
	}
	for _, r := range sh.Rows {
		if err := setRow(f, name, row, r); err != nil {
			return err
		}
		row++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// sheetName returns a valid, unique sheet name for name.
func sheetName(name string, idx int, seen map[string]bool) string {
	clean := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			r = '_'
		}
		clean = append(clean, r)
	}
	if len(clean) == 0 {
		clean = []rune(fmt.Sprintf("Sheet%d", idx+1))
	}
	if len(clean) > maxSheetName {
		clean = clean[:maxSheetName]
	}

	out := string(clean)
	for n := 2; seen[out]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		base := clean
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		out = string(base) + suffix
	}
	seen[out] = true
	return out
}

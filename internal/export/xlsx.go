package export

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	maxSheetName   = 31
	minColumnWidth = 10
	maxColumnWidth = 60
)

// WriteXLSX writes records into a single-sheet workbook. The first record is
// a bold, frozen header row. Cells that parse as integers are stored as
// numbers so spreadsheet sorting behaves.
func WriteXLSX(w io.Writer, sheet string, records [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet = sheetName(sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	widths := make(map[int]int)
	for r, record := range records {
		for c, value := range record {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("export: cell name: %w", err)
			}
			var v any = value
			if r > 0 {
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					v = n
				}
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("export: set %s: %w", cell, err)
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(value))
		}
	}

	if len(records) > 0 && len(records[0]) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("export: header style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(records[0]), 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return fmt.Errorf("export: apply header style: %w", err)
		}
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return fmt.Errorf("export: freeze header: %w", err)
		}
	}
	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return fmt.Errorf("export: column name: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(max(width+2, minColumnWidth), maxColumnWidth))); err != nil {
			return fmt.Errorf("export: column width: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// sheetName trims a title to Excel's sheet name limits.
func sheetName(name string) string {
	if name == "" {
		return "Sheet1"
	}
	runes := []rune(name)
	for i, r := range runes {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			runes[i] = '_'
		}
	}
	if len(runes) > maxSheetName {
		runes = runes[:maxSheetName]
	}
	return string(runes)
}

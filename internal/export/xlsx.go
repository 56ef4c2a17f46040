package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/knowledge-engine/vidlex/internal/analysis"
	"github.com/knowledge-engine/vidlex/internal/catalog"
)

const maxColumnWidth = 80

// WriteXLSX writes the report as a workbook with one sheet per section
func WriteXLSX(w io.Writer, videos []*catalog.Metadata, res *analysis.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	linkStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "0563C1", Underline: "single"}})
	if err != nil {
		return fmt.Errorf("failed to create link style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, s := range Sections(videos, res) {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s.Name, err)
		}
		if err := writeSheet(f, s, headerStyle, linkStyle); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s Section, headerStyle, linkStyle int) error {
	widths := make([]int, len(s.Header))

	for col, title := range s.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(s.Name, cell, title); err != nil {
			return err
		}
		if err := f.SetCellStyle(s.Name, cell, cell, headerStyle); err != nil {
			return err
		}
		widths[col] = utf8.RuneCountInString(title)
	}

	for r, row := range s.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(s.Name, cell, value); err != nil {
				return err
			}
			if col == s.LinkColumn {
				if link, ok := value.(string); ok && link != "" {
					if err := f.SetCellHyperLink(s.Name, cell, link, "External"); err != nil {
						return err
					}
					if err := f.SetCellStyle(s.Name, cell, cell, linkStyle); err != nil {
						return err
					}
				}
			}
			if col < len(widths) {
				if n := utf8.RuneCountInString(fmt.Sprint(value)); n > widths[col] {
					widths[col] = n
				}
			}
		}
	}

	for col, n := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(n+2) * 1.2
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if err := f.SetColWidth(s.Name, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

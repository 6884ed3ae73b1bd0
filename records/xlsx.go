package records

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxColumnWidth = 32

// Excel's IMAGE sizing for an explicit height and width.
const excelImageCustomSize = 3

// sheetsImage matches a custom-size spreadsheet IMAGE formula:
// =IMAGE("url", 4, height, width).
var sheetsImage = regexp.MustCompile(`^=IMAGE\(("(?:[^"]|"")*")\s*,\s*4\s*,\s*(\d+)\s*,\s*(\d+)\s*\)$`)

// excelFormula converts a spreadsheet formula to its workbook form, without
// the leading "=". Excel's IMAGE takes (source, alt_text, sizing, height,
// width), so custom-size images are rewritten into that order.
func excelFormula(s string) string {
	if m := sheetsImage.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf(`IMAGE(%s, "", %d, %s, %s)`, m[1], excelImageCustomSize, m[2], m[3])
	}
	return strings.TrimPrefix(s, "=")
}

// WriteXLSX writes header and data to a single-sheet workbook at path. Cells
// holding a formula are written as formulas, with IMAGE translated to
// Excel's argument order.
func WriteXLSX(path string, header []string, data [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for r, row := range data {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if s, ok := v.(string); ok && strings.HasPrefix(s, "=") {
				err = f.SetCellFormula(sheet, cell, excelFormula(s))
			} else {
				err = f.SetCellValue(sheet, cell, v)
			}
			if err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	for i := 1; i <= len(header); i++ {
		col, err := excelize.ColumnNumberToName(i)
		if err != nil {
			return fmt.Errorf("failed to name column: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, xlsxColumnWidth); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

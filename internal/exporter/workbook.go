package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// SummarySheet is one sheet of the assessment workbook: the accuracy rows
// of a single model family and periodicity.
type SummarySheet struct {
	Name    string // e.g. "DLT biweekly"
	Headers []string
	Records [][]string
}

// WriteSummaryWorkbook merges the per-periodicity assessment tables into a
// single XLSX workbook, one sheet per model/periodicity, so the study
// results can be reviewed side by side.
func WriteSummaryWorkbook(path string, sheets []SummarySheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		name := sheet.Name
		if i == 0 {
			// Rename the default sheet instead of leaving an empty "Sheet1".
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("create sheet %s: %w", name, err)
			}
		}

		for col, h := range sheet.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return fmt.Errorf("header cell: %w", err)
			}
			if err := f.SetCellValue(name, cell, h); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
		}

		for row, record := range sheet.Records {
			for col, value := range record {
				cell, err := excelize.CoordinatesToCellName(col+1, row+2)
				if err != nil {
					return fmt.Errorf("record cell: %w", err)
				}
				// Numeric cells stay numeric so the workbook sorts properly.
				if num, convErr := strconv.ParseFloat(value, 64); convErr == nil {
					if err := f.SetCellValue(name, cell, num); err != nil {
						return fmt.Errorf("write record: %w", err)
					}
				} else {
					if err := f.SetCellValue(name, cell, value); err != nil {
						return fmt.Errorf("write record: %w", err)
					}
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	slog.Info("Wrote assessment summary workbook",
		slog.String("path", path),
		slog.Int("sheets", len(sheets)))

	return nil
}

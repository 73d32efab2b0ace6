package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/primlogix/leadscout/internal/lead"
)

const sheetName = "Leads"

// WriteXLSX renders the leads as a single-sheet workbook with the same
// column layout as the CSV export.
func WriteXLSX(w io.Writer, reviews []lead.Review, withPipeline bool) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	if err := writeSheetRow(f, 1, header(withPipeline)); err != nil {
		return err
	}
	for i, r := range reviews {
		if err := writeSheetRow(f, i+2, row(r, withPipeline)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, rowIdx int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", rowIdx, err)
	}
	converted := make([]any, len(values))
	for i, v := range values {
		converted[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &converted); err != nil {
		return fmt.Errorf("write row %d: %w", rowIdx, err)
	}
	return nil
}

package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"graphharvest/pkg/rows"
)

// writeXLSX writes rs to a single worksheet. Timestamps are written as
// naive UTC values since spreadsheets have no timezone support.
func writeXLSX(w io.Writer, sheet string, rs []*rows.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	cols := rows.Columns(rs)
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for n, r := range rs {
		cells := make([]interface{}, len(cols))
		for i, c := range cols {
			v, _ := r.Get(c)
			cells[i] = scalar(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", n+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Package export writes dashboard data to spreadsheet files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"shipdash/internal/chart"

	"github.com/xuri/excelize/v2"
)

// RecordsSheet is the sheet holding the exported records.
const RecordsSheet = "records"

// WriteWorkbook converts the backend CSV export into an XLSX workbook with a records sheet
// followed by one sheet per chart (labels and one column per series).
// Numeric CSV cells are written as numbers.
func WriteWorkbook(w io.Writer, records io.Reader, charts []chart.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return err
	}

	r := csv.NewReader(records)
	r.FieldsPerRecord = -1
	row := 1
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV row %d: %w", row, err)
		}
		for c, field := range fields {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(RecordsSheet, cell, cellValue(field, row == 1)); err != nil {
				return err
			}
		}
		row++
	}

	for _, s := range charts {
		if err := writeChartSheet(f, s); err != nil {
			return fmt.Errorf("chart %s: %w", s.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeChartSheet(f *excelize.File, s chart.Snapshot) error {
	sheet := sheetName(s.ID)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []any{"label"}
	for _, series := range s.Series {
		headers = append(headers, series.Name)
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	for i, label := range s.Labels {
		values := []any{label}
		for _, series := range s.Series {
			values = append(values, series.Data[i])
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 18)
}

// sheetName keeps within Excel's 31 character limit.
func sheetName(id string) string {
	if len(id) > 31 {
		return id[:31]
	}
	return id
}

func cellValue(field string, header bool) any {
	if header {
		return field
	}
	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return v
	}
	return field
}

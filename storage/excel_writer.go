package storage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// ExcelReportWriter writes every report to its own sheet of one workbook.
type ExcelReportWriter struct {
	path string
	file *excelize.File
}

// NewExcelReportWriter prepares a workbook that is saved to path by WriteReports.
func NewExcelReportWriter(path string) (*ExcelReportWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	return &ExcelReportWriter{path: path, file: excelize.NewFile()}, nil
}

// SheetName truncates name to the sheet name limit.
func SheetName(name string) string {
	r := []rune(name)
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	return string(r)
}

// WriteReports writes one sheet per report, header first, and saves the
// workbook. Undefined float values are left blank.
func (e *ExcelReportWriter) WriteReports(reports []Report) error {
	for i, r := range reports {
		sheet := SheetName(r.Name)
		if i == 0 {
			if err := e.file.SetSheetName(e.file.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("xlsx: rename sheet %q: %w", sheet, err)
			}
		} else if _, err := e.file.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx: new sheet %q: %w", sheet, err)
		}
		if err := e.writeSheet(sheet, r); err != nil {
			return err
		}
	}

	if err := e.file.SaveAs(e.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", e.path, err)
	}
	return nil
}

func (e *ExcelReportWriter) writeSheet(sheet string, r Report) error {
	names := r.Frame.Names()
	header := make([]interface{}, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := e.file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header of %q: %w", sheet, err)
	}

	cols := make([]series.Series, len(names))
	for i, n := range names {
		cols[i] = r.Frame.Col(n)
	}

	for row := 0; row < r.Frame.Nrow(); row++ {
		values := make([]interface{}, len(cols))
		for c, col := range cols {
			values[c] = cellValue(col, row)
		}
		cell, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := e.file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: write row %d of %q: %w", row, sheet, err)
		}
	}
	return nil
}

func cellValue(col series.Series, row int) interface{} {
	elem := col.Elem(row)
	if elem.IsNA() {
		return nil
	}
	switch col.Type() {
	case series.Int:
		v, err := elem.Int()
		if err != nil {
			return nil
		}
		return v
	case series.Float:
		v := elem.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case series.Bool:
		v, err := elem.Bool()
		if err != nil {
			return nil
		}
		return v
	default:
		return elem.String()
	}
}

// Close releases the workbook.
func (e *ExcelReportWriter) Close() error {
	return e.file.Close()
}

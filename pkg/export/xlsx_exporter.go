package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders datasets into a single-sheet workbook. Numeric cells
// are written as numbers so spreadsheets can chart them.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType implements Renderer.
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render writes the title (when set) on the first row, then headers and rows.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	row := 1
	if data.Title != "" {
		if err := f.SetCellValue(sheet, "A1", data.Title); err != nil {
			return nil, fmt.Errorf("write xlsx title: %w", err)
		}
		row = 3
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	for col, header := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write xlsx header: %w", err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(data.Headers), row)
	if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
		return nil, fmt.Errorf("xlsx header style: %w", err)
	}

	for i := range data.Rows {
		row++
		for col, value := range data.Record(i) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, cellValue(value)); err != nil {
				return nil, fmt.Errorf("write xlsx row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(raw string) interface{} {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}

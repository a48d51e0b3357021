package table

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

func exportData[T any](cols []Column[T], rows []T) ([]string, [][]string) {
	labels := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = c.Label
	}
	data := make([][]string, len(rows))
	for r, row := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = c.text(row)
		}
		data[r] = line
	}
	return labels, data
}

// ExportRows converts rows of any table to header labels and cell text
func ExportRows[T any](cols []Column[T], rows []T) ([]string, [][]string) {
	return exportData(cols, rows)
}

// WriteXLSX writes one sheet with a bold, gray header row
func WriteXLSX(w io.Writer, sheetName string, headers []string, data [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}
	return f.Write(w)
}

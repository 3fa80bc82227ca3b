package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"slotgen/internal/slots"
)

const sheetName = "Slots"

// slotColumns is the header row shared by both export formats.
var slotColumns = []string{"Date", "Weekday", "Start", "End", "Line"}

// slotRowValues renders one slot as a spreadsheet row.
func slotRowValues(s slots.TimeSlot) []interface{} {
	return []interface{}{
		s.Date.Format("2006-01-02"),
		s.Date.Weekday().String(),
		s.Start.Format("15:04"),
		s.End.Format("15:04"),
		slots.FormatSlot(s),
	}
}

func buildWorkbook(batch []slots.TimeSlot) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	for i, col := range slotColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, err
		}
	}

	// Bold header
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(slotColumns), 1)
		_ = f.SetCellStyle(sheetName, startCell, endCell, style)
	}
	_ = f.SetColWidth(sheetName, "A", "D", 12)
	_ = f.SetColWidth(sheetName, "E", "E", 46)

	for r, s := range batch {
		for c, val := range slotRowValues(s) {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// WriteExcel renders the batch as an xlsx workbook with a single Slots sheet.
func WriteExcel(w io.Writer, batch []slots.TimeSlot) error {
	f, err := buildWorkbook(batch)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	return f.Write(w)
}

// SaveExcel writes the workbook to disk.
func SaveExcel(path string, batch []slots.TimeSlot) error {
	f, err := buildWorkbook(batch)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	return f.SaveAs(path)
}

// Package report renders an organization's schedule configuration as an
// Excel workbook for shelter administrators.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"pawhaven/internal/models"
)

// WriteScheduleWorkbook writes a workbook with a "Weekly Hours" sheet and an
// "Exceptions" sheet to w.
func WriteScheduleWorkbook(w io.Writer, week []models.OperatingHours, exceptions []models.AvailabilityException) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Weekly Hours")
	if err := writeRows(f, "Weekly Hours", hoursRows(week)); err != nil {
		return err
	}

	if _, err := f.NewSheet("Exceptions"); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeRows(f, "Exceptions", exceptionRows(exceptions)); err != nil {
		return err
	}

	return f.Write(w)
}

func hoursRows(week []models.OperatingHours) [][]any {
	rows := [][]any{{"Day", "Open", "Opens", "Closes", "Lunch Start", "Lunch End"}}
	for _, h := range week {
		open := "closed"
		if h.IsOpen {
			open = "open"
		}
		rows = append(rows, []any{
			time.Weekday(h.DayOfWeek).String(), open,
			h.OpenTime, h.CloseTime, h.LunchStart, h.LunchEnd,
		})
	}
	return rows
}

func exceptionRows(exceptions []models.AvailabilityException) [][]any {
	rows := [][]any{{"Type", "From", "To", "Start Time", "End Time", "Reason"}}
	for _, e := range exceptions {
		rows = append(rows, []any{
			e.Type, e.StartDate, e.EndDate, e.StartTime, e.EndTime, e.Reason,
		})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
			}
		}
	}

	// Bold header row.
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil && len(rows) > 0 {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}
	return nil
}

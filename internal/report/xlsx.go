package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	overviewSheet = "Overview"
	requestSheet  = "Requests"
)

var requestHeaders = []interface{}{
	"ID", "Subject", "Type", "Status", "Equipment", "Technician", "Team", "Scheduled",
}

// WriteXLSX renders the overview and request rows as a two-sheet workbook.
func WriteXLSX(w io.Writer, o *Overview, rows []RequestRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(requestSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Total equipment", o.TotalEquipment},
		{"Total requests", o.TotalRequests},
		{"Total teams", o.TotalTeams},
		{"Open requests", o.OpenRequests},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(overviewSheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(overviewSheet, "A1", "B1", bold)
	_ = f.SetColWidth(overviewSheet, "A", "A", 20)

	if err := f.SetSheetRow(requestSheet, "A1", &requestHeaders); err != nil {
		return err
	}
	_ = f.SetCellStyle(requestSheet, "A1", "H1", bold)
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		line := []interface{}{
			r.ID, r.Subject, r.Type, r.Status, r.Equipment,
			deref(r.Technician), deref(r.Team), r.ScheduledDate.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(requestSheet, cell, &line); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(requestSheet, "B", "B", 40)
	_ = f.SetColWidth(requestSheet, "E", "H", 20)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

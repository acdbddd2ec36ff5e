// Package export renders reports as downloadable spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk360/internal/domain"
)

// XLSXContentType is the media type of the workbook written by WriteMonthlyReport.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SummarySheet     = "Summary"
	DepartmentsSheet = "Departments"
)

var departmentHeaders = []any{"Department ID", "Department", "Code", "Requests", "Avg Resolution (h)", "Share (%)"}

// MonthlyReportFileName returns the attachment name for a report.
func MonthlyReportFileName(report domain.MonthlyReport) string {
	return fmt.Sprintf("monthly-report-%04d-%02d.xlsx", report.Year, report.Month)
}

// WriteMonthlyReport writes report as a workbook with a summary sheet and a
// per-department sheet.
func WriteMonthlyReport(w io.Writer, report domain.MonthlyReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRows(f, SummarySheet, summaryRows(report)); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summaryRows(report))), bold); err != nil {
		return fmt.Errorf("style summary labels: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 40); err != nil {
		return fmt.Errorf("size summary column: %w", err)
	}

	if _, err := f.NewSheet(DepartmentsSheet); err != nil {
		return fmt.Errorf("create departments sheet: %w", err)
	}
	rows := [][]any{departmentHeaders}
	for _, dept := range report.Departments {
		rows = append(rows, []any{
			dept.DepartmentID,
			dept.DepartmentName,
			dept.DepartmentCode,
			dept.RequestCount,
			dept.AverageResolutionHours,
			dept.Percentage,
		})
	}
	if err := writeRows(f, DepartmentsSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(DepartmentsSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style department header: %w", err)
	}
	if err := f.SetColWidth(DepartmentsSheet, "B", "B", 30); err != nil {
		return fmt.Errorf("size department column: %w", err)
	}
	if err := f.SetColWidth(DepartmentsSheet, "E", "F", 20); err != nil {
		return fmt.Errorf("size department columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func summaryRows(report domain.MonthlyReport) [][]any {
	rows := [][]any{
		{"Period", fmt.Sprintf("%s %d", report.MonthName, report.Year)},
		{"Total requests", report.TotalRequests},
	}
	for _, status := range domain.RequestStatuses {
		rows = append(rows, []any{"Status " + string(status), report.StatusBreakdown[status]})
	}
	for _, priority := range domain.RequestPriorities {
		rows = append(rows, []any{"Priority " + string(priority), report.PriorityBreakdown[priority]})
	}
	return append(rows,
		[]any{"Average resolution (hours)", report.AverageResolutionHours},
		[]any{"Previous month total", report.PreviousMonthTotal},
		[]any{"Change from previous month", report.TotalChangeFromPrevious},
		[]any{"Change from previous month (%)", report.TotalChangePercentage},
		[]any{"Same month last year total", report.PreviousYearSameMonthTotal},
		[]any{"Change from last year", report.TotalChangeFromPreviousYear},
		[]any{"Change from last year (%)", report.TotalChangePercentageFromPreviousYear},
	)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

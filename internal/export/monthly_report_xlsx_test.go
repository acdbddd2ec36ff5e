package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk360/internal/domain"
)

func sampleReport() domain.MonthlyReport {
	return domain.MonthlyReport{
		Year:          2024,
		Month:         3,
		MonthName:     "March",
		TotalRequests: 3,
		StatusBreakdown: map[domain.RequestStatus]int{
			domain.RequestStatusOpen:     1,
			domain.RequestStatusResolved: 2,
		},
		PriorityBreakdown: map[domain.RequestPriority]int{
			domain.RequestPriorityHigh: 2,
			domain.RequestPriorityLow:  1,
		},
		AverageResolutionHours:  5,
		PreviousMonthTotal:      2,
		TotalChangeFromPrevious: 1,
		TotalChangePercentage:   50,
		Departments: []domain.DepartmentBreakdown{
			{DepartmentID: 2, DepartmentName: "HR", DepartmentCode: "HR", RequestCount: 2, AverageResolutionHours: 6, Percentage: 66.67},
			{DepartmentID: 1, DepartmentName: "IT", DepartmentCode: "IT", RequestCount: 2, AverageResolutionHours: 5, Percentage: 66.67},
		},
	}
}

func TestWriteMonthlyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthlyReport(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, DepartmentsSheet}, f.GetSheetList())

	period, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "March 2024", period)
	total, err := f.GetCellValue(SummarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "3", total)

	rows, err := f.GetRows(DepartmentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Department", rows[0][1])
	assert.Equal(t, []string{"2", "HR", "HR", "2", "6", "66.67"}, rows[1])
	assert.Equal(t, "IT", rows[2][1])
}

func TestWriteMonthlyReport_NoDepartments(t *testing.T) {
	var buf bytes.Buffer
	report := domain.MonthlyReport{Year: 2024, Month: 2, MonthName: "February", Departments: []domain.DepartmentBreakdown{}}
	require.NoError(t, WriteMonthlyReport(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(DepartmentsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMonthlyReportFileName(t *testing.T) {
	assert.Equal(t, "monthly-report-2024-03.xlsx", MonthlyReportFileName(domain.MonthlyReport{Year: 2024, Month: 3}))
}

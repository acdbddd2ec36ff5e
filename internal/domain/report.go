package domain

import "time"

// Period is a half-open UTC interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthPeriod returns the calendar month period for year and month in UTC.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// PreviousMonth returns the calendar month immediately before p, rolling the year over in January.
func (p Period) PreviousMonth() Period {
	start := p.Start.AddDate(0, -1, 0)
	return Period{Start: start, End: p.Start}
}

// SameMonthLastYear returns the same calendar month one year earlier.
func (p Period) SameMonthLastYear() Period {
	return Period{Start: p.Start.AddDate(-1, 0, 0), End: p.End.AddDate(-1, 0, 0)}
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// MonthlyReport summarizes request volume for one calendar month.
// It is never persisted and can be recomputed at any time.
type MonthlyReport struct {
	Year                                  int
	Month                                 int
	MonthName                             string
	TotalRequests                         int
	StatusBreakdown                       map[RequestStatus]int
	PriorityBreakdown                     map[RequestPriority]int
	AverageResolutionHours                float64
	PreviousMonthTotal                    int
	TotalChangeFromPrevious               int
	TotalChangePercentage                 float64
	PreviousYearSameMonthTotal            int
	TotalChangeFromPreviousYear           int
	TotalChangePercentageFromPreviousYear float64
	Departments                           []DepartmentBreakdown
}

// DepartmentBreakdown holds per-department figures for a monthly report.
type DepartmentBreakdown struct {
	DepartmentID           int64
	DepartmentName         string
	DepartmentCode         string
	RequestCount           int
	AverageResolutionHours float64
	Percentage             float64
}

// ReportSummary is the condensed view of a month used by dashboards.
type ReportSummary struct {
	Year                   int
	Month                  int
	TotalRequests          int
	TotalActiveDepartments int
	AverageResolutionHours float64
	OpenRequests           int
	ResolvedRequests       int
}

package dto

import "github.com/spec-kit/helpdesk360/internal/domain"

// MonthlyReportQuery captures report query parameters. Zero values select the
// current UTC month.
type MonthlyReportQuery struct {
	Year   int
	Month  int
	Format string
}

// MonthlyReportResponse is the JSON shape of a monthly report. The flat
// per-status and per-priority counters mirror the breakdown maps.
type MonthlyReportResponse struct {
	Year                                  int                            `json:"year"`
	Month                                 int                            `json:"month"`
	MonthName                             string                         `json:"monthName"`
	TotalRequests                         int                            `json:"totalRequests"`
	OpenRequests                          int                            `json:"openRequests"`
	InProgressRequests                    int                            `json:"inProgressRequests"`
	ResolvedRequests                      int                            `json:"resolvedRequests"`
	ClosedRequests                        int                            `json:"closedRequests"`
	CancelledRequests                     int                            `json:"cancelledRequests"`
	LowRequests                           int                            `json:"lowRequests"`
	MediumRequests                        int                            `json:"mediumRequests"`
	HighRequests                          int                            `json:"highRequests"`
	CriticalRequests                      int                            `json:"criticalRequests"`
	StatusBreakdown                       map[domain.RequestStatus]int   `json:"statusBreakdown"`
	PriorityBreakdown                     map[domain.RequestPriority]int `json:"priorityBreakdown"`
	AverageResolutionHours                float64                        `json:"averageResolutionHours"`
	PreviousMonthTotal                    int                            `json:"previousMonthTotal"`
	TotalChangeFromPrevious               int                            `json:"totalChangeFromPrevious"`
	TotalChangePercentage                 float64                        `json:"totalChangePercentage"`
	PreviousYearSameMonthTotal            int                            `json:"previousYearSameMonthTotal"`
	TotalChangeFromPreviousYear           int                            `json:"totalChangeFromPreviousYear"`
	TotalChangePercentageFromPreviousYear float64                        `json:"totalChangePercentageFromPreviousYear"`
	DepartmentStats                       []DepartmentStatResponse       `json:"departmentStats"`
}

// DepartmentStatResponse is one department entry of a monthly report.
type DepartmentStatResponse struct {
	DepartmentID           int64   `json:"departmentId"`
	DepartmentName         string  `json:"departmentName"`
	DepartmentCode         string  `json:"departmentCode"`
	RequestCount           int     `json:"requestCount"`
	AverageResolutionHours float64 `json:"averageResolutionHours"`
	Percentage             float64 `json:"percentage"`
}

// ReportSummaryResponse is the dashboard summary.
type ReportSummaryResponse struct {
	Year                          int     `json:"year"`
	Month                         int     `json:"month"`
	TotalRequestsCurrentMonth     int     `json:"totalRequestsCurrentMonth"`
	TotalActiveDepartments        int     `json:"totalActiveDepartments"`
	OverallAvgResolutionTimeHours float64 `json:"overallAvgResolutionTimeHours"`
	OpenRequests                  int     `json:"openRequests"`
	ResolvedRequests              int     `json:"resolvedRequests"`
}

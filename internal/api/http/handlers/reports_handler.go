package handlers

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk360/internal/api/dto"
	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/export"
	"github.com/spec-kit/helpdesk360/internal/service"
	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

// ReportsHandler serves monthly reports.
type ReportsHandler struct {
	service *service.ReportService
	now     func() time.Time
}

// NewReportsHandler constructs handler. clock picks the default month and
// defaults to time.Now.
func NewReportsHandler(reportService *service.ReportService, clock func() time.Time) *ReportsHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ReportsHandler{service: reportService, now: clock}
}

// Monthly GET /api/reports/monthly.
func (h *ReportsHandler) Monthly(c *fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return err
	}
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format != "" && format != "json" && format != "xlsx" {
		return apperrors.NewInvalidArgument("format must be json or xlsx", map[string]any{"format": query.Format})
	}

	report, err := h.service.ComputeMonthlyReport(c.UserContext(), query.Year, query.Month)
	if err != nil {
		return err
	}

	if format == "xlsx" {
		var buf bytes.Buffer
		if err := export.WriteMonthlyReport(&buf, report); err != nil {
			return apperrors.NewInternalError(err)
		}
		c.Attachment(export.MonthlyReportFileName(report))
		c.Set(fiber.HeaderContentType, export.XLSXContentType)
		return c.Send(buf.Bytes())
	}
	return c.JSON(fiber.Map{"data": monthlyReportResponse(report)})
}

// Summary GET /api/reports/summary.
func (h *ReportsHandler) Summary(c *fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return err
	}
	summary, err := h.service.ComputeSummary(c.UserContext(), query.Year, query.Month)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReportSummaryResponse{
		Year:                          summary.Year,
		Month:                         summary.Month,
		TotalRequestsCurrentMonth:     summary.TotalRequests,
		TotalActiveDepartments:        summary.TotalActiveDepartments,
		OverallAvgResolutionTimeHours: summary.AverageResolutionHours,
		OpenRequests:                  summary.OpenRequests,
		ResolvedRequests:              summary.ResolvedRequests,
	}})
}

// parseQuery reads year and month, defaulting either to the current UTC
// month when absent or zero.
func (h *ReportsHandler) parseQuery(c *fiber.Ctx) (dto.MonthlyReportQuery, error) {
	year, err := intQuery(c, "year")
	if err != nil {
		return dto.MonthlyReportQuery{}, err
	}
	month, err := intQuery(c, "month")
	if err != nil {
		return dto.MonthlyReportQuery{}, err
	}
	now := h.now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return dto.MonthlyReportQuery{Year: year, Month: month, Format: c.Query("format")}, nil
}

func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewInvalidArgument(key+" must be an integer", map[string]any{key: raw})
	}
	return val, nil
}

func monthlyReportResponse(report domain.MonthlyReport) dto.MonthlyReportResponse {
	stats := make([]dto.DepartmentStatResponse, 0, len(report.Departments))
	for _, dept := range report.Departments {
		stats = append(stats, dto.DepartmentStatResponse{
			DepartmentID:           dept.DepartmentID,
			DepartmentName:         dept.DepartmentName,
			DepartmentCode:         dept.DepartmentCode,
			RequestCount:           dept.RequestCount,
			AverageResolutionHours: dept.AverageResolutionHours,
			Percentage:             dept.Percentage,
		})
	}
	return dto.MonthlyReportResponse{
		Year:                                  report.Year,
		Month:                                 report.Month,
		MonthName:                             report.MonthName,
		TotalRequests:                         report.TotalRequests,
		OpenRequests:                          report.StatusBreakdown[domain.RequestStatusOpen],
		InProgressRequests:                    report.StatusBreakdown[domain.RequestStatusInProgress],
		ResolvedRequests:                      report.StatusBreakdown[domain.RequestStatusResolved],
		ClosedRequests:                        report.StatusBreakdown[domain.RequestStatusClosed],
		CancelledRequests:                     report.StatusBreakdown[domain.RequestStatusCancelled],
		LowRequests:                           report.PriorityBreakdown[domain.RequestPriorityLow],
		MediumRequests:                        report.PriorityBreakdown[domain.RequestPriorityMedium],
		HighRequests:                          report.PriorityBreakdown[domain.RequestPriorityHigh],
		CriticalRequests:                      report.PriorityBreakdown[domain.RequestPriorityCritical],
		StatusBreakdown:                       report.StatusBreakdown,
		PriorityBreakdown:                     report.PriorityBreakdown,
		AverageResolutionHours:                report.AverageResolutionHours,
		PreviousMonthTotal:                    report.PreviousMonthTotal,
		TotalChangeFromPrevious:               report.TotalChangeFromPrevious,
		TotalChangePercentage:                 report.TotalChangePercentage,
		PreviousYearSameMonthTotal:            report.PreviousYearSameMonthTotal,
		TotalChangeFromPreviousYear:           report.TotalChangeFromPreviousYear,
		TotalChangePercentageFromPreviousYear: report.TotalChangePercentageFromPreviousYear,
		DepartmentStats:                       stats,
	}
}

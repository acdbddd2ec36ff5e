package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk360/internal/config"
	"github.com/spec-kit/helpdesk360/internal/domain"
	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

// RequestStore is the read side of request persistence used for reporting.
// Implementations return timestamps in UTC.
type RequestStore interface {
	CountRequestsCreatedInRange(ctx context.Context, start, end time.Time) (int, error)
	ListRequestsCreatedInRange(ctx context.Context, start, end time.Time) ([]domain.Request, error)
}

// ActiveDepartmentCounter reports how many departments currently accept requests.
type ActiveDepartmentCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// ReportService computes monthly aggregate reports over the request store.
// It keeps no state between calls and is safe for concurrent use.
type ReportService struct {
	store       RequestStore
	departments ActiveDepartmentCounter
	minYear     int
	now         func() time.Time
	logger      *zap.Logger
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	Store       RequestStore
	Departments ActiveDepartmentCounter
	Logger      *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewReportService constructs the service.
func NewReportService(cfg config.ReportConfig, deps ReportDependencies) *ReportService {
	minYear := cfg.MinYear
	if minYear <= 0 {
		minYear = config.DefaultReportMinYear
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		store:       deps.Store,
		departments: deps.Departments,
		minYear:     minYear,
		now:         clock,
		logger:      logger,
	}
}

// ComputeMonthlyReport aggregates the requests created in the given calendar
// month and compares the volume with the previous month and with the same
// month one year earlier.
func (s *ReportService) ComputeMonthlyReport(ctx context.Context, year, month int) (domain.MonthlyReport, error) {
	if err := s.validatePeriod(year, month); err != nil {
		return domain.MonthlyReport{}, err
	}

	target := domain.MonthPeriod(year, time.Month(month))
	requests, err := s.store.ListRequestsCreatedInRange(ctx, target.Start, target.End)
	if err != nil {
		return domain.MonthlyReport{}, s.storeFailure("list target month", year, month, err)
	}

	previous := target.PreviousMonth()
	previousTotal, err := s.store.CountRequestsCreatedInRange(ctx, previous.Start, previous.End)
	if err != nil {
		return domain.MonthlyReport{}, s.storeFailure("count previous month", year, month, err)
	}

	lastYear := target.SameMonthLastYear()
	lastYearTotal, err := s.store.CountRequestsCreatedInRange(ctx, lastYear.Start, lastYear.End)
	if err != nil {
		return domain.MonthlyReport{}, s.storeFailure("count same month last year", year, month, err)
	}

	report, orphaned := aggregateMonth(requests)
	if orphaned > 0 {
		s.logger.Debug("skipped orphaned department links",
			zap.Int("year", year), zap.Int("month", month), zap.Int("links", orphaned))
	}

	report.Year = year
	report.Month = month
	report.MonthName = time.Month(month).String()
	report.PreviousMonthTotal = previousTotal
	report.TotalChangeFromPrevious = report.TotalRequests - previousTotal
	report.TotalChangePercentage = changePercentage(report.TotalChangeFromPrevious, previousTotal)
	report.PreviousYearSameMonthTotal = lastYearTotal
	report.TotalChangeFromPreviousYear = report.TotalRequests - lastYearTotal
	report.TotalChangePercentageFromPreviousYear = changePercentage(report.TotalChangeFromPreviousYear, lastYearTotal)

	return shapeReport(report), nil
}

// ComputeSummary condenses the monthly report into dashboard totals.
func (s *ReportService) ComputeSummary(ctx context.Context, year, month int) (domain.ReportSummary, error) {
	report, err := s.ComputeMonthlyReport(ctx, year, month)
	if err != nil {
		return domain.ReportSummary{}, err
	}

	activeDepartments := 0
	if s.departments != nil {
		activeDepartments, err = s.departments.CountActive(ctx)
		if err != nil {
			return domain.ReportSummary{}, s.storeFailure("count active departments", year, month, err)
		}
	}

	return domain.ReportSummary{
		Year:                   report.Year,
		Month:                  report.Month,
		TotalRequests:          report.TotalRequests,
		TotalActiveDepartments: activeDepartments,
		AverageResolutionHours: report.AverageResolutionHours,
		OpenRequests:           report.StatusBreakdown[domain.RequestStatusOpen],
		ResolvedRequests:       report.StatusBreakdown[domain.RequestStatusResolved],
	}, nil
}

func (s *ReportService) validatePeriod(year, month int) error {
	if month < 1 || month > 12 {
		return apperrors.NewInvalidArgument("month must be between 1 and 12", map[string]any{"month": month})
	}
	maxYear := s.now().UTC().Year() + 1
	if year < s.minYear || year > maxYear {
		return apperrors.NewInvalidArgument(
			fmt.Sprintf("year must be between %d and %d", s.minYear, maxYear),
			map[string]any{"year": year},
		)
	}
	return nil
}

func (s *ReportService) storeFailure(step string, year, month int, err error) error {
	s.logger.Error("report query failed",
		zap.String("step", step),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Error(err))
	return apperrors.NewStoreUnavailable(fmt.Errorf("%s: %w", step, err))
}

type resolutionStats struct {
	totalHours float64
	resolved   int
}

func (r *resolutionStats) add(req *domain.Request) {
	if hours, ok := req.ResolutionHours(); ok {
		r.totalHours += hours
		r.resolved++
	}
}

func (r resolutionStats) average() float64 {
	if r.resolved == 0 {
		return 0
	}
	return r.totalHours / float64(r.resolved)
}

type departmentStats struct {
	department domain.Department
	count      int
	resolution resolutionStats
}

// aggregateMonth builds the unrounded per-month figures. It returns the number
// of department links that did not resolve to a department.
func aggregateMonth(requests []domain.Request) (domain.MonthlyReport, int) {
	report := domain.MonthlyReport{
		TotalRequests:     len(requests),
		StatusBreakdown:   make(map[domain.RequestStatus]int, len(domain.RequestStatuses)),
		PriorityBreakdown: make(map[domain.RequestPriority]int, len(domain.RequestPriorities)),
	}
	for _, status := range domain.RequestStatuses {
		report.StatusBreakdown[status] = 0
	}
	for _, priority := range domain.RequestPriorities {
		report.PriorityBreakdown[priority] = 0
	}

	var overall resolutionStats
	byDepartment := map[int64]*departmentStats{}
	orphaned := 0

	for i := range requests {
		req := &requests[i]
		report.StatusBreakdown[req.Status]++
		report.PriorityBreakdown[req.Priority]++
		overall.add(req)

		known := make(map[int64]domain.Department, len(req.Departments))
		for _, dept := range req.Departments {
			known[dept.ID] = dept
		}
		for _, deptID := range departmentLinks(req) {
			dept, ok := known[deptID]
			if !ok {
				orphaned++
				continue
			}
			stats, ok := byDepartment[deptID]
			if !ok {
				stats = &departmentStats{department: dept}
				byDepartment[deptID] = stats
			}
			stats.count++
			stats.resolution.add(req)
		}
	}

	report.AverageResolutionHours = overall.average()
	report.Departments = make([]domain.DepartmentBreakdown, 0, len(byDepartment))
	for _, stats := range byDepartment {
		report.Departments = append(report.Departments, domain.DepartmentBreakdown{
			DepartmentID:           stats.department.ID,
			DepartmentName:         stats.department.Name,
			DepartmentCode:         stats.department.Code,
			RequestCount:           stats.count,
			AverageResolutionHours: stats.resolution.average(),
			Percentage:             sharePercentage(stats.count, report.TotalRequests),
		})
	}
	return report, orphaned
}

// departmentLinks returns the distinct department ids linked to req, falling
// back to the resolved departments when raw ids were not loaded.
func departmentLinks(req *domain.Request) []int64 {
	ids := req.DepartmentIDs
	if len(ids) == 0 {
		ids = make([]int64, 0, len(req.Departments))
		for _, dept := range req.Departments {
			ids = append(ids, dept.ID)
		}
	}
	seen := make(map[int64]struct{}, len(ids))
	distinct := ids[:0:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	return distinct
}

func sharePercentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

func changePercentage(delta, base int) float64 {
	if base <= 0 {
		return 0
	}
	return 100 * float64(delta) / float64(base)
}

// shapeReport rounds derived metrics to two decimals and orders the
// department breakdown deterministically.
func shapeReport(report domain.MonthlyReport) domain.MonthlyReport {
	report.AverageResolutionHours = round2(report.AverageResolutionHours)
	report.TotalChangePercentage = round2(report.TotalChangePercentage)
	report.TotalChangePercentageFromPreviousYear = round2(report.TotalChangePercentageFromPreviousYear)
	for i := range report.Departments {
		report.Departments[i].AverageResolutionHours = round2(report.Departments[i].AverageResolutionHours)
		report.Departments[i].Percentage = round2(report.Departments[i].Percentage)
	}
	sort.SliceStable(report.Departments, func(i, j int) bool {
		a, b := report.Departments[i], report.Departments[j]
		if a.RequestCount != b.RequestCount {
			return a.RequestCount > b.RequestCount
		}
		if a.DepartmentName != b.DepartmentName {
			return a.DepartmentName < b.DepartmentName
		}
		return a.DepartmentID < b.DepartmentID
	})
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk360/internal/api/dto"
	"github.com/spec-kit/helpdesk360/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk360/internal/config"
	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/export"
	"github.com/spec-kit/helpdesk360/internal/observability"
	"github.com/spec-kit/helpdesk360/internal/repository/repotest"
	"github.com/spec-kit/helpdesk360/internal/service"
	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app         *fiber.App
	requests    *repotest.Requests
	departments *repotest.Departments
	postgres    error
}

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, httpCfg config.HTTPConfig) *testServer {
	t.Helper()
	srv := &testServer{}
	srv.departments = repotest.NewDepartments(
		domain.Department{ID: 1, Name: "IT", Code: "IT", IsActive: true},
		domain.Department{ID: 2, Name: "HR", Code: "HR", IsActive: true},
	)
	srv.requests = repotest.NewRequests(srv.departments)
	srv.requests.Now = func() time.Time { return testNow }
	clock := func() time.Time { return testNow }

	reportService := service.NewReportService(config.ReportConfig{MinYear: 2000}, service.ReportDependencies{
		Store:       srv.requests,
		Departments: srv.departments,
		Clock:       clock,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:    srv.requests,
		DepartmentRepo: srv.departments,
		Clock:          clock,
	})
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{
		Logger:  zap.NewNop(),
		Metrics: metrics,
		Timeout: 5 * time.Second,
		HTTP:    httpCfg,
	})
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("helpdesk360-api", "test",
			pingFunc(func(context.Context) error { return srv.postgres }), nil, metrics),
		Reports:     handlers.NewReportsHandler(reportService, clock),
		Requests:    handlers.NewRequestsHandler(requestService),
		Departments: handlers.NewDepartmentsHandler(service.NewDepartmentService(srv.departments, nil)),
	})
	srv.app = app
	return srv
}

func (s *testServer) do(t *testing.T, method, target string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func (s *testServer) seedMarch2024() {
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	resolved := created.Add(4 * time.Hour)
	s.requests.Seed(domain.Request{ID: 1, Status: domain.RequestStatusResolved, Priority: domain.RequestPriorityHigh,
		DepartmentIDs: []int64{1}, CreatedAt: created, UpdatedAt: created, ResolvedAt: &resolved})
	s.requests.Seed(domain.Request{ID: 2, Status: domain.RequestStatusOpen, Priority: domain.RequestPriorityLow,
		DepartmentIDs: []int64{2}, CreatedAt: created.AddDate(0, 0, 9), UpdatedAt: created})
	s.requests.Seed(domain.Request{ID: 3, Status: domain.RequestStatusOpen, Priority: domain.RequestPriorityMedium,
		DepartmentIDs: []int64{1}, CreatedAt: created.AddDate(0, -1, 0), UpdatedAt: created})
}

func TestMonthlyReportEndpoint(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})
	srv.seedMarch2024()

	resp, env := srv.do(t, http.MethodGet, "/api/reports/monthly?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	var report dto.MonthlyReportResponse
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "March", report.MonthName)
	assert.Equal(t, 2, report.TotalRequests)
	assert.Equal(t, 1, report.OpenRequests)
	assert.Equal(t, 1, report.ResolvedRequests)
	assert.Equal(t, 1, report.StatusBreakdown[domain.RequestStatusResolved])
	assert.InDelta(t, 4.0, report.AverageResolutionHours, 1e-9)
	assert.Equal(t, 1, report.PreviousMonthTotal)
	assert.InDelta(t, 100.0, report.TotalChangePercentage, 1e-9)
	require.Len(t, report.DepartmentStats, 2)
	assert.Equal(t, "HR", report.DepartmentStats[0].DepartmentName)
	assert.InDelta(t, 50.0, report.DepartmentStats[0].Percentage, 1e-9)
}

func TestMonthlyReportEndpoint_DefaultsToCurrentMonth(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})

	resp, env := srv.do(t, http.MethodGet, "/api/reports/monthly", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report dto.MonthlyReportResponse
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2024, report.Year)
	assert.Equal(t, 6, report.Month)
	assert.NotNil(t, report.DepartmentStats)
	assert.Contains(t, string(env.Data), `"departmentStats":[]`)
}

func TestMonthlyReportEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		storeErr   error
		wantStatus int
		wantCode   string
	}{
		{name: "month out of range", target: "/api/reports/monthly?year=2024&month=13", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidArgument},
		{name: "year too early", target: "/api/reports/monthly?year=1999&month=1", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidArgument},
		{name: "non numeric year", target: "/api/reports/monthly?year=abc&month=1", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidArgument},
		{name: "unknown format", target: "/api/reports/monthly?year=2024&month=1&format=pdf", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidArgument},
		{name: "store down", target: "/api/reports/monthly?year=2024&month=1", storeErr: errors.New("dial tcp: refused"), wantStatus: http.StatusInternalServerError, wantCode: apperrors.CodeStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, config.HTTPConfig{})
			srv.requests.Err = tt.storeErr

			resp, env := srv.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestMonthlyReportEndpoint_XLSX(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})
	srv.seedMarch2024()

	req := httptest.NewRequest(http.MethodGet, "/api/reports/monthly?year=2024&month=3&format=xlsx", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.XLSXContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "monthly-report-2024-03.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	total, err := f.GetCellValue(export.SummarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})
	srv.seedMarch2024()

	resp, env := srv.do(t, http.MethodGet, "/api/reports/summary?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary dto.ReportSummaryResponse
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.TotalRequestsCurrentMonth)
	assert.Equal(t, 2, summary.TotalActiveDepartments)
	assert.Equal(t, 1, summary.OpenRequests)
}

func TestRequestEndpoints(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})
	payload := dto.RequestPayload{
		Name:          "Ada Lovelace",
		Phone:         "+1 555 0100",
		Email:         "ada@example.com",
		Description:   "VPN drops every few minutes",
		DepartmentIDs: []int64{1},
	}

	resp, env := srv.do(t, http.MethodPost, "/api/requests", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.RequestResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, domain.RequestStatusOpen, created.Status)
	assert.Equal(t, "/api/requests/1", resp.Header.Get(fiber.HeaderLocation))

	resp, env = srv.do(t, http.MethodGet, "/api/requests?page=1&pageSize=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get(handlers.HeaderTotalCount))
	assert.Equal(t, "5", resp.Header.Get(handlers.HeaderPageSize))
	var listed []dto.RequestResponse
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)

	payload.Status = domain.RequestStatusResolved
	resp, env = srv.do(t, http.MethodPut, "/api/requests/1", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated dto.RequestResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.NotNil(t, updated.ResolvedAt)

	resp, env = srv.do(t, http.MethodGet, "/api/requests/search?term=vpn", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found []dto.RequestResponse
	require.NoError(t, json.Unmarshal(env.Data, &found))
	assert.Len(t, found, 1)

	resp, _ = srv.do(t, http.MethodDelete, "/api/requests/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, env = srv.do(t, http.MethodGet, "/api/requests/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)
}

func TestRequestEndpoints_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})

	resp, env := srv.do(t, http.MethodPost, "/api/requests", dto.RequestPayload{Name: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeValidationFailed, env.Error.Code)

	resp, env = srv.do(t, http.MethodGet, "/api/requests/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeInvalidArgument, env.Error.Code)

	resp, _ = srv.do(t, http.MethodGet, "/api/requests?pageSize=500", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDepartmentEndpoints(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})

	resp, env := srv.do(t, http.MethodPost, "/api/departments", dto.DepartmentPayload{Name: "Finance", Code: "FIN"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env = srv.do(t, http.MethodPost, "/api/departments", dto.DepartmentPayload{Name: "Finance 2", Code: "FIN"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeConflict, env.Error.Code)

	resp, env = srv.do(t, http.MethodGet, "/api/departments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var depts []dto.DepartmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &depts))
	require.Len(t, depts, 3)
	assert.Equal(t, "Finance", depts[0].Name)
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})

	resp, env := srv.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{RateLimitEnabled: true, RateLimitMax: 2, RateLimitWindowSec: 60})

	for i := 0; i < 2; i++ {
		resp, _ := srv.do(t, http.MethodGet, "/api/departments", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, env := srv.do(t, http.MethodGet, "/api/departments", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeRateLimited, env.Error.Code)

	resp, _ = srv.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health probes bypass the limiter")
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{})

	resp, _ := srv.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	srv.postgres = errors.New("connection refused")
	resp, env := srv.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	var snap observability.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.NotEmpty(t, snap.Requests)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	srv := newTestServer(t, config.HTTPConfig{AllowedOrigins: []string{"http://localhost:4200"}})

	req := httptest.NewRequest(http.MethodGet, "/api/departments", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:4200")
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4200", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

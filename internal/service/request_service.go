package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/events"
	"github.com/spec-kit/helpdesk360/internal/repository"
	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// RequestService coordinates support request workflows.
type RequestService struct {
	requests    repository.RequestRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	validate    *validator.Validate
	now         func() time.Time
	logger      *zap.Logger
}

// RequestDependencies bundles repositories for request service.
type RequestDependencies struct {
	RequestRepo    repository.RequestRepository
	DepartmentRepo repository.DepartmentRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Clock          func() time.Time
}

// RequestInput carries the mutable fields of a request. Empty Priority and
// Status fall back to Medium and Open on create and keep the stored value on
// update.
type RequestInput struct {
	Name          string                 `json:"name" validate:"required,max=200"`
	Phone         string                 `json:"phone" validate:"required,max=50,phone"`
	Email         string                 `json:"email" validate:"required,email,max=320"`
	Description   string                 `json:"description" validate:"required,min=10,max=2000"`
	Priority      domain.RequestPriority `json:"priority" validate:"omitempty,request_priority"`
	Status        domain.RequestStatus   `json:"status" validate:"omitempty,request_status"`
	DepartmentIDs []int64                `json:"departmentIds" validate:"required,min=1,dive,gt=0"`
}

// RequestPage is one page of requests ordered newest first.
type RequestPage struct {
	Items    []domain.Request
	Total    int
	Page     int
	PageSize int
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:    deps.RequestRepo,
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
		validate:    newValidator(),
		now:         clock,
		logger:      logger,
	}
}

// Create validates input and stores a new request with its departments.
func (s *RequestService) Create(ctx context.Context, input RequestInput) (*domain.Request, error) {
	input = normalizeInput(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	depts, err := s.checkDepartments(ctx, input.DepartmentIDs, nil)
	if err != nil {
		return nil, err
	}

	req := &domain.Request{
		Name:          input.Name,
		Phone:         input.Phone,
		Email:         input.Email,
		Description:   input.Description,
		Priority:      input.Priority,
		Status:        input.Status,
		DepartmentIDs: input.DepartmentIDs,
	}
	if req.Priority == "" {
		req.Priority = domain.RequestPriorityMedium
	}
	if req.Status == "" {
		req.Status = domain.RequestStatusOpen
	}
	s.markResolved(req)

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, storeError("request", 0, err)
	}
	req.Departments = depts

	s.logger.Info("request created",
		zap.Int64("request_id", req.ID),
		zap.String("priority", string(req.Priority)),
		zap.Int64s("department_ids", req.DepartmentIDs))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		Payload: events.RequestCreatedPayload{
			Priority:      req.Priority,
			Status:        req.Status,
			DepartmentIDs: req.DepartmentIDs,
		},
	})
	return req, nil
}

// Update replaces the mutable fields of an existing request. The first
// transition into Resolved stamps ResolvedAt, which is never cleared.
func (s *RequestService) Update(ctx context.Context, id int64, input RequestInput) (*domain.Request, error) {
	input = normalizeInput(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("request", id, err)
	}
	linked := make(map[int64]bool, len(req.DepartmentIDs))
	for _, deptID := range req.DepartmentIDs {
		linked[deptID] = true
	}
	depts, err := s.checkDepartments(ctx, input.DepartmentIDs, linked)
	if err != nil {
		return nil, err
	}

	oldStatus := req.Status
	req.Name = input.Name
	req.Phone = input.Phone
	req.Email = input.Email
	req.Description = input.Description
	if input.Priority != "" {
		req.Priority = input.Priority
	}
	if input.Status != "" {
		req.Status = input.Status
	}
	req.DepartmentIDs = input.DepartmentIDs
	s.markResolved(req)

	if err := s.requests.Update(ctx, req); err != nil {
		return nil, storeError("request", id, err)
	}
	req.Departments = depts

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestUpdated,
		RequestID: req.ID,
		Payload: events.RequestUpdatedPayload{
			Priority:      req.Priority,
			Status:        req.Status,
			DepartmentIDs: req.DepartmentIDs,
		},
	})
	if oldStatus != req.Status {
		s.logger.Info("request status changed",
			zap.Int64("request_id", req.ID),
			zap.String("from", string(oldStatus)),
			zap.String("to", string(req.Status)))
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestStatusChanged,
			RequestID: req.ID,
			Payload: events.RequestStatusChangedPayload{
				OldStatus:  oldStatus,
				NewStatus:  req.Status,
				ResolvedAt: req.ResolvedAt,
			},
		})
	}
	return req, nil
}

// Get fetches a request with its departments.
func (s *RequestService) Get(ctx context.Context, id int64) (*domain.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("request", id, err)
	}
	return req, nil
}

// List returns a page of requests. Zero page or pageSize select the defaults.
func (s *RequestService) List(ctx context.Context, page, pageSize int) (RequestPage, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		return RequestPage{}, apperrors.NewInvalidArgument("page must be at least 1", map[string]any{"page": page})
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return RequestPage{}, apperrors.NewInvalidArgument("pageSize must be between 1 and 100", map[string]any{"pageSize": pageSize})
	}

	total, err := s.requests.Count(ctx)
	if err != nil {
		return RequestPage{}, storeError("request", 0, err)
	}
	items, err := s.requests.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return RequestPage{}, storeError("request", 0, err)
	}
	return RequestPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Delete removes a request and its department links.
func (s *RequestService) Delete(ctx context.Context, id int64) error {
	if err := s.requests.Delete(ctx, id); err != nil {
		return storeError("request", id, err)
	}
	s.publishEvent(ctx, events.Event{Type: events.EventRequestDeleted, RequestID: id})
	return nil
}

// Search matches term against name, email, description and department names.
func (s *RequestService) Search(ctx context.Context, term string) ([]domain.Request, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.NewInvalidArgument("search term is required", nil)
	}
	items, err := s.requests.Search(ctx, term)
	if err != nil {
		return nil, storeError("request", 0, err)
	}
	return items, nil
}

// checkDepartments loads the departments for ids and rejects any that do not
// exist or are inactive. Ids in linked are already associated and may stay
// even when their department has since been deactivated.
func (s *RequestService) checkDepartments(ctx context.Context, ids []int64, linked map[int64]bool) ([]domain.Department, error) {
	depts, err := s.departments.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("department", 0, err)
	}
	found := make(map[int64]domain.Department, len(depts))
	for _, dept := range depts {
		found[dept.ID] = dept
	}

	missing := []int64{}
	inactive := []int64{}
	resolved := make([]domain.Department, 0, len(ids))
	for _, id := range ids {
		dept, ok := found[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case !dept.IsActive && !linked[id]:
			inactive = append(inactive, id)
		default:
			resolved = append(resolved, dept)
		}
	}
	if len(missing) > 0 || len(inactive) > 0 {
		return nil, apperrors.NewValidationError("departments must exist and be active", map[string]any{
			"missingDepartmentIds":  missing,
			"inactiveDepartmentIds": inactive,
		})
	}
	return resolved, nil
}

func (s *RequestService) markResolved(req *domain.Request) {
	if req.Status != domain.RequestStatusResolved || req.ResolvedAt != nil {
		return
	}
	now := s.now().UTC()
	req.ResolvedAt = &now
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizeInput(input RequestInput) RequestInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.TrimSpace(input.Email)
	input.Description = strings.TrimSpace(input.Description)
	input.DepartmentIDs = uniqueIDs(input.DepartmentIDs)
	return input
}

func uniqueIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/repository"
)

// DepartmentService manages the departments requests are routed to.
type DepartmentService struct {
	departments repository.DepartmentRepository
	validate    *validator.Validate
	logger      *zap.Logger
}

// DepartmentInput describes department create/update payload.
type DepartmentInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Code     string `json:"code" validate:"required,max=10,alphanum"`
	IsActive *bool  `json:"isActive"`
}

// NewDepartmentService constructs the service.
func NewDepartmentService(repo repository.DepartmentRepository, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{departments: repo, validate: newValidator(), logger: logger}
}

// ListActive returns active departments ordered by name.
func (s *DepartmentService) ListActive(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, storeError("department", 0, err)
	}
	return depts, nil
}

// CountActive returns the number of active departments.
func (s *DepartmentService) CountActive(ctx context.Context) (int, error) {
	total, err := s.departments.CountActive(ctx)
	if err != nil {
		return 0, storeError("department", 0, err)
	}
	return total, nil
}

// Create stores a new department. Nil IsActive means active.
func (s *DepartmentService) Create(ctx context.Context, input DepartmentInput) (*domain.Department, error) {
	input = normalizeDepartmentInput(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	dept := &domain.Department{Name: input.Name, Code: input.Code, IsActive: true}
	if input.IsActive != nil {
		dept.IsActive = *input.IsActive
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, storeError("department", 0, err)
	}
	s.logger.Info("department created", zap.Int64("department_id", dept.ID), zap.String("code", dept.Code))
	return dept, nil
}

// Update renames or (de)activates a department. Existing request links are kept.
func (s *DepartmentService) Update(ctx context.Context, id int64, input DepartmentInput) (*domain.Department, error) {
	input = normalizeDepartmentInput(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("department", id, err)
	}
	dept.Name = input.Name
	dept.Code = input.Code
	if input.IsActive != nil {
		dept.IsActive = *input.IsActive
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, storeError("department", id, err)
	}
	return dept, nil
}

func normalizeDepartmentInput(input DepartmentInput) DepartmentInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	return input
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk360/internal/api/dto"
	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/service"
	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

// DepartmentsHandler manages department endpoints.
type DepartmentsHandler struct {
	service *service.DepartmentService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(departmentService *service.DepartmentService) *DepartmentsHandler {
	return &DepartmentsHandler{service: departmentService}
}

// ListActive GET /api/departments.
func (h *DepartmentsHandler) ListActive(c *fiber.Ctx) error {
	depts, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, departmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /api/departments.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	var payload dto.DepartmentPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.service.Create(c.UserContext(), departmentInput(payload))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// Update PUT /api/departments/:id.
func (h *DepartmentsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var payload dto.DepartmentPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.service.Update(c.UserContext(), id, departmentInput(payload))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

func departmentInput(payload dto.DepartmentPayload) service.DepartmentInput {
	return service.DepartmentInput{Name: payload.Name, Code: payload.Code, IsActive: payload.IsActive}
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:        dept.ID,
		Name:      dept.Name,
		Code:      dept.Code,
		IsActive:  dept.IsActive,
		CreatedAt: dept.CreatedAt,
		UpdatedAt: dept.UpdatedAt,
	}
}

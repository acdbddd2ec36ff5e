package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk360/internal/api/dto"
	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/service"
	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

// Pagination response headers.
const (
	HeaderTotalCount = "X-Total-Count"
	HeaderPage       = "X-Page"
	HeaderPageSize   = "X-PageSize"
)

// RequestsHandler manages support request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// List GET /api/requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	page, err := intQuery(c, "page")
	if err != nil {
		return err
	}
	pageSize, err := intQuery(c, "pageSize")
	if err != nil {
		return err
	}
	result, err := h.service.List(c.UserContext(), page, pageSize)
	if err != nil {
		return err
	}
	c.Set(HeaderTotalCount, strconv.Itoa(result.Total))
	c.Set(HeaderPage, strconv.Itoa(result.Page))
	c.Set(HeaderPageSize, strconv.Itoa(result.PageSize))
	return c.JSON(fiber.Map{"data": requestResponses(result.Items)})
}

// Search GET /api/requests/search.
func (h *RequestsHandler) Search(c *fiber.Ctx) error {
	items, err := h.service.Search(c.UserContext(), c.Query("term"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponses(items)})
}

// Get GET /api/requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Create POST /api/requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	var payload dto.RequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req, err := h.service.Create(c.UserContext(), requestInput(payload))
	if err != nil {
		return err
	}
	c.Location("/api/requests/" + strconv.FormatInt(req.ID, 10))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": requestResponse(req)})
}

// Update PUT /api/requests/:id.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var payload dto.RequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req, err := h.service.Update(c.UserContext(), id, requestInput(payload))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Delete DELETE /api/requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func pathID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidArgument("id must be a positive integer", map[string]any{"id": raw})
	}
	return id, nil
}

func requestInput(payload dto.RequestPayload) service.RequestInput {
	return service.RequestInput{
		Name:          payload.Name,
		Phone:         payload.Phone,
		Email:         payload.Email,
		Description:   payload.Description,
		Priority:      payload.Priority,
		Status:        payload.Status,
		DepartmentIDs: payload.DepartmentIDs,
	}
}

func requestResponses(items []domain.Request) []dto.RequestResponse {
	out := make([]dto.RequestResponse, 0, len(items))
	for i := range items {
		out = append(out, requestResponse(&items[i]))
	}
	return out
}

func requestResponse(req *domain.Request) dto.RequestResponse {
	depts := make([]dto.DepartmentResponse, 0, len(req.Departments))
	for i := range req.Departments {
		depts = append(depts, departmentResponse(&req.Departments[i]))
	}
	ids := req.DepartmentIDs
	if ids == nil {
		ids = []int64{}
	}
	return dto.RequestResponse{
		ID:            req.ID,
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Description:   req.Description,
		Priority:      req.Priority,
		Status:        req.Status,
		DepartmentIDs: ids,
		Departments:   depts,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
		ResolvedAt:    req.ResolvedAt,
	}
}

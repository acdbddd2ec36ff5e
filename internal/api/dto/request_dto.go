package dto

import (
	"time"

	"github.com/spec-kit/helpdesk360/internal/domain"
)

// RequestPayload is the create/update body for a request.
type RequestPayload struct {
	Name          string                 `json:"name"`
	Phone         string                 `json:"phone"`
	Email         string                 `json:"email"`
	Description   string                 `json:"description"`
	Priority      domain.RequestPriority `json:"priority"`
	Status        domain.RequestStatus   `json:"status"`
	DepartmentIDs []int64                `json:"departmentIds"`
}

// RequestListQuery captures pagination parameters.
type RequestListQuery struct {
	Page     int `query:"page"`
	PageSize int `query:"pageSize"`
}

// RequestResponse is the JSON shape of a request.
type RequestResponse struct {
	ID            int64                  `json:"id"`
	Name          string                 `json:"name"`
	Phone         string                 `json:"phone"`
	Email         string                 `json:"email"`
	Description   string                 `json:"description"`
	Priority      domain.RequestPriority `json:"priority"`
	Status        domain.RequestStatus   `json:"status"`
	DepartmentIDs []int64                `json:"departmentIds"`
	Departments   []DepartmentResponse   `json:"departments"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	ResolvedAt    *time.Time             `json:"resolvedAt"`
}

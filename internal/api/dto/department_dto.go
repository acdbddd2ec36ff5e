package dto

import "time"

// DepartmentPayload is the create/update body for a department.
type DepartmentPayload struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	IsActive *bool  `json:"isActive"`
}

// DepartmentResponse is the JSON shape of a department.
type DepartmentResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

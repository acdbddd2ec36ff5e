package events

import (
	"time"

	"github.com/spec-kit/helpdesk360/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestUpdated       EventType = "request_updated"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestDeleted       EventType = "request_deleted"
)

// RequestEventTypes lists every request lifecycle event.
var RequestEventTypes = []EventType{
	EventRequestCreated,
	EventRequestUpdated,
	EventRequestStatusChanged,
	EventRequestDeleted,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RequestID int64     `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Priority      domain.RequestPriority `json:"priority"`
	Status        domain.RequestStatus   `json:"status"`
	DepartmentIDs []int64                `json:"departmentIds"`
}

// RequestUpdatedPayload payload.
type RequestUpdatedPayload struct {
	Priority      domain.RequestPriority `json:"priority"`
	Status        domain.RequestStatus   `json:"status"`
	DepartmentIDs []int64                `json:"departmentIds"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus  domain.RequestStatus `json:"oldStatus"`
	NewStatus  domain.RequestStatus `json:"newStatus"`
	ResolvedAt *time.Time           `json:"resolvedAt,omitempty"`
}

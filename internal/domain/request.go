package domain

import "time"

// RequestStatus enumerates lifecycle states for support requests.
type RequestStatus string

const (
	RequestStatusOpen       RequestStatus = "Open"
	RequestStatusInProgress RequestStatus = "InProgress"
	RequestStatusResolved   RequestStatus = "Resolved"
	RequestStatusClosed     RequestStatus = "Closed"
	RequestStatusCancelled  RequestStatus = "Cancelled"
)

// RequestStatuses lists every status in lifecycle order.
var RequestStatuses = []RequestStatus{
	RequestStatusOpen,
	RequestStatusInProgress,
	RequestStatusResolved,
	RequestStatusClosed,
	RequestStatusCancelled,
}

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	RequestPriorityLow      RequestPriority = "Low"
	RequestPriorityMedium   RequestPriority = "Medium"
	RequestPriorityHigh     RequestPriority = "High"
	RequestPriorityCritical RequestPriority = "Critical"
)

// RequestPriorities lists every priority from lowest to highest.
var RequestPriorities = []RequestPriority{
	RequestPriorityLow,
	RequestPriorityMedium,
	RequestPriorityHigh,
	RequestPriorityCritical,
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	for _, candidate := range RequestStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p RequestPriority) Valid() bool {
	for _, candidate := range RequestPriorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// Request is a single support ticket submitted by an end user.
//
// DepartmentIDs holds the raw associations as stored. Departments holds the
// associations that resolved to an existing department row, so an id present
// in DepartmentIDs but absent from Departments is an orphaned reference.
type Request struct {
	ID            int64
	Name          string
	Phone         string
	Email         string
	Description   string
	Priority      RequestPriority
	Status        RequestStatus
	DepartmentIDs []int64
	Departments   []Department
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
}

// ResolutionHours returns the hours between creation and first resolution.
// ok is false when the request has never been resolved or when ResolvedAt
// precedes CreatedAt, which clock skew between app and database can produce.
func (r *Request) ResolutionHours() (hours float64, ok bool) {
	if r.ResolvedAt == nil || r.ResolvedAt.Before(r.CreatedAt) {
		return 0, false
	}
	return r.ResolvedAt.Sub(r.CreatedAt).Hours(), true
}

package domain

import "time"

// Department is a routing category a request can be associated with.
type Department struct {
	ID        int64
	Name      string
	Code      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

package periods

import (
	"time"

	"github.com/google/uuid"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period represents a fiscal period window. Both bounds are inclusive.
type Period struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	Status     PeriodStatus
	ClosedAt   *time.Time
	ClosedByID *uuid.UUID
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Contains reports whether date falls within the period.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// Overlaps reports whether the inclusive ranges intersect.
func (p Period) Overlaps(start, end time.Time) bool {
	return !p.StartDate.After(end) && !p.EndDate.Before(start)
}

// CreateInput captures a new period request.
type CreateInput struct {
	Name      string    `json:"name" validate:"required,max=100"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
	Notes     string    `json:"notes" validate:"max=1000"`
}

// PeriodResponse is the read object exposed over HTTP.
type PeriodResponse struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	StartDate  string       `json:"startDate"`
	EndDate    string       `json:"endDate"`
	Status     PeriodStatus `json:"status"`
	ClosedAt   *time.Time   `json:"closedAt,omitempty"`
	ClosedByID *uuid.UUID   `json:"closedById,omitempty"`
	Notes      string       `json:"notes,omitempty"`
}

// Response renders the period read object.
func (p Period) Response() PeriodResponse {
	return PeriodResponse{
		ID:         p.ID,
		Name:       p.Name,
		StartDate:  p.StartDate.Format(time.DateOnly),
		EndDate:    p.EndDate.Format(time.DateOnly),
		Status:     p.Status,
		ClosedAt:   p.ClosedAt,
		ClosedByID: p.ClosedByID,
		Notes:      p.Notes,
	}
}

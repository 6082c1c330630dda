package models

import (
	"time"

	"github.com/google/uuid"
)

// RegType is the event registration type.
type RegType string

const (
	RegTypeFree RegType = "FREE"
	RegTypePaid RegType = "PAID"
)

// EventStatus is the event lifecycle status.
type EventStatus string

const (
	EventStatusDraft    EventStatus = "DRAFT"
	EventStatusActive   EventStatus = "ACTIVE"
	EventStatusArchived EventStatus = "ARCHIVED"
)

// Event is a conference or course. Visible to end users only when ACTIVE.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	FullName  string      `json:"full_name"`
	ShortName string      `json:"short_name"`
	Image     string      `json:"image,omitempty"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Venue     string      `json:"venue,omitempty"`
	City      string      `json:"city,omitempty"`
	State     string      `json:"state,omitempty"`
	Country   string      `json:"country,omitempty"`
	RegType   RegType     `json:"reg_type"`
	Amount    float64     `json:"amount"`
	Status    EventStatus `json:"status"`
	CreatedBy uuid.UUID   `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// EventSummary is the projection joined into enrollment and payment listings.
type EventSummary struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	ShortName string    `json:"short_name"`
	RegType   RegType   `json:"reg_type"`
	Amount    float64   `json:"amount"`
}

// Summary converts Event to EventSummary.
func (e *Event) Summary() EventSummary {
	return EventSummary{ID: e.ID, FullName: e.FullName, ShortName: e.ShortName, RegType: e.RegType, Amount: e.Amount}
}

// EventStats holds derived per-event counts for the admin dashboard.
type EventStats struct {
	EventID         uuid.UUID `json:"event_id"`
	EnrollmentCount int       `json:"enrollment_count"`
	SessionCount    int       `json:"session_count"`
	TopicCount      int       `json:"topic_count"`
	DurationMinutes int       `json:"duration_minutes"`
	Revenue         float64   `json:"revenue"`
}

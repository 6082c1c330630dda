package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a scheduled block within an event. Title is unique per event.
type Session struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	StartTime string    `json:"start_time"` // "09:30"
	EndTime   string    `json:"end_time,omitempty"`
	Hall      string    `json:"hall,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionSummary is the projection joined into topic listings.
type SessionSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	StartTime string    `json:"start_time"`
	Hall      string    `json:"hall,omitempty"`
}

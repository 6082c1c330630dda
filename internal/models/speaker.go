package models

import (
	"time"

	"github.com/google/uuid"
)

// Speaker is independent of any event; one speaker can appear in many
// events' topics.
type Speaker struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Affiliation string    `json:"affiliation,omitempty"`
	State       string    `json:"state,omitempty"`
	Country     string    `json:"country,omitempty"`
	Photo       string    `json:"photo,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	TopicCount  int       `json:"topic_count,omitempty"` // filled by aggregate listings
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SpeakerSummary is the projection joined into topic listings.
type SpeakerSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Affiliation string    `json:"affiliation,omitempty"`
	Photo       string    `json:"photo,omitempty"`
}

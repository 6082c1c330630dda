package models

import (
	"time"

	"github.com/google/uuid"
)

// Topic is an individual video unit within a session. VideoLink is the
// content-gated field: it is blanked in user responses unless the requester
// is enrolled in the parent event.
type Topic struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	SessionID uuid.UUID `json:"session_id"`
	SpeakerID uuid.UUID `json:"speaker_id"`
	Title     string    `json:"topic"`
	VideoLink string    `json:"video_link"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Duration  string    `json:"duration,omitempty"` // "HH:MM:SS"
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TopicView is a topic with joined speaker/session summaries, as returned
// by listing endpoints.
type TopicView struct {
	ID        uuid.UUID       `json:"id"`
	EventID   uuid.UUID       `json:"event_id"`
	SessionID uuid.UUID       `json:"session_id"`
	Title     string          `json:"topic"`
	VideoLink string          `json:"video_link"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	Duration  string          `json:"duration,omitempty"`
	Order     int             `json:"order"`
	Speaker   SpeakerSummary  `json:"speaker"`
	Session   *SessionSummary `json:"session,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

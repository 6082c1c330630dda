package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a privileged identity disjoint from User. Admins only mutate
// catalog and enrollment data; they never enroll themselves.
type Admin struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

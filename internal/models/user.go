package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered attendee.
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Prefix              string     `json:"prefix,omitempty"` // Dr, Prof, Mr, Ms
	FullName            string     `json:"full_name"`
	Email               string     `json:"email"`
	Mobile              string     `json:"mobile"`
	Country             string     `json:"country,omitempty"`
	Password            string     `json:"-"`
	Designation         string     `json:"designation,omitempty"`
	AffiliationHospital string     `json:"affiliation_hospital,omitempty"`
	State               string     `json:"state,omitempty"`
	City                string     `json:"city,omitempty"`
	Pincode             string     `json:"pincode,omitempty"`
	ProfilePhoto        string     `json:"profile_photo,omitempty"`
	ResetPasswordToken  string     `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// UserSummary is the projection embedded in auth responses and admin joins.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Mobile   string    `json:"mobile,omitempty"`
}

// Summary converts User to UserSummary.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Mobile: u.Mobile}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus is the lifecycle state of a (user, event) enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusPending        EnrollmentStatus = "PENDING"
	EnrollmentStatusFreeRegistered EnrollmentStatus = "FREE_REGISTERED"
	EnrollmentStatusPaidSuccess    EnrollmentStatus = "PAID_SUCCESS"
	EnrollmentStatusRefunded       EnrollmentStatus = "REFUNDED"
	EnrollmentStatusCancelled      EnrollmentStatus = "CANCELLED"
)

// UnlockedStatuses is the canonical set granting content access. Every
// enrolled-status check in the system goes through this set; there is no
// per-endpoint variant.
var UnlockedStatuses = []EnrollmentStatus{
	EnrollmentStatusFreeRegistered,
	EnrollmentStatusPaidSuccess,
}

// Unlocked reports whether the status grants content access.
func (s EnrollmentStatus) Unlocked() bool {
	return s == EnrollmentStatusFreeRegistered || s == EnrollmentStatusPaidSuccess
}

// Enrollment maps a (user, event) pair to its registration/payment state.
// At most one row exists per pair, enforced by a unique index.
type Enrollment struct {
	ID                uuid.UUID        `json:"id"`
	UserID            uuid.UUID        `json:"user_id"`
	EventID           uuid.UUID        `json:"event_id"`
	Status            EnrollmentStatus `json:"status"`
	PurchaseDate      time.Time        `json:"purchase_date"`
	AmountPaid        float64          `json:"amount_paid"`
	PaymentID         string           `json:"payment_id,omitempty"`
	CertificateName   string           `json:"certificate_name,omitempty"`
	RegistrationEmail string           `json:"registration_email,omitempty"`
	AccessExpires     *time.Time       `json:"access_expires,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Active reports whether the enrollment currently unlocks content:
// status in the unlocked set and, when set, access_expires in the future.
func (e *Enrollment) Active(now time.Time) bool {
	if !e.Status.Unlocked() {
		return false
	}
	if e.AccessExpires != nil && !e.AccessExpires.After(now) {
		return false
	}
	return true
}

// EnrollmentWithEvent joins an enrollment with its event projection.
type EnrollmentWithEvent struct {
	Enrollment
	Event EventSummary `json:"event"`
}

// EnrollmentAdminView joins an enrollment with user and event projections
// for the admin listing.
type EnrollmentAdminView struct {
	Enrollment
	User  *UserSummary  `json:"user,omitempty"`
	Event *EventSummary `json:"event,omitempty"`
}

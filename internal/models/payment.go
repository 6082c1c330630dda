package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus for ledger records.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// GatewayInstamojo is the gateway name stamped on paid-registration records.
const GatewayInstamojo = "Instamojo"

// Payment is an append-only transaction record correlated with an
// enrollment only by the shared (user_id, event_id) pair.
type Payment struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	EventID        uuid.UUID     `json:"event_id"`
	TransactionID  string        `json:"transaction_id"`
	PaymentGateway string        `json:"payment_gateway"`
	Amount         float64       `json:"amount"`
	Status         PaymentStatus `json:"status"`
	PaymentDate    time.Time     `json:"payment_date"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// PaymentView joins a payment with user/event projections for listings.
type PaymentView struct {
	Payment
	User  *UserSummary  `json:"user,omitempty"`
	Event *EventSummary `json:"event,omitempty"`
}

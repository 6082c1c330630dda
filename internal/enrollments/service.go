package enrollments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/queue"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventNotActive       = errors.New("event is not active")
	ErrNotFreeEvent         = errors.New("event is not free")
	ErrNotPaidEvent         = errors.New("event is not paid")
	ErrAmountTooLow         = errors.New("amount paid is below the event price")
	ErrDuplicateTransaction = errors.New("transaction id already recorded")
)

// Store is the enrollment persistence surface the service needs.
type Store interface {
	UpsertFree(ctx context.Context, p UpsertFreeParams) (*models.Enrollment, error)
	UpsertPaid(ctx context.Context, p UpsertPaidParams) (*models.Enrollment, *models.Payment, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.EnrollmentWithEvent, error)
	AccessStatus(ctx context.Context, userID, eventID uuid.UUID) (bool, models.EnrollmentStatus, error)
}

// EventGetter resolves events for registration checks.
type EventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// EmailEnqueuer pushes confirmation emails onto the job queue.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Service implements the registration flows. Emails are enqueued
// best-effort after the write commits; a queue failure never fails the
// registration.
type Service struct {
	store  Store
	events EventGetter
	emails EmailEnqueuer
	logger *zap.Logger
}

// NewService creates the enrollment service. emails may be nil when no
// queue is configured.
func NewService(store Store, events EventGetter, emails EmailEnqueuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, events: events, emails: emails, logger: logger}
}

// RegisterFree registers the user for a free event. Repeating the call
// refreshes the same row; a second row can never appear.
func (s *Service) RegisterFree(ctx context.Context, userID, eventID uuid.UUID, certificateName, email string) (*models.Enrollment, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.RegType != models.RegTypeFree {
		return nil, ErrNotFreeEvent
	}

	enrollment, err := s.store.UpsertFree(ctx, UpsertFreeParams{
		UserID:            userID,
		EventID:           eventID,
		CertificateName:   certificateName,
		RegistrationEmail: email,
	})
	if err != nil {
		return nil, err
	}

	s.enqueueEmail(ctx, queue.EmailPayload{
		EmailKind:      queue.EmailKindFreeConfirmation,
		EventID:        eventID,
		EnrollmentID:   enrollment.ID,
		RecipientEmail: email,
		Subject:        fmt.Sprintf("Registration confirmed: %s", event.FullName),
		BodyHTML: fmt.Sprintf("<h3>Hello %s,</h3><p>Your registration for <b>%s</b> is confirmed.</p>",
			certificateName, event.FullName),
	})
	return enrollment, nil
}

// InitiatePaid records a successful paid registration: the enrollment
// transition and the payment ledger row commit together or not at all.
func (s *Service) InitiatePaid(ctx context.Context, userID, eventID uuid.UUID, amountPaid float64, transactionID, email string) (*models.Enrollment, *models.Payment, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, err
	}
	if event.Status != models.EventStatusActive {
		return nil, nil, ErrEventNotActive
	}
	if event.RegType != models.RegTypePaid {
		return nil, nil, ErrNotPaidEvent
	}
	if amountPaid < event.Amount {
		return nil, nil, ErrAmountTooLow
	}

	enrollment, payment, err := s.store.UpsertPaid(ctx, UpsertPaidParams{
		UserID:        userID,
		EventID:       eventID,
		AmountPaid:    amountPaid,
		TransactionID: transactionID,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, nil, ErrDuplicateTransaction
		}
		return nil, nil, err
	}

	s.enqueueEmail(ctx, queue.EmailPayload{
		EmailKind:      queue.EmailKindPaymentReceipt,
		EventID:        eventID,
		EnrollmentID:   enrollment.ID,
		RecipientEmail: email,
		Subject:        fmt.Sprintf("Payment received: %s", event.FullName),
		BodyHTML: fmt.Sprintf("<p>Your payment of %.2f for <b>%s</b> was received. Transaction %s.</p>",
			amountPaid, event.FullName, transactionID),
	})
	return enrollment, payment, nil
}

// ListMine returns the user's unlocked enrollments.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.EnrollmentWithEvent, error) {
	return s.store.ListMine(ctx, userID)
}

// AccessStatus is the single enrolled predicate used by the content gate
// and the event details endpoint.
func (s *Service) AccessStatus(ctx context.Context, userID, eventID uuid.UUID) (bool, models.EnrollmentStatus, error) {
	return s.store.AccessStatus(ctx, userID, eventID)
}

func (s *Service) enqueueEmail(ctx context.Context, payload queue.EmailPayload) {
	if s.emails == nil {
		return
	}
	if err := s.emails.EnqueueEmail(ctx, payload); err != nil {
		s.logger.Warn("email enqueue failed",
			zap.String("email_kind", payload.EmailKind),
			zap.String("enrollment_id", payload.EnrollmentID.String()),
			zap.Error(err))
	}
}

package enrollments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/pkg/queue"
)

type pairKey struct {
	user  uuid.UUID
	event uuid.UUID
}

// memStore mimics the Postgres repository: one enrollment row per
// (user, event) via upsert, unique transaction ids on payments, and the
// paid write applied atomically under one lock.
type memStore struct {
	mu          sync.Mutex
	enrollments map[pairKey]*models.Enrollment
	payments    []models.Payment
	txnIDs      map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		enrollments: map[pairKey]*models.Enrollment{},
		txnIDs:      map[string]bool{},
	}
}

func (s *memStore) UpsertFree(_ context.Context, p UpsertFreeParams) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{p.UserID, p.EventID}
	e, ok := s.enrollments[key]
	if !ok {
		e = &models.Enrollment{ID: uuid.New(), UserID: p.UserID, EventID: p.EventID}
		s.enrollments[key] = e
	}
	e.Status = models.EnrollmentStatusFreeRegistered
	e.PurchaseDate = time.Now()
	e.AmountPaid = 0
	e.PaymentID = ""
	e.CertificateName = p.CertificateName
	e.RegistrationEmail = p.RegistrationEmail
	out := *e
	return &out, nil
}

func (s *memStore) UpsertPaid(_ context.Context, p UpsertPaidParams) (*models.Enrollment, *models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txnIDs[p.TransactionID] {
		return nil, nil, &pgconn.PgError{Code: "23505", ConstraintName: "payments_transaction_id_key"}
	}
	key := pairKey{p.UserID, p.EventID}
	e, ok := s.enrollments[key]
	if !ok {
		e = &models.Enrollment{ID: uuid.New(), UserID: p.UserID, EventID: p.EventID}
		s.enrollments[key] = e
	}
	e.Status = models.EnrollmentStatusPaidSuccess
	e.PurchaseDate = time.Now()
	e.AmountPaid = p.AmountPaid
	e.PaymentID = p.TransactionID

	payment := models.Payment{
		ID:             uuid.New(),
		UserID:         p.UserID,
		EventID:        p.EventID,
		TransactionID:  p.TransactionID,
		PaymentGateway: models.GatewayInstamojo,
		Amount:         p.AmountPaid,
		Status:         models.PaymentStatusSuccess,
		PaymentDate:    time.Now(),
	}
	s.payments = append(s.payments, payment)
	s.txnIDs[p.TransactionID] = true
	out := *e
	return &out, &payment, nil
}

func (s *memStore) ListMine(_ context.Context, userID uuid.UUID) ([]models.EnrollmentWithEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.EnrollmentWithEvent{}
	for _, e := range s.enrollments {
		if e.UserID == userID && e.Active(time.Now()) {
			out = append(out, models.EnrollmentWithEvent{Enrollment: *e})
		}
	}
	return out, nil
}

func (s *memStore) AccessStatus(_ context.Context, userID, eventID uuid.UUID) (bool, models.EnrollmentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[pairKey{userID, eventID}]
	if !ok {
		return false, "", nil
	}
	return e.Active(time.Now()), e.Status, nil
}

type memEvents struct {
	events map[uuid.UUID]*models.Event
}

func (m *memEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, pgx.ErrNoRows
}

type memQueue struct {
	mu   sync.Mutex
	sent []queue.EmailPayload
	fail bool
}

func (q *memQueue) EnqueueEmail(_ context.Context, p queue.EmailPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return errors.New("queue unavailable")
	}
	q.sent = append(q.sent, p)
	return nil
}

func freeEvent() *models.Event {
	return &models.Event{
		ID:       uuid.New(),
		FullName: "Annual Cardiology Summit",
		RegType:  models.RegTypeFree,
		Status:   models.EventStatusActive,
	}
}

func paidEvent(amount float64) *models.Event {
	return &models.Event{
		ID:       uuid.New(),
		FullName: "Advanced Imaging Workshop",
		RegType:  models.RegTypePaid,
		Amount:   amount,
		Status:   models.EventStatusActive,
	}
}

func newTestService(store Store, evts ...*models.Event) (*Service, *memQueue) {
	m := &memEvents{events: map[uuid.UUID]*models.Event{}}
	for _, e := range evts {
		m.events[e.ID] = e
	}
	q := &memQueue{}
	return NewService(store, m, q, zap.NewNop()), q
}

func TestRegisterFree(t *testing.T) {
	store := newMemStore()
	event := freeEvent()
	svc, q := newTestService(store, event)
	userID := uuid.New()

	e, err := svc.RegisterFree(context.Background(), userID, event.ID, "Dr. A Sharma", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusFreeRegistered, e.Status)
	assert.Zero(t, e.AmountPaid)
	assert.Equal(t, "Dr. A Sharma", e.CertificateName)
	assert.Equal(t, "a@example.com", e.RegistrationEmail)
	assert.Len(t, q.sent, 1)
	assert.Equal(t, queue.EmailKindFreeConfirmation, q.sent[0].EmailKind)
}

func TestRegisterFreeIsIdempotent(t *testing.T) {
	store := newMemStore()
	event := freeEvent()
	svc, _ := newTestService(store, event)
	userID := uuid.New()

	first, err := svc.RegisterFree(context.Background(), userID, event.ID, "Dr. A Sharma", "a@example.com")
	require.NoError(t, err)
	second, err := svc.RegisterFree(context.Background(), userID, event.ID, "Dr. A Sharma", "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.enrollments, 1)
}

func TestRegisterFreeConcurrentSingleRow(t *testing.T) {
	store := newMemStore()
	event := freeEvent()
	svc, _ := newTestService(store, event)
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RegisterFree(context.Background(), userID, event.ID, "Dr. A Sharma", "a@example.com")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, store.enrollments, 1)
}

func TestRegisterFreeUnknownEvent(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	_, err := svc.RegisterFree(context.Background(), uuid.New(), uuid.New(), "Dr. A", "a@example.com")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegisterFreeRejectsPaidEvent(t *testing.T) {
	event := paidEvent(500)
	svc, q := newTestService(newMemStore(), event)
	_, err := svc.RegisterFree(context.Background(), uuid.New(), event.ID, "Dr. A", "a@example.com")
	assert.ErrorIs(t, err, ErrNotFreeEvent)
	assert.Empty(t, q.sent)
}

func TestRegisterFreeQueueFailureDoesNotFail(t *testing.T) {
	store := newMemStore()
	event := freeEvent()
	svc, q := newTestService(store, event)
	q.fail = true

	_, err := svc.RegisterFree(context.Background(), uuid.New(), event.ID, "Dr. A", "a@example.com")
	assert.NoError(t, err)
}

func TestInitiatePaid(t *testing.T) {
	store := newMemStore()
	event := paidEvent(500)
	svc, q := newTestService(store, event)
	userID := uuid.New()

	e, p, err := svc.InitiatePaid(context.Background(), userID, event.ID, 500, "tx1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPaidSuccess, e.Status)
	assert.Equal(t, 500.0, e.AmountPaid)
	assert.Equal(t, "tx1", e.PaymentID)

	require.NotNil(t, p)
	assert.Equal(t, "tx1", p.TransactionID)
	assert.Equal(t, models.GatewayInstamojo, p.PaymentGateway)
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)
	assert.Len(t, store.payments, 1)

	require.Len(t, q.sent, 1)
	assert.Equal(t, queue.EmailKindPaymentReceipt, q.sent[0].EmailKind)
	assert.Equal(t, "a@example.com", q.sent[0].RecipientEmail)
}

func TestInitiatePaidRejectsAmountBelowPrice(t *testing.T) {
	store := newMemStore()
	event := paidEvent(500)
	svc, _ := newTestService(store, event)

	_, _, err := svc.InitiatePaid(context.Background(), uuid.New(), event.ID, 499.99, "tx1", "a@example.com")
	assert.ErrorIs(t, err, ErrAmountTooLow)
	assert.Empty(t, store.payments)
}

func TestInitiatePaidAcceptsExactAmount(t *testing.T) {
	event := paidEvent(500)
	svc, _ := newTestService(newMemStore(), event)

	_, _, err := svc.InitiatePaid(context.Background(), uuid.New(), event.ID, 500, "tx1", "a@example.com")
	assert.NoError(t, err)
}

func TestInitiatePaidRejectsInactiveEvent(t *testing.T) {
	event := paidEvent(500)
	event.Status = models.EventStatusDraft
	svc, _ := newTestService(newMemStore(), event)

	_, _, err := svc.InitiatePaid(context.Background(), uuid.New(), event.ID, 500, "tx1", "a@example.com")
	assert.ErrorIs(t, err, ErrEventNotActive)
}

func TestInitiatePaidRejectsFreeEvent(t *testing.T) {
	event := freeEvent()
	svc, _ := newTestService(newMemStore(), event)

	_, _, err := svc.InitiatePaid(context.Background(), uuid.New(), event.ID, 100, "tx1", "a@example.com")
	assert.ErrorIs(t, err, ErrNotPaidEvent)
}

func TestInitiatePaidDuplicateTransaction(t *testing.T) {
	store := newMemStore()
	event := paidEvent(500)
	svc, _ := newTestService(store, event)

	_, _, err := svc.InitiatePaid(context.Background(), uuid.New(), event.ID, 500, "tx1", "a@example.com")
	require.NoError(t, err)

	_, _, err = svc.InitiatePaid(context.Background(), uuid.New(), event.ID, 500, "tx1", "b@example.com")
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.Len(t, store.payments, 1)
}

func TestAccessStatus(t *testing.T) {
	store := newMemStore()
	freeEvt := freeEvent()
	svc, _ := newTestService(store, freeEvt)
	userID := uuid.New()

	enrolled, status, err := svc.AccessStatus(context.Background(), userID, freeEvt.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)
	assert.Empty(t, status)

	_, err = svc.RegisterFree(context.Background(), userID, freeEvt.ID, "Dr. A", "a@example.com")
	require.NoError(t, err)

	enrolled, status, err = svc.AccessStatus(context.Background(), userID, freeEvt.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
	assert.Equal(t, models.EnrollmentStatusFreeRegistered, status)
}

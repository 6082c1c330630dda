package enrollments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/pkg/database"
)

const enrollmentColumns = `id, user_id, event_id, status, purchase_date, amount_paid,
	COALESCE(payment_id, ''), COALESCE(certificate_name, ''), COALESCE(registration_email, ''),
	access_expires, created_at, updated_at`

// Repository provides enrollment storage over Postgres. The unique
// (user_id, event_id) index plus ON CONFLICT upserts keep at most one row
// per pair under concurrent registrations.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, userID, eventID uuid.UUID) (*models.Enrollment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = $1 AND event_id = $2`,
		userID, eventID)
	return scanEnrollment(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Enrollment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id)
	return scanEnrollment(row)
}

// AccessStatus reports whether the user currently holds unlocked access to
// the event, and the underlying status. No enrollment row means no access.
func (r *Repository) AccessStatus(ctx context.Context, userID, eventID uuid.UUID) (bool, models.EnrollmentStatus, error) {
	e, err := r.Get(ctx, userID, eventID)
	if err != nil {
		if database.IsNotFound(err) {
			return false, "", nil
		}
		return false, "", err
	}
	return e.Active(time.Now()), e.Status, nil
}

// UpsertFreeParams stamp a free registration onto the (user, event) row.
type UpsertFreeParams struct {
	UserID            uuid.UUID
	EventID           uuid.UUID
	CertificateName   string
	RegistrationEmail string
}

// UpsertFree inserts or refreshes the enrollment as FREE_REGISTERED. The
// upsert makes repeated registrations idempotent, including the racing
// duplicate case.
func (r *Repository) UpsertFree(ctx context.Context, p UpsertFreeParams) (*models.Enrollment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO enrollments (user_id, event_id, status, purchase_date, amount_paid,
		                         payment_id, certificate_name, registration_email)
		VALUES ($1, $2, 'FREE_REGISTERED', NOW(), 0, NULL, $3, $4)
		ON CONFLICT (user_id, event_id) DO UPDATE SET
			status             = 'FREE_REGISTERED',
			purchase_date      = NOW(),
			amount_paid        = 0,
			payment_id         = NULL,
			certificate_name   = EXCLUDED.certificate_name,
			registration_email = EXCLUDED.registration_email,
			updated_at         = NOW()
		RETURNING `+enrollmentColumns,
		p.UserID, p.EventID, p.CertificateName, p.RegistrationEmail)
	return scanEnrollment(row)
}

// UpsertPaidParams stamp a successful paid registration and its ledger row.
type UpsertPaidParams struct {
	UserID        uuid.UUID
	EventID       uuid.UUID
	AmountPaid    float64
	TransactionID string
}

// UpsertPaid performs the paid transition in one transaction: the
// enrollment is upserted to PAID_SUCCESS and the payment row inserted. A
// duplicate transaction_id aborts the whole transaction, so a PAID_SUCCESS
// enrollment never exists without exactly one matching payment.
func (r *Repository) UpsertPaid(ctx context.Context, p UpsertPaidParams) (*models.Enrollment, *models.Payment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO enrollments (user_id, event_id, status, purchase_date, amount_paid, payment_id)
		VALUES ($1, $2, 'PAID_SUCCESS', NOW(), $3, $4)
		ON CONFLICT (user_id, event_id) DO UPDATE SET
			status        = 'PAID_SUCCESS',
			purchase_date = NOW(),
			amount_paid   = EXCLUDED.amount_paid,
			payment_id    = EXCLUDED.payment_id,
			updated_at    = NOW()
		RETURNING `+enrollmentColumns,
		p.UserID, p.EventID, p.AmountPaid, p.TransactionID)
	enrollment, err := scanEnrollment(row)
	if err != nil {
		return nil, nil, err
	}

	var payment models.Payment
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (user_id, event_id, transaction_id, payment_gateway, amount, status, payment_date)
		VALUES ($1, $2, $3, $4, $5, 'SUCCESS', NOW())
		RETURNING id, user_id, event_id, transaction_id, payment_gateway, amount, status,
		          payment_date, created_at, updated_at`,
		p.UserID, p.EventID, p.TransactionID, models.GatewayInstamojo, p.AmountPaid).
		Scan(&payment.ID, &payment.UserID, &payment.EventID, &payment.TransactionID,
			&payment.PaymentGateway, &payment.Amount, &payment.Status,
			&payment.PaymentDate, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return enrollment, &payment, nil
}

// ListMine returns the user's unlocked enrollments with a minimal event
// projection. Events deleted from the catalog still list with an empty
// projection.
func (r *Repository) ListMine(ctx context.Context, userID uuid.UUID) ([]models.EnrollmentWithEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT en.id, en.user_id, en.event_id, en.status, en.purchase_date, en.amount_paid,
		       COALESCE(en.payment_id, ''), COALESCE(en.certificate_name, ''),
		       COALESCE(en.registration_email, ''), en.access_expires, en.created_at, en.updated_at,
		       COALESCE(e.full_name, ''), COALESCE(e.short_name, ''),
		       COALESCE(e.reg_type, ''), COALESCE(e.amount, 0)
		FROM enrollments en
		LEFT JOIN events e ON e.id = en.event_id
		WHERE en.user_id = $1
		  AND en.status IN ('FREE_REGISTERED', 'PAID_SUCCESS')
		  AND (en.access_expires IS NULL OR en.access_expires > NOW())
		ORDER BY en.purchase_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.EnrollmentWithEvent{}
	for rows.Next() {
		var item models.EnrollmentWithEvent
		if err := rows.Scan(&item.ID, &item.UserID, &item.EventID, &item.Status, &item.PurchaseDate,
			&item.AmountPaid, &item.PaymentID, &item.CertificateName, &item.RegistrationEmail,
			&item.AccessExpires, &item.CreatedAt, &item.UpdatedAt,
			&item.Event.FullName, &item.Event.ShortName, &item.Event.RegType, &item.Event.Amount); err != nil {
			return nil, err
		}
		item.Event.ID = item.EventID
		out = append(out, item)
	}
	return out, rows.Err()
}

// AdminFilter narrows the admin listing.
type AdminFilter struct {
	EventID *uuid.UUID
	UserID  *uuid.UUID
}

// AdminList returns all enrollment rows with joined user/event summaries,
// newest purchases first.
func (r *Repository) AdminList(ctx context.Context, f AdminFilter) ([]models.EnrollmentAdminView, error) {
	where := "TRUE"
	args := []any{}
	if f.EventID != nil {
		args = append(args, *f.EventID)
		where += fmt.Sprintf(" AND en.event_id = $%d", len(args))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where += fmt.Sprintf(" AND en.user_id = $%d", len(args))
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT en.id, en.user_id, en.event_id, en.status, en.purchase_date, en.amount_paid,
		       COALESCE(en.payment_id, ''), COALESCE(en.certificate_name, ''),
		       COALESCE(en.registration_email, ''), en.access_expires, en.created_at, en.updated_at,
		       u.id, u.full_name, u.email, u.mobile,
		       e.id, e.full_name, e.short_name, e.reg_type, e.amount
		FROM enrollments en
		LEFT JOIN users u ON u.id = en.user_id
		LEFT JOIN events e ON e.id = en.event_id
		WHERE %s
		ORDER BY en.purchase_date DESC`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.EnrollmentAdminView{}
	for rows.Next() {
		var item models.EnrollmentAdminView
		var (
			uID                    *uuid.UUID
			uName, uEmail, uMobile *string
			eID                    *uuid.UUID
			eFull, eShort, eReg    *string
			eAmount                *float64
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.EventID, &item.Status, &item.PurchaseDate,
			&item.AmountPaid, &item.PaymentID, &item.CertificateName, &item.RegistrationEmail,
			&item.AccessExpires, &item.CreatedAt, &item.UpdatedAt,
			&uID, &uName, &uEmail, &uMobile,
			&eID, &eFull, &eShort, &eReg, &eAmount); err != nil {
			return nil, err
		}
		if uID != nil {
			item.User = &models.UserSummary{ID: *uID, FullName: *uName, Email: *uEmail, Mobile: *uMobile}
		}
		if eID != nil {
			item.Event = &models.EventSummary{ID: *eID, FullName: *eFull, ShortName: *eShort,
				RegType: models.RegType(*eReg), Amount: *eAmount}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// AdminUpdateParams are the allow-listed administrative mutations.
// REFUNDED and CANCELLED are reachable only through here.
type AdminUpdateParams struct {
	Status          *string
	AmountPaid      *float64
	CertificateName *string
	AccessExpires   *time.Time
}

func (r *Repository) AdminUpdate(ctx context.Context, id uuid.UUID, p AdminUpdateParams) (*models.Enrollment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE enrollments SET
			status           = COALESCE($2, status),
			amount_paid      = COALESCE($3, amount_paid),
			certificate_name = COALESCE($4, certificate_name),
			access_expires   = COALESCE($5, access_expires),
			updated_at       = NOW()
		WHERE id = $1
		RETURNING `+enrollmentColumns,
		id, p.Status, p.AmountPaid, p.CertificateName, p.AccessExpires)
	return scanEnrollment(row)
}

func scanEnrollment(row interface{ Scan(...any) error }) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := row.Scan(&e.ID, &e.UserID, &e.EventID, &e.Status, &e.PurchaseDate, &e.AmountPaid,
		&e.PaymentID, &e.CertificateName, &e.RegistrationEmail,
		&e.AccessExpires, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

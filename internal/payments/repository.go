package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conflearn/backend/internal/models"
)

const paymentColumns = `id, user_id, event_id, transaction_id, payment_gateway, amount, status,
	payment_date, created_at, updated_at`

// Repository provides payment ledger access. Rows are written by the
// enrollment flow; this package reads and administers them.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

// ListByUser returns a user's payments with event summaries, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentView, error) {
	return r.listViews(ctx, Filter{UserID: &userID})
}

// Filter narrows the admin listing.
type Filter struct {
	UserID  *uuid.UUID
	EventID *uuid.UUID
}

// List returns payments matching the filter with joined user/event
// summaries, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.PaymentView, error) {
	return r.listViews(ctx, f)
}

func (r *Repository) listViews(ctx context.Context, f Filter) ([]models.PaymentView, error) {
	where := "TRUE"
	args := []any{}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where += fmt.Sprintf(" AND p.user_id = $%d", len(args))
	}
	if f.EventID != nil {
		args = append(args, *f.EventID)
		where += fmt.Sprintf(" AND p.event_id = $%d", len(args))
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.user_id, p.event_id, p.transaction_id, p.payment_gateway, p.amount, p.status,
		       p.payment_date, p.created_at, p.updated_at,
		       u.id, u.full_name, u.email, u.mobile,
		       e.id, e.full_name, e.short_name, e.reg_type, e.amount
		FROM payments p
		LEFT JOIN users u ON u.id = p.user_id
		LEFT JOIN events e ON e.id = p.event_id
		WHERE %s
		ORDER BY p.payment_date DESC`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PaymentView{}
	for rows.Next() {
		var item models.PaymentView
		var (
			uID                    *uuid.UUID
			uName, uEmail, uMobile *string
			eID                    *uuid.UUID
			eFull, eShort, eReg    *string
			eAmount                *float64
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.EventID, &item.TransactionID,
			&item.PaymentGateway, &item.Amount, &item.Status,
			&item.PaymentDate, &item.CreatedAt, &item.UpdatedAt,
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

// UpdateParams are the allow-listed mutable payment fields.
type UpdateParams struct {
	Status  *string
	Amount  *float64
	Gateway *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE payments SET
			status          = COALESCE($2, status),
			amount          = COALESCE($3, amount),
			payment_gateway = COALESCE($4, payment_gateway),
			updated_at      = NOW()
		WHERE id = $1
		RETURNING `+paymentColumns,
		id, p.Status, p.Amount, p.Gateway)
	return scanPayment(row)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	if err := row.Scan(&p.ID, &p.UserID, &p.EventID, &p.TransactionID, &p.PaymentGateway,
		&p.Amount, &p.Status, &p.PaymentDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

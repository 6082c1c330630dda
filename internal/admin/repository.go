package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conflearn/backend/internal/models"
)

const adminColumns = `id, email, password_hash, created_at, updated_at`

// Repository provides admin account access.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	row := r.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	return scanAdmin(row)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	row := r.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email)
	return scanAdmin(row)
}

// ResolveAdmin satisfies the auth middleware lookup.
func (r *Repository) ResolveAdmin(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	return r.GetByID(ctx, id)
}

func scanAdmin(row interface{ Scan(...any) error }) (*models.Admin, error) {
	var a models.Admin
	if err := row.Scan(&a.ID, &a.Email, &a.Password, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

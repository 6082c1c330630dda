package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conflearn/backend/internal/models"
)

const userColumns = `id, COALESCE(prefix,''), full_name, email, mobile, COALESCE(country,''), password_hash,
	COALESCE(designation,''), COALESCE(affiliation_hospital,''), COALESCE(state,''), COALESCE(city,''), COALESCE(pincode,''),
	COALESCE(profile_photo,''), COALESCE(reset_password_token,''), reset_password_expire, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Prefix, &u.FullName, &u.Email, &u.Mobile, &u.Country, &u.Password,
		&u.Designation, &u.AffiliationHospital, &u.State, &u.City, &u.Pincode,
		&u.ProfilePhoto, &u.ResetPasswordToken, &u.ResetPasswordExpire, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByEmailOrMobile returns the first user matching either field, for
// naming the conflicting field on signup.
func (r *Repository) GetByEmailOrMobile(ctx context.Context, email, mobile string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 OR mobile = $2 LIMIT 1`, email, mobile))
}

// CreateUserParams holds signup fields.
type CreateUserParams struct {
	Prefix       string
	FullName     string
	Email        string
	Mobile       string
	Country      string
	PasswordHash string
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	const q = `INSERT INTO users (prefix, full_name, email, mobile, country, password_hash)
		VALUES (NULLIF($1,''), $2, $3, $4, NULLIF($5,''), $6)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, p.Prefix, p.FullName, p.Email, p.Mobile, p.Country, p.PasswordHash))
}

// UpdateProfileParams is the allow-list of user-updatable profile fields.
// Nil pointer = leave unchanged.
type UpdateProfileParams struct {
	Prefix              *string
	FullName            *string
	Mobile              *string
	Country             *string
	Designation         *string
	AffiliationHospital *string
	State               *string
	City                *string
	Pincode             *string
	ProfilePhoto        *string
}

// UpdateProfile applies allow-listed profile fields and returns the updated row.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, p UpdateProfileParams) (*models.User, error) {
	const q = `UPDATE users SET
		prefix = COALESCE($2, prefix),
		full_name = COALESCE($3, full_name),
		mobile = COALESCE($4, mobile),
		country = COALESCE($5, country),
		designation = COALESCE($6, designation),
		affiliation_hospital = COALESCE($7, affiliation_hospital),
		state = COALESCE($8, state),
		city = COALESCE($9, city),
		pincode = COALESCE($10, pincode),
		profile_photo = COALESCE($11, profile_photo),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, id,
		p.Prefix, p.FullName, p.Mobile, p.Country, p.Designation,
		p.AffiliationHospital, p.State, p.City, p.Pincode, p.ProfilePhoto))
}

// SetResetToken stores the hashed reset token and its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error {
	const q = `UPDATE users SET reset_password_token = $2, reset_password_expire = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, tokenHash, expire)
	return err
}

// ClearResetToken removes the reset token pair.
func (r *Repository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE users SET reset_password_token = NULL, reset_password_expire = NULL, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// GetByResetToken returns the user holding an unexpired reset token hash.
func (r *Repository) GetByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE reset_password_token = $1 AND reset_password_expire > NOW()`
	return scanUser(r.pool.QueryRow(ctx, q, tokenHash))
}

// UpdatePassword sets a new password hash and clears any reset token.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, reset_password_token = NULL, reset_password_expire = NULL, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, passwordHash)
	return err
}

// List returns all users, newest first.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

// Delete removes a user. Returns true if a row was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

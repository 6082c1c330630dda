package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conflearn/backend/internal/models"
)

const sessionColumns = `id, event_id, title, start_date, start_time, COALESCE(end_time, ''),
	COALESCE(hall, ''), display_order, created_at, updated_at`

// Repository provides session storage over Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSessionParams are the fields for a new session.
type CreateSessionParams struct {
	EventID   uuid.UUID
	Title     string
	StartDate time.Time
	StartTime string
	EndTime   string
	Hall      string
	Order     int
}

func (r *Repository) Create(ctx context.Context, p CreateSessionParams) (*models.Session, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO sessions (event_id, title, start_date, start_time, end_time, hall, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+sessionColumns,
		p.EventID, p.Title, p.StartDate, p.StartTime, p.EndTime, p.Hall, p.Order)
	return scanSession(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// ListByEvent returns an event's sessions in display order.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE event_id = $1
		ORDER BY display_order, start_date, start_time`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// UpdateSessionParams are the allow-listed mutable session fields.
type UpdateSessionParams struct {
	Title     *string
	StartDate *time.Time
	StartTime *string
	EndTime   *string
	Hall      *string
	Order     *int
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateSessionParams) (*models.Session, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE sessions SET
			title         = COALESCE($2, title),
			start_date    = COALESCE($3, start_date),
			start_time    = COALESCE($4, start_time),
			end_time      = COALESCE($5, end_time),
			hall          = COALESCE($6, hall),
			display_order = COALESCE($7, display_order),
			updated_at    = NOW()
		WHERE id = $1
		RETURNING `+sessionColumns,
		id, p.Title, p.StartDate, p.StartTime, p.EndTime, p.Hall, p.Order)
	return scanSession(row)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanSession(row interface{ Scan(...any) error }) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(&s.ID, &s.EventID, &s.Title, &s.StartDate, &s.StartTime, &s.EndTime,
		&s.Hall, &s.Order, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conflearn/backend/internal/models"
)

const eventColumns = `id, full_name, short_name, COALESCE(image, ''), start_date, end_date,
	COALESCE(venue, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(country, ''),
	reg_type, amount, status, created_by, created_at, updated_at`

// Repository provides event storage over Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateEventParams are the fields for a new event.
type CreateEventParams struct {
	FullName  string
	ShortName string
	Image     string
	StartDate time.Time
	EndDate   time.Time
	Venue     string
	City      string
	State     string
	Country   string
	RegType   models.RegType
	Amount    float64
	Status    models.EventStatus
	CreatedBy uuid.UUID
}

func (r *Repository) Create(ctx context.Context, p CreateEventParams) (*models.Event, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO events (full_name, short_name, image, start_date, end_date,
		                    venue, city, state, country, reg_type, amount, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+eventColumns,
		p.FullName, p.ShortName, p.Image, p.StartDate, p.EndDate,
		p.Venue, p.City, p.State, p.Country, p.RegType, p.Amount, p.Status, p.CreatedBy)
	return scanEvent(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// ListFilter narrows and orders event listings.
type ListFilter struct {
	Status  models.EventStatus // empty = all
	RegType models.RegType     // empty = all
	Sort    string             // newest | popularity | alphabetical
}

// List returns events matching the filter. Popularity joins per-event
// enrollment counts so the sort reflects actual signups.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Event, error) {
	where := "TRUE"
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND e.status = $%d", len(args))
	}
	if f.RegType != "" {
		args = append(args, f.RegType)
		where += fmt.Sprintf(" AND e.reg_type = $%d", len(args))
	}

	order := "e.created_at DESC"
	join := ""
	switch f.Sort {
	case "popularity":
		// Popularity counts only unlocked enrollments, matching Stats.
		join = `LEFT JOIN (SELECT event_id, COUNT(*) AS cnt FROM enrollments
		        WHERE status IN ('FREE_REGISTERED', 'PAID_SUCCESS')
		        GROUP BY event_id) en ON en.event_id = e.id`
		order = "COALESCE(en.cnt, 0) DESC, e.created_at DESC"
	case "alphabetical":
		order = "e.full_name ASC"
	}

	query := fmt.Sprintf(`
		SELECT e.id, e.full_name, e.short_name, COALESCE(e.image, ''), e.start_date, e.end_date,
		       COALESCE(e.venue, ''), COALESCE(e.city, ''), COALESCE(e.state, ''), COALESCE(e.country, ''),
		       e.reg_type, e.amount, e.status, e.created_by, e.created_at, e.updated_at
		FROM events e %s WHERE %s ORDER BY %s`, join, where, order)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// UpdateEventParams are the allow-listed mutable event fields. Nil fields
// are left unchanged.
type UpdateEventParams struct {
	FullName  *string
	ShortName *string
	Image     *string
	StartDate *time.Time
	EndDate   *time.Time
	Venue     *string
	City      *string
	State     *string
	Country   *string
	RegType   *string
	Amount    *float64
	Status    *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateEventParams) (*models.Event, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE events SET
			full_name  = COALESCE($2, full_name),
			short_name = COALESCE($3, short_name),
			image      = COALESCE($4, image),
			start_date = COALESCE($5, start_date),
			end_date   = COALESCE($6, end_date),
			venue      = COALESCE($7, venue),
			city       = COALESCE($8, city),
			state      = COALESCE($9, state),
			country    = COALESCE($10, country),
			reg_type   = COALESCE($11, reg_type),
			amount     = COALESCE($12, amount),
			status     = COALESCE($13, status),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+eventColumns,
		id, p.FullName, p.ShortName, p.Image, p.StartDate, p.EndDate,
		p.Venue, p.City, p.State, p.Country, p.RegType, p.Amount, p.Status)
	return scanEvent(row)
}

// Delete removes the event together with its sessions and topics in one
// transaction. Enrollments and payments are left untouched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM topics WHERE event_id = $1`, id); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE event_id = $1`, id); err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	return true, tx.Commit(ctx)
}

// Stats aggregates enrollment, session and topic counts plus revenue for
// the admin dashboard. Revenue sums successful payments.
func (r *Repository) Stats(ctx context.Context, id uuid.UUID) (*models.EventStats, error) {
	stats := models.EventStats{EventID: id}
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM enrollments WHERE event_id = $1
			 AND status IN ('FREE_REGISTERED', 'PAID_SUCCESS')),
			(SELECT COUNT(*) FROM sessions WHERE event_id = $1),
			(SELECT COUNT(*) FROM topics WHERE event_id = $1),
			(SELECT COALESCE(SUM(amount), 0) FROM payments
			 WHERE event_id = $1 AND status = 'SUCCESS')`,
		id).Scan(&stats.EnrollmentCount, &stats.SessionCount, &stats.TopicCount, &stats.Revenue)
	if err != nil {
		return nil, err
	}

	durations, err := r.TopicDurations(ctx, id)
	if err != nil {
		return nil, err
	}
	stats.DurationMinutes = TotalMinutes(durations)
	return &stats, nil
}

// TopicDurations returns the raw duration strings of an event's topics.
func (r *Repository) TopicDurations(ctx context.Context, eventID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT COALESCE(duration, '') FROM topics WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListRegistered returns the ACTIVE events a user holds an unlocked
// enrollment for.
func (r *Repository) ListRegistered(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.full_name, e.short_name, COALESCE(e.image, ''), e.start_date, e.end_date,
		       COALESCE(e.venue, ''), COALESCE(e.city, ''), COALESCE(e.state, ''), COALESCE(e.country, ''),
		       e.reg_type, e.amount, e.status, e.created_by, e.created_at, e.updated_at
		FROM events e
		JOIN enrollments en ON en.event_id = e.id
		WHERE en.user_id = $1
		  AND en.status IN ('FREE_REGISTERED', 'PAID_SUCCESS')
		  AND (en.access_expires IS NULL OR en.access_expires > NOW())
		ORDER BY en.purchase_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	if err := row.Scan(&e.ID, &e.FullName, &e.ShortName, &e.Image, &e.StartDate, &e.EndDate,
		&e.Venue, &e.City, &e.State, &e.Country,
		&e.RegType, &e.Amount, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

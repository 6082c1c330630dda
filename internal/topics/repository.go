package topics

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conflearn/backend/internal/models"
)

const topicColumns = `id, event_id, session_id, speaker_id, title, video_link,
	COALESCE(thumbnail, ''), COALESCE(duration, ''), display_order, created_at, updated_at`

const topicViewQuery = `
	SELECT t.id, t.event_id, t.session_id, t.title, t.video_link,
	       COALESCE(t.thumbnail, ''), COALESCE(t.duration, ''), t.display_order,
	       sp.id, sp.name, COALESCE(sp.affiliation, ''), COALESCE(sp.photo, ''),
	       se.id, se.title, se.start_date, se.start_time, COALESCE(se.hall, ''),
	       t.created_at, t.updated_at
	FROM topics t
	JOIN speakers sp ON sp.id = t.speaker_id
	JOIN sessions se ON se.id = t.session_id`

// Repository provides topic storage over Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateTopicParams are the fields for a new topic.
type CreateTopicParams struct {
	EventID   uuid.UUID
	SessionID uuid.UUID
	SpeakerID uuid.UUID
	Title     string
	VideoLink string
	Thumbnail string
	Duration  string
	Order     int
}

func (r *Repository) Create(ctx context.Context, p CreateTopicParams) (*models.Topic, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO topics (event_id, session_id, speaker_id, title, video_link, thumbnail, duration, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+topicColumns,
		p.EventID, p.SessionID, p.SpeakerID, p.Title, p.VideoLink, p.Thumbnail, p.Duration, p.Order)
	return scanTopic(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	row := r.db.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = $1`, id)
	return scanTopic(row)
}

// GetView returns a topic with joined speaker and session summaries.
func (r *Repository) GetView(ctx context.Context, id uuid.UUID) (*models.TopicView, error) {
	row := r.db.QueryRow(ctx, topicViewQuery+` WHERE t.id = $1`, id)
	return scanTopicView(row)
}

// ListViewsByEvent returns an event's topics with joined summaries, in
// display order.
func (r *Repository) ListViewsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TopicView, error) {
	return r.listViews(ctx, topicViewQuery+` WHERE t.event_id = $1 ORDER BY t.display_order, t.created_at`, eventID)
}

// ListViewsBySession returns a session's topics with joined summaries.
func (r *Repository) ListViewsBySession(ctx context.Context, sessionID uuid.UUID) ([]models.TopicView, error) {
	return r.listViews(ctx, topicViewQuery+` WHERE t.session_id = $1 ORDER BY t.display_order, t.created_at`, sessionID)
}

// ListViewsByEventSession returns the topics matching both keys. The
// user-facing session listing filters on the pair so a session id from a
// different event can never return rows the URL's event check did not
// authorize.
func (r *Repository) ListViewsByEventSession(ctx context.Context, eventID, sessionID uuid.UUID) ([]models.TopicView, error) {
	return r.listViews(ctx, topicViewQuery+` WHERE t.event_id = $1 AND t.session_id = $2 ORDER BY t.display_order, t.created_at`, eventID, sessionID)
}

// ListAllViews returns every topic with joined summaries, for the admin
// catalog view.
func (r *Repository) ListAllViews(ctx context.Context) ([]models.TopicView, error) {
	return r.listViews(ctx, topicViewQuery+` ORDER BY t.event_id, t.display_order, t.created_at`)
}

func (r *Repository) listViews(ctx context.Context, query string, args ...any) ([]models.TopicView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []models.TopicView{}
	for rows.Next() {
		v, err := scanTopicView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

// UpdateTopicParams are the allow-listed mutable topic fields.
type UpdateTopicParams struct {
	SessionID *uuid.UUID
	SpeakerID *uuid.UUID
	Title     *string
	VideoLink *string
	Thumbnail *string
	Duration  *string
	Order     *int
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateTopicParams) (*models.Topic, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE topics SET
			session_id    = COALESCE($2, session_id),
			speaker_id    = COALESCE($3, speaker_id),
			title         = COALESCE($4, title),
			video_link    = COALESCE($5, video_link),
			thumbnail     = COALESCE($6, thumbnail),
			duration      = COALESCE($7, duration),
			display_order = COALESCE($8, display_order),
			updated_at    = NOW()
		WHERE id = $1
		RETURNING `+topicColumns,
		id, p.SessionID, p.SpeakerID, p.Title, p.VideoLink, p.Thumbnail, p.Duration, p.Order)
	return scanTopic(row)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanTopic(row interface{ Scan(...any) error }) (*models.Topic, error) {
	var t models.Topic
	if err := row.Scan(&t.ID, &t.EventID, &t.SessionID, &t.SpeakerID, &t.Title, &t.VideoLink,
		&t.Thumbnail, &t.Duration, &t.Order, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTopicView(row interface{ Scan(...any) error }) (*models.TopicView, error) {
	var v models.TopicView
	var session models.SessionSummary
	if err := row.Scan(&v.ID, &v.EventID, &v.SessionID, &v.Title, &v.VideoLink,
		&v.Thumbnail, &v.Duration, &v.Order,
		&v.Speaker.ID, &v.Speaker.Name, &v.Speaker.Affiliation, &v.Speaker.Photo,
		&session.ID, &session.Title, &session.StartDate, &session.StartTime, &session.Hall,
		&v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Session = &session
	return &v, nil
}

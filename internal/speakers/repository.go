package speakers

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conflearn/backend/internal/models"
)

const speakerColumns = `id, name, COALESCE(affiliation, ''), COALESCE(state, ''),
	COALESCE(country, ''), COALESCE(photo, ''), created_by, created_at, updated_at`

// Repository provides speaker storage over Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSpeakerParams are the fields for a new speaker.
type CreateSpeakerParams struct {
	Name        string
	Affiliation string
	State       string
	Country     string
	Photo       string
	CreatedBy   uuid.UUID
}

func (r *Repository) Create(ctx context.Context, p CreateSpeakerParams) (*models.Speaker, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO speakers (name, affiliation, state, country, photo, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+speakerColumns,
		p.Name, p.Affiliation, p.State, p.Country, p.Photo, p.CreatedBy)
	return scanSpeaker(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Speaker, error) {
	row := r.db.QueryRow(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE id = $1`, id)
	return scanSpeaker(row)
}

// List returns all speakers. sortByTopics orders by each speaker's topic
// count descending; otherwise newest first.
func (r *Repository) List(ctx context.Context, sortByTopics bool) ([]models.Speaker, error) {
	order := "s.created_at DESC"
	if sortByTopics {
		order = "COALESCE(t.cnt, 0) DESC, s.name ASC"
	}
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.name, COALESCE(s.affiliation, ''), COALESCE(s.state, ''),
		       COALESCE(s.country, ''), COALESCE(s.photo, ''), s.created_by,
		       COALESCE(t.cnt, 0), s.created_at, s.updated_at
		FROM speakers s
		LEFT JOIN (SELECT speaker_id, COUNT(*) AS cnt FROM topics GROUP BY speaker_id) t
		  ON t.speaker_id = s.id
		ORDER BY `+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	speakers := []models.Speaker{}
	for rows.Next() {
		var s models.Speaker
		if err := rows.Scan(&s.ID, &s.Name, &s.Affiliation, &s.State, &s.Country, &s.Photo,
			&s.CreatedBy, &s.TopicCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		speakers = append(speakers, s)
	}
	return speakers, rows.Err()
}

// UpdateSpeakerParams are the allow-listed mutable speaker fields.
type UpdateSpeakerParams struct {
	Name        *string
	Affiliation *string
	State       *string
	Country     *string
	Photo       *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateSpeakerParams) (*models.Speaker, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE speakers SET
			name        = COALESCE($2, name),
			affiliation = COALESCE($3, affiliation),
			state       = COALESCE($4, state),
			country     = COALESCE($5, country),
			photo       = COALESCE($6, photo),
			updated_at  = NOW()
		WHERE id = $1
		RETURNING `+speakerColumns,
		id, p.Name, p.Affiliation, p.State, p.Country, p.Photo)
	return scanSpeaker(row)
}

// Delete removes a speaker. Fails with a foreign key violation while any
// topic still references them.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM speakers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanSpeaker(row interface{ Scan(...any) error }) (*models.Speaker, error) {
	var s models.Speaker
	if err := row.Scan(&s.ID, &s.Name, &s.Affiliation, &s.State, &s.Country, &s.Photo,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

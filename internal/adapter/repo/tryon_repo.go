package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"miora/internal/domain"
)

// TryOnSessionRepositoryPG implements domain.TryOnSessionRepository.
type TryOnSessionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTryOnSessionRepository creates a new try-on session repository backed by PostgreSQL.
func NewTryOnSessionRepository(pool *pgxpool.Pool) *TryOnSessionRepositoryPG {
	return &TryOnSessionRepositoryPG{pool: pool}
}

const sessionColumns = `id, owner_id, avatar_id, garment_id, name, result_image_url, fit_score, created_at, updated_at`

// Create inserts a new try-on session record.
func (r *TryOnSessionRepositoryPG) Create(ctx context.Context, session *domain.TryOnSession) error {
	query := `
INSERT INTO tryon_sessions (id, owner_id, avatar_id, garment_id, name)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		session.ID,
		session.OwnerID,
		session.AvatarID,
		session.GarmentID,
		session.Name,
	)
	return row.Scan(&session.CreatedAt, &session.UpdatedAt)
}

// GetByID fetches a session by its identifier.
func (r *TryOnSessionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.TryOnSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM tryon_sessions WHERE id = $1;`
	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

// ListByOwner returns all sessions belonging to the given owner.
func (r *TryOnSessionRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.TryOnSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM tryon_sessions WHERE owner_id = $1 ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.TryOnSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// SetResult records the rendered composite and fit score.
func (r *TryOnSessionRepositoryPG) SetResult(ctx context.Context, id, resultImageURL string, fitScore float64) error {
	query := `
UPDATE tryon_sessions
SET result_image_url = $2, fit_score = $3, updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, resultImageURL, fitScore)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (*domain.TryOnSession, error) {
	var session domain.TryOnSession
	if err := row.Scan(
		&session.ID,
		&session.OwnerID,
		&session.AvatarID,
		&session.GarmentID,
		&session.Name,
		&session.ResultImageURL,
		&session.FitScore,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &session, nil
}

var _ domain.TryOnSessionRepository = (*TryOnSessionRepositoryPG)(nil)

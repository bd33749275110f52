package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"miora/internal/domain"
)

// AvatarRepositoryPG implements domain.AvatarRepository.
type AvatarRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAvatarRepository creates a new avatar repository backed by PostgreSQL.
func NewAvatarRepository(pool *pgxpool.Pool) *AvatarRepositoryPG {
	return &AvatarRepositoryPG{pool: pool}
}

const avatarColumns = `id, owner_id, name, is_active, height, weight, chest, waist, hips, shoulder_width, arm_length, inseam, body_type, skin_tone, hair_color, model_file_url, thumbnail_url, created_at, updated_at`

// Create inserts a new avatar. When the avatar is active, any previously
// active avatar of the same owner is deactivated in the same transaction.
func (r *AvatarRepositoryPG) Create(ctx context.Context, avatar *domain.Avatar) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if avatar.IsActive {
		deactivate := `
UPDATE avatars SET is_active = FALSE, updated_at = NOW()
WHERE owner_id = $1 AND is_active = TRUE;
`
		if _, err := tx.Exec(ctx, deactivate, avatar.OwnerID); err != nil {
			return err
		}
	}

	insert := `
INSERT INTO avatars (id, owner_id, name, is_active, height, weight, chest, waist, hips, shoulder_width, arm_length, inseam, body_type, skin_tone, hair_color)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING created_at, updated_at;
`
	m := avatar.Measurements
	row := tx.QueryRow(ctx, insert,
		avatar.ID,
		avatar.OwnerID,
		avatar.Name,
		avatar.IsActive,
		m.Height,
		m.Weight,
		m.Chest,
		m.Waist,
		m.Hips,
		m.ShoulderWidth,
		m.ArmLength,
		m.Inseam,
		avatar.BodyType,
		avatar.SkinTone,
		avatar.HairColor,
	)
	if err := row.Scan(&avatar.CreatedAt, &avatar.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID fetches an avatar by its identifier.
func (r *AvatarRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Avatar, error) {
	query := `SELECT ` + avatarColumns + ` FROM avatars WHERE id = $1;`
	avatar, err := scanAvatar(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return avatar, nil
}

// ListByOwner returns all avatars belonging to the given owner.
func (r *AvatarRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.Avatar, error) {
	query := `SELECT ` + avatarColumns + ` FROM avatars WHERE owner_id = $1 ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var avatars []domain.Avatar
	for rows.Next() {
		avatar, err := scanAvatar(rows)
		if err != nil {
			return nil, err
		}
		avatars = append(avatars, *avatar)
	}
	return avatars, rows.Err()
}

// SetModelRefs records the generated model and thumbnail URLs.
func (r *AvatarRepositoryPG) SetModelRefs(ctx context.Context, id, modelURL, thumbnailURL string) error {
	query := `
UPDATE avatars
SET model_file_url = $2, thumbnail_url = $3, updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, modelURL, thumbnailURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAvatar(row pgx.Row) (*domain.Avatar, error) {
	var avatar domain.Avatar
	m := &avatar.Measurements
	if err := row.Scan(
		&avatar.ID,
		&avatar.OwnerID,
		&avatar.Name,
		&avatar.IsActive,
		&m.Height,
		&m.Weight,
		&m.Chest,
		&m.Waist,
		&m.Hips,
		&m.ShoulderWidth,
		&m.ArmLength,
		&m.Inseam,
		&avatar.BodyType,
		&avatar.SkinTone,
		&avatar.HairColor,
		&avatar.ModelFileURL,
		&avatar.ThumbnailURL,
		&avatar.CreatedAt,
		&avatar.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &avatar, nil
}

var _ domain.AvatarRepository = (*AvatarRepositoryPG)(nil)

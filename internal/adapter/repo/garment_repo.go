package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"miora/internal/domain"
)

// GarmentRepositoryPG implements domain.GarmentRepository.
type GarmentRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGarmentRepository creates a new garment repository backed by PostgreSQL.
func NewGarmentRepository(pool *pgxpool.Pool) *GarmentRepositoryPG {
	return &GarmentRepositoryPG{pool: pool}
}

const garmentColumns = `id, owner_id, name, brand, category, original_image_url, cleaned_image_url, thumbnail_url, color, available_sizes, created_at, updated_at`

// Create inserts a new garment record.
func (r *GarmentRepositoryPG) Create(ctx context.Context, garment *domain.Garment) error {
	query := `
INSERT INTO garments (id, owner_id, name, brand, category, original_image_url, color, available_sizes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		garment.ID,
		garment.OwnerID,
		garment.Name,
		garment.Brand,
		garment.Category,
		garment.OriginalImageURL,
		garment.Color,
		garment.AvailableSizes,
	)
	return row.Scan(&garment.CreatedAt, &garment.UpdatedAt)
}

// GetByID fetches a garment by its identifier.
func (r *GarmentRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Garment, error) {
	query := `SELECT ` + garmentColumns + ` FROM garments WHERE id = $1;`
	garment, err := scanGarment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return garment, nil
}

// ListByOwner returns all garments belonging to the given owner.
func (r *GarmentRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.Garment, error) {
	query := `SELECT ` + garmentColumns + ` FROM garments WHERE owner_id = $1 ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var garments []domain.Garment
	for rows.Next() {
		garment, err := scanGarment(rows)
		if err != nil {
			return nil, err
		}
		garments = append(garments, *garment)
	}
	return garments, rows.Err()
}

// SetProcessedRefs records the cleaned image and thumbnail produced by the
// processing job.
func (r *GarmentRepositoryPG) SetProcessedRefs(ctx context.Context, id, cleanedImageURL, thumbnailURL string) error {
	query := `
UPDATE garments
SET cleaned_image_url = $2, thumbnail_url = $3, updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, cleanedImageURL, thumbnailURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanGarment(row pgx.Row) (*domain.Garment, error) {
	var garment domain.Garment
	if err := row.Scan(
		&garment.ID,
		&garment.OwnerID,
		&garment.Name,
		&garment.Brand,
		&garment.Category,
		&garment.OriginalImageURL,
		&garment.CleanedImageURL,
		&garment.ThumbnailURL,
		&garment.Color,
		&garment.AvailableSizes,
		&garment.CreatedAt,
		&garment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &garment, nil
}

var _ domain.GarmentRepository = (*GarmentRepositoryPG)(nil)

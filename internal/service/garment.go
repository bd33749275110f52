package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"miora/internal/domain"
	"miora/internal/orchestrator"
)

var brandCaser = cases.Title(language.English)

// GarmentService manages garment entities and delegates image processing to
// the orchestrator.
type GarmentService struct {
	garments domain.GarmentRepository
	orch     *orchestrator.Orchestrator
	logger   zerolog.Logger
}

// NewGarmentService constructs the service and registers its completion hook.
func NewGarmentService(garments domain.GarmentRepository, orch *orchestrator.Orchestrator, logger zerolog.Logger) *GarmentService {
	s := &GarmentService{garments: garments, orch: orch, logger: logger}
	orch.OnCompletion(s.applyJobResult)
	return s
}

// CreateGarmentInput carries the caller-supplied garment fields.
type CreateGarmentInput struct {
	Name             string
	Brand            string
	Category         domain.GarmentCategory
	OriginalImageURL string
	Color            string
	AvailableSizes   []string
}

// Create stores a new garment and enqueues its processing job in PENDING.
func (s *GarmentService) Create(ctx context.Context, ownerID string, input CreateGarmentInput) (*domain.Garment, *domain.Job, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: garment name is required", domain.ErrInvalidInput)
	}
	if !domain.ValidGarmentCategory(input.Category) {
		return nil, nil, fmt.Errorf("%w: unknown garment category %q", domain.ErrInvalidInput, input.Category)
	}
	if strings.TrimSpace(input.OriginalImageURL) == "" {
		return nil, nil, fmt.Errorf("%w: original image url is required", domain.ErrInvalidInput)
	}

	garment := &domain.Garment{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		Name:             name,
		Brand:            brandCaser.String(strings.ToLower(strings.TrimSpace(input.Brand))),
		Category:         input.Category,
		OriginalImageURL: strings.TrimSpace(input.OriginalImageURL),
		Color:            strings.ToLower(strings.TrimSpace(input.Color)),
		AvailableSizes:   input.AvailableSizes,
	}
	if err := s.garments.Create(ctx, garment); err != nil {
		return nil, nil, err
	}

	job, err := s.orch.CreateJob(ctx, ownerID, domain.KindGarmentProcessing, map[string]string{
		"garment": garment.ID,
		"image":   garment.OriginalImageURL,
	})
	if err != nil {
		return nil, nil, err
	}
	return garment, job, nil
}

// Get returns the garment, enforcing ownership.
func (s *GarmentService) Get(ctx context.Context, ownerID, id string) (*domain.Garment, error) {
	garment, err := s.garments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if garment.OwnerID != ownerID {
		return nil, domain.ErrUnauthorized
	}
	return garment, nil
}

// List returns all garments of the owner.
func (s *GarmentService) List(ctx context.Context, ownerID string) ([]domain.Garment, error) {
	return s.garments.ListByOwner(ctx, ownerID)
}

func (s *GarmentService) applyJobResult(ctx context.Context, job domain.Job) {
	if job.Kind != domain.KindGarmentProcessing || job.Status != domain.JobStatusCompleted {
		return
	}
	garmentID := job.InputRefs["garment"]
	if garmentID == "" {
		s.logger.Error().Str("job_id", job.ID).Msg("garment: completed job missing garment ref")
		return
	}
	if err := s.garments.SetProcessedRefs(ctx, garmentID, job.ResultRef, thumbnailRef(job.ResultRef)); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Str("garment_id", garmentID).Msg("garment: failed to apply job result")
		return
	}
	s.logger.Info().Str("job_id", job.ID).Str("garment_id", garmentID).Msg("garment: processed refs updated")
}

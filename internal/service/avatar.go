package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"miora/internal/domain"
	"miora/internal/orchestrator"
)

// AvatarService manages avatar entities and delegates reconstruction work to
// the orchestrator. It never writes job status itself.
type AvatarService struct {
	avatars domain.AvatarRepository
	orch    *orchestrator.Orchestrator
	logger  zerolog.Logger
}

// NewAvatarService constructs the service and registers its completion hook
// so finished generation jobs are copied back onto the avatar record.
func NewAvatarService(avatars domain.AvatarRepository, orch *orchestrator.Orchestrator, logger zerolog.Logger) *AvatarService {
	s := &AvatarService{avatars: avatars, orch: orch, logger: logger}
	orch.OnCompletion(s.applyJobResult)
	return s
}

// CreateAvatarInput carries the caller-supplied avatar fields.
type CreateAvatarInput struct {
	Name           string
	SourcePhotoURL string
	Measurements   domain.Measurements
	BodyType       domain.BodyType
	SkinTone       string
	HairColor      string
	IsActive       bool
}

// Create stores a new avatar and enqueues its generation job in PENDING.
func (s *AvatarService) Create(ctx context.Context, ownerID string, input CreateAvatarInput) (*domain.Avatar, *domain.Job, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, nil, fmt.Errorf("%w: avatar name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(input.SourcePhotoURL) == "" {
		return nil, nil, fmt.Errorf("%w: source photo url is required", domain.ErrInvalidInput)
	}
	if input.BodyType == "" {
		input.BodyType = domain.BodyTypeAverage
	}
	if !domain.ValidBodyType(input.BodyType) {
		return nil, nil, fmt.Errorf("%w: unknown body type %q", domain.ErrInvalidInput, input.BodyType)
	}
	m := input.Measurements
	if m.Height < 50 || m.Chest < 50 || m.Waist < 40 || m.Hips < 50 {
		return nil, nil, fmt.Errorf("%w: body measurements out of range", domain.ErrInvalidInput)
	}

	avatar := &domain.Avatar{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(input.Name),
		IsActive:     input.IsActive,
		Measurements: input.Measurements,
		BodyType:     input.BodyType,
		SkinTone:     input.SkinTone,
		HairColor:    input.HairColor,
	}
	if err := s.avatars.Create(ctx, avatar); err != nil {
		return nil, nil, err
	}

	job, err := s.orch.CreateJob(ctx, ownerID, domain.KindAvatarGeneration, map[string]string{
		"avatar": avatar.ID,
		"photo":  input.SourcePhotoURL,
	})
	if err != nil {
		return nil, nil, err
	}
	return avatar, job, nil
}

// Get returns the avatar, enforcing ownership.
func (s *AvatarService) Get(ctx context.Context, ownerID, id string) (*domain.Avatar, error) {
	avatar, err := s.avatars.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if avatar.OwnerID != ownerID {
		return nil, domain.ErrUnauthorized
	}
	return avatar, nil
}

// List returns all avatars of the owner.
func (s *AvatarService) List(ctx context.Context, ownerID string) ([]domain.Avatar, error) {
	return s.avatars.ListByOwner(ctx, ownerID)
}

func (s *AvatarService) applyJobResult(ctx context.Context, job domain.Job) {
	if job.Kind != domain.KindAvatarGeneration || job.Status != domain.JobStatusCompleted {
		return
	}
	avatarID := job.InputRefs["avatar"]
	if avatarID == "" {
		s.logger.Error().Str("job_id", job.ID).Msg("avatar: completed job missing avatar ref")
		return
	}
	if err := s.avatars.SetModelRefs(ctx, avatarID, job.ResultRef, thumbnailRef(job.ResultRef)); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Str("avatar_id", avatarID).Msg("avatar: failed to apply job result")
		return
	}
	s.logger.Info().Str("job_id", job.ID).Str("avatar_id", avatarID).Msg("avatar: model refs updated")
}

// thumbnailRef derives the thumbnail location from the model artifact. The
// processor writes both next to each other.
func thumbnailRef(modelURL string) string {
	if modelURL == "" {
		return ""
	}
	if idx := strings.LastIndex(modelURL, "."); idx > strings.LastIndex(modelURL, "/") {
		return modelURL[:idx] + "_thumb.png"
	}
	return modelURL + "_thumb.png"
}

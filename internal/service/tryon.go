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

// TryOnService manages try-on sessions and delegates rendering to the
// orchestrator.
type TryOnService struct {
	sessions domain.TryOnSessionRepository
	avatars  domain.AvatarRepository
	garments domain.GarmentRepository
	orch     *orchestrator.Orchestrator
	logger   zerolog.Logger
}

// NewTryOnService constructs the service and registers its completion hook.
func NewTryOnService(
	sessions domain.TryOnSessionRepository,
	avatars domain.AvatarRepository,
	garments domain.GarmentRepository,
	orch *orchestrator.Orchestrator,
	logger zerolog.Logger,
) *TryOnService {
	s := &TryOnService{sessions: sessions, avatars: avatars, garments: garments, orch: orch, logger: logger}
	orch.OnCompletion(s.applyJobResult)
	return s
}

// CreateSessionInput carries the caller-supplied session fields.
type CreateSessionInput struct {
	AvatarID  string
	GarmentID string
	Name      string
}

// CreateSession stores a new try-on session and enqueues its render job.
// Both referenced entities must exist and belong to the caller.
func (s *TryOnService) CreateSession(ctx context.Context, ownerID string, input CreateSessionInput) (*domain.TryOnSession, *domain.Job, error) {
	if strings.TrimSpace(input.AvatarID) == "" || strings.TrimSpace(input.GarmentID) == "" {
		return nil, nil, fmt.Errorf("%w: avatar id and garment id are required", domain.ErrInvalidInput)
	}
	avatar, err := s.avatars.GetByID(ctx, input.AvatarID)
	if err != nil {
		return nil, nil, err
	}
	if avatar.OwnerID != ownerID {
		return nil, nil, domain.ErrUnauthorized
	}
	garment, err := s.garments.GetByID(ctx, input.GarmentID)
	if err != nil {
		return nil, nil, err
	}
	if garment.OwnerID != ownerID {
		return nil, nil, domain.ErrUnauthorized
	}

	session := &domain.TryOnSession{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		AvatarID:  avatar.ID,
		GarmentID: garment.ID,
		Name:      strings.TrimSpace(input.Name),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}

	// Render against the cleaned garment image when processing already
	// produced one.
	garmentImage := garment.CleanedImageURL
	if garmentImage == "" {
		garmentImage = garment.OriginalImageURL
	}
	job, err := s.orch.CreateJob(ctx, ownerID, domain.KindTryOnRender, map[string]string{
		"session":       session.ID,
		"avatar":        avatar.ID,
		"garment":       garment.ID,
		"garment_image": garmentImage,
	})
	if err != nil {
		return nil, nil, err
	}
	return session, job, nil
}

// GetSession returns the session, enforcing ownership.
func (s *TryOnService) GetSession(ctx context.Context, ownerID, id string) (*domain.TryOnSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.OwnerID != ownerID {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

// ListSessions returns all sessions of the owner.
func (s *TryOnService) ListSessions(ctx context.Context, ownerID string) ([]domain.TryOnSession, error) {
	return s.sessions.ListByOwner(ctx, ownerID)
}

func (s *TryOnService) applyJobResult(ctx context.Context, job domain.Job) {
	if job.Kind != domain.KindTryOnRender || job.Status != domain.JobStatusCompleted {
		return
	}
	sessionID := job.InputRefs["session"]
	if sessionID == "" {
		s.logger.Error().Str("job_id", job.ID).Msg("tryon: completed job missing session ref")
		return
	}
	// The processor reports confidence in [0,1]; sessions expose it as a
	// 0-100 fit score.
	var fitScore float64
	if job.QualityScore != nil {
		fitScore = *job.QualityScore * 100
	}
	if err := s.sessions.SetResult(ctx, sessionID, job.ResultRef, fitScore); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Str("session_id", sessionID).Msg("tryon: failed to apply job result")
		return
	}
	s.logger.Info().Str("job_id", job.ID).Str("session_id", sessionID).Float64("fit_score", fitScore).Msg("tryon: session result recorded")
}

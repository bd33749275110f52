package service

import (
	"context"
	"time"

	"miora/internal/domain"
	"miora/internal/orchestrator"
)

// JobService is the ownership-enforcing facade over the orchestrator for
// API callers. The worker and scheduler bypass it and talk to the
// orchestrator directly.
type JobService struct {
	orch *orchestrator.Orchestrator
}

// NewJobService constructs a JobService.
func NewJobService(orch *orchestrator.Orchestrator) *JobService {
	return &JobService{orch: orch}
}

// Get returns the job, enforcing ownership.
func (s *JobService) Get(ctx context.Context, ownerID, jobID string) (*domain.Job, error) {
	job, err := s.orch.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != ownerID {
		return nil, domain.ErrUnauthorized
	}
	return job, nil
}

// Dispatch submits the caller's own job for processing.
func (s *JobService) Dispatch(ctx context.Context, ownerID, jobID string) error {
	if _, err := s.Get(ctx, ownerID, jobID); err != nil {
		return err
	}
	return s.orch.Dispatch(ctx, jobID)
}

// Cancel cancels the caller's own job.
func (s *JobService) Cancel(ctx context.Context, ownerID, jobID string) (*domain.Job, error) {
	if _, err := s.Get(ctx, ownerID, jobID); err != nil {
		return nil, err
	}
	return s.orch.Cancel(ctx, jobID)
}

// FindStuck surfaces jobs stuck in a non-terminal state. Operator-facing;
// not filtered by owner.
func (s *JobService) FindStuck(ctx context.Context, kind domain.JobKind, olderThan time.Duration) ([]domain.Job, error) {
	return s.orch.FindStuck(ctx, kind, olderThan)
}

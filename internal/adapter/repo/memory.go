package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"miora/internal/domain"
)

// MemoryJobRepository implements domain.JobRepository in process memory.
// It mirrors the conditional-transition semantics of the PostgreSQL
// implementation and is intended for tests and local development.
type MemoryJobRepository struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

// NewMemoryJobRepository creates an empty in-memory job repository.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*domain.Job)}
}

// Create inserts a new job record with status forced to PENDING.
func (m *MemoryJobRepository) Create(ctx context.Context, job *domain.Job) error {
	if err := validateNewJob(job); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[job.ID]; exists {
		return fmt.Errorf("%w: job %s already exists", domain.ErrInvalidInput, job.ID)
	}
	now := time.Now()
	job.Status = domain.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now
	stored := cloneJob(job)
	m.jobs[job.ID] = &stored
	return nil
}

// GetByID fetches a job by its identifier.
func (m *MemoryJobRepository) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := cloneJob(job)
	return &copied, nil
}

// UpdateStatus applies a status transition under the repository lock. The
// transition is rejected when the current status is not a legal source.
func (m *MemoryJobRepository) UpdateStatus(ctx context.Context, jobID string, next domain.JobStatus, update domain.JobUpdate) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !domain.CanTransition(job.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, next)
	}

	job.Status = next
	job.ResultRef = ""
	job.QualityScore = nil
	job.ProcessingDurationMs = nil
	job.ErrorDetail = ""
	switch next {
	case domain.JobStatusCompleted:
		job.ResultRef = update.ResultRef
		job.QualityScore = update.QualityScore
		job.ProcessingDurationMs = update.ProcessingDurationMs
	case domain.JobStatusFailed:
		job.ErrorDetail = update.ErrorDetail
	}
	job.UpdatedAt = time.Now()

	copied := cloneJob(job)
	return &copied, nil
}

// FindStuck returns non-terminal jobs of the given kind not updated within
// the threshold.
func (m *MemoryJobRepository) FindStuck(ctx context.Context, kind domain.JobKind, olderThan time.Duration) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var stuck []domain.Job
	for _, job := range m.jobs {
		if job.Kind != kind || job.Status.Terminal() {
			continue
		}
		if job.UpdatedAt.Before(cutoff) {
			stuck = append(stuck, cloneJob(job))
		}
	}
	return stuck, nil
}

// Touch backdates a job's updated_at timestamp. Test helper for stuck-job
// scenarios.
func (m *MemoryJobRepository) Touch(jobID string, updatedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		job.UpdatedAt = updatedAt
	}
}

func cloneJob(job *domain.Job) domain.Job {
	copied := *job
	if job.InputRefs != nil {
		copied.InputRefs = make(map[string]string, len(job.InputRefs))
		for k, v := range job.InputRefs {
			copied.InputRefs[k] = v
		}
	}
	if job.QualityScore != nil {
		score := *job.QualityScore
		copied.QualityScore = &score
	}
	if job.ProcessingDurationMs != nil {
		duration := *job.ProcessingDurationMs
		copied.ProcessingDurationMs = &duration
	}
	return copied
}

var _ domain.JobRepository = (*MemoryJobRepository)(nil)

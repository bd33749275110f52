package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"miora/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository backed by PostgreSQL.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

const jobColumns = `id, owner_id, kind, status, input_refs, result_ref, quality_score, processing_duration_ms, error_detail, created_at, updated_at`

// Create inserts a new job record. Status is always forced to PENDING.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	if err := validateNewJob(job); err != nil {
		return err
	}
	inputRefs, err := json.Marshal(job.InputRefs)
	if err != nil {
		return fmt.Errorf("encode input refs: %w", err)
	}
	query := `
INSERT INTO jobs (id, owner_id, kind, status, input_refs)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at;
`
	job.Status = domain.JobStatusPending
	row := r.pool.QueryRow(ctx, query, job.ID, job.OwnerID, job.Kind, job.Status, inputRefs)
	return row.Scan(&job.CreatedAt, &job.UpdatedAt)
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT ` + jobColumns + `
FROM jobs
WHERE id = $1;
`
	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// UpdateStatus atomically applies a status transition together with its
// associated result or error fields. The row is updated only when the
// current status is a legal source for next, so concurrent writers race on
// the condition rather than overwriting each other.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, jobID string, next domain.JobStatus, update domain.JobUpdate) (*domain.Job, error) {
	sources := domain.TransitionSources(next)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s is not a reachable status", domain.ErrInvalidTransition, next)
	}
	sourceList := make([]string, len(sources))
	for i, s := range sources {
		sourceList[i] = string(s)
	}

	var (
		resultRef   string
		errorDetail string
		score       *float64
		durationMs  *int64
	)
	switch next {
	case domain.JobStatusCompleted:
		resultRef = update.ResultRef
		score = update.QualityScore
		durationMs = update.ProcessingDurationMs
	case domain.JobStatusFailed:
		errorDetail = update.ErrorDetail
	}

	query := `
UPDATE jobs
SET status = $2,
    result_ref = $3,
    quality_score = $4,
    processing_duration_ms = $5,
    error_detail = $6,
    updated_at = NOW()
WHERE id = $1 AND status = ANY($7)
RETURNING ` + jobColumns + `;
`
	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID, next, resultRef, score, durationMs, errorDetail, sourceList))
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No row matched: either the job does not exist or its current status
	// is not a legal source. Re-read to tell the two apart.
	current, getErr := r.GetByID(ctx, jobID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, next)
}

// FindStuck returns non-terminal jobs of the given kind whose last update is
// older than the threshold. Used by the reconciliation sweep.
func (r *JobRepositoryPG) FindStuck(ctx context.Context, kind domain.JobKind, olderThan time.Duration) ([]domain.Job, error) {
	query := `
SELECT ` + jobColumns + `
FROM jobs
WHERE kind = $1
  AND status IN ('PENDING', 'PROCESSING')
  AND updated_at < $2
ORDER BY updated_at ASC;
`
	rows, err := r.pool.Query(ctx, query, kind, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job       domain.Job
		inputRefs []byte
	)
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Kind,
		&job.Status,
		&inputRefs,
		&job.ResultRef,
		&job.QualityScore,
		&job.ProcessingDurationMs,
		&job.ErrorDetail,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(inputRefs) > 0 {
		if err := json.Unmarshal(inputRefs, &job.InputRefs); err != nil {
			return nil, fmt.Errorf("decode input refs: %w", err)
		}
	}
	return &job, nil
}

func validateNewJob(job *domain.Job) error {
	if job == nil {
		return fmt.Errorf("%w: job is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(job.OwnerID) == "" {
		return fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}
	if !domain.ValidKind(job.Kind) {
		return fmt.Errorf("%w: unknown job kind %q", domain.ErrInvalidInput, job.Kind)
	}
	if len(job.InputRefs) == 0 {
		return fmt.Errorf("%w: input refs are required", domain.ErrInvalidInput)
	}
	return nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)

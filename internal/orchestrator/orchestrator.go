package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"miora/internal/domain"
	"miora/internal/processor"
)

// ProcessorClient is the submission contract the orchestrator needs from the
// external ML/CV service adapter.
type ProcessorClient interface {
	Submit(ctx context.Context, kind domain.JobKind, inputRefs map[string]string) (*processor.Result, error)
}

// CompletionHook is invoked after a job reaches a terminal state. Hooks run
// synchronously on the dispatching goroutine and receive a copy of the job.
type CompletionHook func(ctx context.Context, job domain.Job)

// Orchestrator owns the job state machine. It is the only writer of job
// status; domain services create jobs and request transitions through it.
type Orchestrator struct {
	jobs      domain.JobRepository
	processor ProcessorClient
	logger    zerolog.Logger

	mu    sync.RWMutex
	hooks []CompletionHook
}

// New constructs an Orchestrator.
func New(jobs domain.JobRepository, client ProcessorClient, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{jobs: jobs, processor: client, logger: logger}
}

// OnCompletion registers a hook fired on every terminal transition. Domain
// services use this to copy job results back onto their own entities
// without the orchestrator referencing them.
func (o *Orchestrator) OnCompletion(hook CompletionHook) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hooks = append(o.hooks, hook)
}

// CreateJob records a new unit of work in PENDING state.
func (o *Orchestrator) CreateJob(ctx context.Context, ownerID string, kind domain.JobKind, inputRefs map[string]string) (*domain.Job, error) {
	job := &domain.Job{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Kind:      kind,
		Status:    domain.JobStatusPending,
		InputRefs: inputRefs,
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	o.logger.Info().Str("job_id", job.ID).Str("kind", string(kind)).Str("owner_id", ownerID).Msg("orchestrator: job created")
	return job, nil
}

// Dispatch claims a PENDING job and submits it to the external processor.
//
// The PENDING -> PROCESSING transition is persisted before the network call
// so a crash mid-submission leaves the job visibly PROCESSING for the
// reconciliation sweep. The store's conditional update guarantees at most
// one dispatch wins; a second caller gets ErrInvalidTransition.
//
// Caller mistakes (unknown id, illegal transition) are returned. Processor
// failures are not: they are recorded on the job as FAILED and surface on
// the next read.
func (o *Orchestrator) Dispatch(ctx context.Context, jobID string) error {
	job, err := o.jobs.UpdateStatus(ctx, jobID, domain.JobStatusProcessing, domain.JobUpdate{})
	if err != nil {
		return err
	}
	o.logger.Info().Str("job_id", job.ID).Str("kind", string(job.Kind)).Msg("orchestrator: job dispatched")

	started := time.Now()
	result, err := o.processor.Submit(ctx, job.Kind, job.InputRefs)
	if err != nil {
		o.recordFailure(ctx, job, err)
		return nil
	}

	update := domain.JobUpdate{
		ResultRef:            result.ResultRef,
		QualityScore:         &result.QualityScore,
		ProcessingDurationMs: &result.ProcessingDurationMs,
	}
	if result.ProcessingDurationMs == 0 {
		elapsed := time.Since(started).Milliseconds()
		update.ProcessingDurationMs = &elapsed
	}

	// The job must not stay PROCESSING because the dispatch context died
	// after the processor already answered.
	completed, err := o.jobs.UpdateStatus(context.WithoutCancel(ctx), jobID, domain.JobStatusCompleted, update)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Lost the race against a cancellation; the result is discarded.
			o.logger.Info().Str("job_id", jobID).Msg("orchestrator: late processor result discarded")
			return nil
		}
		return err
	}
	o.logger.Info().
		Str("job_id", completed.ID).
		Str("kind", string(completed.Kind)).
		Float64("quality_score", result.QualityScore).
		Int64("duration_ms", *update.ProcessingDurationMs).
		Msg("orchestrator: job completed")
	o.notify(ctx, completed)
	return nil
}

func (o *Orchestrator) recordFailure(ctx context.Context, job *domain.Job, cause error) {
	detail := cause.Error()
	failed, err := o.jobs.UpdateStatus(context.WithoutCancel(ctx), job.ID, domain.JobStatusFailed, domain.JobUpdate{ErrorDetail: detail})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			o.logger.Info().Str("job_id", job.ID).Msg("orchestrator: late processor failure discarded")
			return
		}
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("orchestrator: failed to record job failure")
		return
	}
	o.logger.Warn().Str("job_id", job.ID).Str("kind", string(job.Kind)).Str("error_detail", detail).Msg("orchestrator: job failed")
	o.notify(ctx, failed)
}

// Cancel moves a PENDING or PROCESSING job to CANCELLED. A processor
// response arriving after cancellation is rejected by the state machine and
// discarded.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := o.jobs.UpdateStatus(ctx, jobID, domain.JobStatusCancelled, domain.JobUpdate{})
	if err != nil {
		return nil, err
	}
	o.logger.Info().Str("job_id", job.ID).Str("kind", string(job.Kind)).Msg("orchestrator: job cancelled")
	o.notify(ctx, job)
	return job, nil
}

// GetJob returns the current job record.
func (o *Orchestrator) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return o.jobs.GetByID(ctx, jobID)
}

// FindStuck surfaces jobs that have sat in a non-terminal state past the
// threshold. Callers report them; the orchestrator never force-fails a job
// that may still be in flight.
func (o *Orchestrator) FindStuck(ctx context.Context, kind domain.JobKind, olderThan time.Duration) ([]domain.Job, error) {
	return o.jobs.FindStuck(ctx, kind, olderThan)
}

func (o *Orchestrator) notify(ctx context.Context, job *domain.Job) {
	o.mu.RLock()
	hooks := make([]CompletionHook, len(o.hooks))
	copy(hooks, o.hooks)
	o.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, *job)
	}
}

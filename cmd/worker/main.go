package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"miora/internal/adapter/repo"
	"miora/internal/domain"
	"miora/internal/infra"
	"miora/internal/orchestrator"
	"miora/internal/processor"
	"miora/internal/service"
	"miora/internal/sqlinline"
)

// jobWorker drains PENDING jobs into the orchestrator. Claiming happens in
// the orchestrator's conditional status update, so any number of worker
// processes can poll the same table.
type jobWorker struct {
	ctx          context.Context
	runner       *infra.SQLRunner
	orch         *orchestrator.Orchestrator
	logger       infra.Logger
	pollInterval time.Duration
	slots        chan struct{}
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	procClient, err := processor.NewClient(processor.Options{
		BaseURL:       cfg.ProcessorBaseURL,
		APIKey:        cfg.ProcessorAPIKey,
		HTTPClient:    &http.Client{},
		Timeout:       cfg.ProcessorTimeout,
		HealthTimeout: cfg.ProcessorHealthTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure processor client")
	}

	jobs := repo.NewJobRepository(pool)
	avatars := repo.NewAvatarRepository(pool)
	garments := repo.NewGarmentRepository(pool)
	sessions := repo.NewTryOnSessionRepository(pool)

	orch := orchestrator.New(jobs, procClient, logger)

	// Services register the completion hooks that copy finished job results
	// onto their entities.
	_ = service.NewAvatarService(avatars, orch, logger)
	_ = service.NewGarmentService(garments, orch, logger)
	_ = service.NewTryOnService(sessions, avatars, garments, orch, logger)

	worker := &jobWorker{
		ctx:          ctx,
		runner:       runner,
		orch:         orch,
		logger:       logger,
		pollInterval: cfg.JobPollInterval,
		slots:        make(chan struct{}, cfg.WorkerConcurrency),
	}

	go worker.sweepStuck(cfg.StuckSweepInterval, cfg.StuckJobThreshold)

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Int("concurrency", cap(w.slots)).Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		ids, err := w.pendingJobIDs()
		if err != nil {
			w.logger.Error().Err(err).Msg("worker: failed to list pending jobs")
			w.sleep()
			continue
		}
		if len(ids) == 0 {
			w.logQueueDepth()
			w.sleep()
			continue
		}

		for _, id := range ids {
			select {
			case w.slots <- struct{}{}:
			case <-w.ctx.Done():
				return w.ctx.Err()
			}
			go func(jobID string) {
				defer func() { <-w.slots }()
				w.handleJob(jobID)
			}(id)
		}
	}
}

func (w *jobWorker) handleJob(jobID string) {
	err := w.orch.Dispatch(w.ctx, jobID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidTransition):
		// Another worker or an API call claimed it first.
		w.logger.Debug().Str("job_id", jobID).Msg("worker: job already claimed")
	case errors.Is(err, domain.ErrNotFound):
		w.logger.Warn().Str("job_id", jobID).Msg("worker: job disappeared")
	default:
		w.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: dispatch failed")
	}
}

func (w *jobWorker) pendingJobIDs() ([]string, error) {
	rows, err := w.runner.Query(w.ctx, sqlinline.QNextPendingJobs, cap(w.slots))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// sweepStuck periodically reports jobs that have sat in a non-terminal
// state past the threshold. It never mutates them; an operator decides.
func (w *jobWorker) sweepStuck(interval, threshold time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	kinds := []domain.JobKind{
		domain.KindAvatarGeneration,
		domain.KindGarmentProcessing,
		domain.KindTryOnRender,
	}
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
		}
		for _, kind := range kinds {
			stuck, err := w.orch.FindStuck(w.ctx, kind, threshold)
			if err != nil {
				w.logger.Error().Err(err).Str("kind", string(kind)).Msg("worker: stuck sweep failed")
				continue
			}
			for _, job := range stuck {
				w.logger.Warn().
					Str("job_id", job.ID).
					Str("kind", string(job.Kind)).
					Str("status", string(job.Status)).
					Time("updated_at", job.UpdatedAt).
					Msg("worker: job appears stuck")
			}
		}
	}
}

func (w *jobWorker) logQueueDepth() {
	rows, err := w.runner.Query(w.ctx, sqlinline.QJobCountsByStatus)
	if err != nil {
		return
	}
	defer rows.Close()
	event := w.logger.Debug()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return
		}
		event = event.Int64(status, count)
	}
	event.Msg("worker: queue depth")
}

func (w *jobWorker) sleep() {
	select {
	case <-w.ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"miora/internal/domain"
)

type jobDTO struct {
	ID                   string            `json:"id"`
	Kind                 string            `json:"kind"`
	Status               string            `json:"status"`
	InputRefs            map[string]string `json:"input_refs"`
	ResultRef            string            `json:"result_ref,omitempty"`
	QualityScore         *float64          `json:"quality_score,omitempty"`
	ProcessingDurationMs *int64            `json:"processing_duration_ms,omitempty"`
	ErrorDetail          string            `json:"error_detail,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func toJobDTO(job *domain.Job) jobDTO {
	return jobDTO{
		ID:                   job.ID,
		Kind:                 string(job.Kind),
		Status:               string(job.Status),
		InputRefs:            job.InputRefs,
		ResultRef:            job.ResultRef,
		QualityScore:         job.QualityScore,
		ProcessingDurationMs: job.ProcessingDurationMs,
		ErrorDetail:          job.ErrorDetail,
		CreatedAt:            job.CreatedAt,
		UpdatedAt:            job.UpdatedAt,
	}
}

func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.Get(r.Context(), a.currentUserID(r), jobID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toJobDTO(job))
}

func (a *App) JobDispatch(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	ownerID := a.currentUserID(r)
	if err := a.Jobs.Dispatch(r.Context(), ownerID, jobID); err != nil {
		a.domainError(w, err)
		return
	}
	job, err := a.Jobs.Get(r.Context(), ownerID, jobID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toJobDTO(job))
}

func (a *App) JobCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.Cancel(r.Context(), a.currentUserID(r), jobID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toJobDTO(job))
}

// JobsStuck lists jobs that have sat in a non-terminal state beyond the
// given age. Operator endpoint; reports, never mutates.
func (a *App) JobsStuck(w http.ResponseWriter, r *http.Request) {
	kind := domain.JobKind(r.URL.Query().Get("kind"))
	if !domain.ValidKind(kind) {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown job kind")
		return
	}
	olderThan := 15 * time.Minute
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "older_than must be a positive duration")
			return
		}
		olderThan = d
	}
	jobs, err := a.Jobs.FindStuck(r.Context(), kind, olderThan)
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]jobDTO, 0, len(jobs))
	for i := range jobs {
		items = append(items, toJobDTO(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

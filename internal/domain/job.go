package domain

import "time"

// JobKind enumerates the categories of externally processed work.
type JobKind string

const (
	KindAvatarGeneration  JobKind = "AVATAR_GENERATION"
	KindGarmentProcessing JobKind = "GARMENT_PROCESSING"
	KindTryOnRender       JobKind = "TRY_ON_RENDER"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// Job is a trackable unit of externally processed work. Status is written
// exclusively by the orchestrator; everything else is immutable after
// creation except the result fields set on the terminal transition.
type Job struct {
	ID                   string
	OwnerID              string
	Kind                 JobKind
	Status               JobStatus
	InputRefs            map[string]string
	ResultRef            string
	QualityScore         *float64
	ProcessingDurationMs *int64
	ErrorDetail          string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// ValidKind reports whether k names a known job kind.
func ValidKind(k JobKind) bool {
	switch k {
	case KindAvatarGeneration, KindGarmentProcessing, KindTryOnRender:
		return true
	}
	return false
}

// transitionSources maps each status to the statuses it may be entered from.
// PENDING is initial and never re-entered.
var transitionSources = map[JobStatus][]JobStatus{
	JobStatusProcessing: {JobStatusPending},
	JobStatusCompleted:  {JobStatusProcessing},
	JobStatusFailed:     {JobStatusProcessing},
	JobStatusCancelled:  {JobStatusPending, JobStatusProcessing},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to JobStatus) bool {
	for _, src := range TransitionSources(to) {
		if src == from {
			return true
		}
	}
	return false
}

// TransitionSources returns the statuses from which to may be entered.
// The returned slice must not be mutated.
func TransitionSources(to JobStatus) []JobStatus {
	return transitionSources[to]
}

// JobUpdate carries the fields applied alongside a status transition.
// Result fields are only meaningful for COMPLETED, ErrorDetail for FAILED.
type JobUpdate struct {
	ResultRef            string
	QualityScore         *float64
	ProcessingDurationMs *int64
	ErrorDetail          string
}

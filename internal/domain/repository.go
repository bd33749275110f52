package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for job records. UpdateStatus must be
// atomic with respect to concurrent updates on the same id: the transition
// is applied only if the current status is a legal source for next, so two
// racing writers can never both win.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, next JobStatus, update JobUpdate) (*Job, error)
	FindStuck(ctx context.Context, kind JobKind, olderThan time.Duration) ([]Job, error)
}

// AvatarRepository defines persistence for avatars.
type AvatarRepository interface {
	Create(ctx context.Context, avatar *Avatar) error
	GetByID(ctx context.Context, id string) (*Avatar, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Avatar, error)
	SetModelRefs(ctx context.Context, id, modelURL, thumbnailURL string) error
}

// GarmentRepository defines persistence for garments.
type GarmentRepository interface {
	Create(ctx context.Context, garment *Garment) error
	GetByID(ctx context.Context, id string) (*Garment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Garment, error)
	SetProcessedRefs(ctx context.Context, id, cleanedImageURL, thumbnailURL string) error
}

// TryOnSessionRepository defines persistence for try-on sessions.
type TryOnSessionRepository interface {
	Create(ctx context.Context, session *TryOnSession) error
	GetByID(ctx context.Context, id string) (*TryOnSession, error)
	ListByOwner(ctx context.Context, ownerID string) ([]TryOnSession, error)
	SetResult(ctx context.Context, id, resultImageURL string, fitScore float64) error
}

package service

import (
	"context"
	"sync"
	"time"

	"miora/internal/domain"
)

type memAvatars struct {
	mu      sync.Mutex
	avatars map[string]*domain.Avatar
}

func newMemAvatars() *memAvatars {
	return &memAvatars{avatars: make(map[string]*domain.Avatar)}
}

func (m *memAvatars) Create(ctx context.Context, avatar *domain.Avatar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	avatar.CreatedAt = now
	avatar.UpdatedAt = now
	if avatar.IsActive {
		for _, other := range m.avatars {
			if other.OwnerID == avatar.OwnerID {
				other.IsActive = false
			}
		}
	}
	copied := *avatar
	m.avatars[avatar.ID] = &copied
	return nil
}

func (m *memAvatars) GetByID(ctx context.Context, id string) (*domain.Avatar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	avatar, ok := m.avatars[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *avatar
	return &copied, nil
}

func (m *memAvatars) ListByOwner(ctx context.Context, ownerID string) ([]domain.Avatar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Avatar
	for _, avatar := range m.avatars {
		if avatar.OwnerID == ownerID {
			out = append(out, *avatar)
		}
	}
	return out, nil
}

func (m *memAvatars) SetModelRefs(ctx context.Context, id, modelURL, thumbnailURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	avatar, ok := m.avatars[id]
	if !ok {
		return domain.ErrNotFound
	}
	avatar.ModelFileURL = modelURL
	avatar.ThumbnailURL = thumbnailURL
	avatar.UpdatedAt = time.Now()
	return nil
}

type memGarments struct {
	mu       sync.Mutex
	garments map[string]*domain.Garment
}

func newMemGarments() *memGarments {
	return &memGarments{garments: make(map[string]*domain.Garment)}
}

func (m *memGarments) Create(ctx context.Context, garment *domain.Garment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	garment.CreatedAt = now
	garment.UpdatedAt = now
	copied := *garment
	m.garments[garment.ID] = &copied
	return nil
}

func (m *memGarments) GetByID(ctx context.Context, id string) (*domain.Garment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	garment, ok := m.garments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *garment
	return &copied, nil
}

func (m *memGarments) ListByOwner(ctx context.Context, ownerID string) ([]domain.Garment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Garment
	for _, garment := range m.garments {
		if garment.OwnerID == ownerID {
			out = append(out, *garment)
		}
	}
	return out, nil
}

func (m *memGarments) SetProcessedRefs(ctx context.Context, id, cleanedImageURL, thumbnailURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	garment, ok := m.garments[id]
	if !ok {
		return domain.ErrNotFound
	}
	garment.CleanedImageURL = cleanedImageURL
	garment.ThumbnailURL = thumbnailURL
	garment.UpdatedAt = time.Now()
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.TryOnSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]*domain.TryOnSession)}
}

func (m *memSessions) Create(ctx context.Context, session *domain.TryOnSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *memSessions) GetByID(ctx context.Context, id string) (*domain.TryOnSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *memSessions) ListByOwner(ctx context.Context, ownerID string) ([]domain.TryOnSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TryOnSession
	for _, session := range m.sessions {
		if session.OwnerID == ownerID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (m *memSessions) SetResult(ctx context.Context, id, resultImageURL string, fitScore float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	session.ResultImageURL = resultImageURL
	session.FitScore = &fitScore
	session.UpdatedAt = time.Now()
	return nil
}

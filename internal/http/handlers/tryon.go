package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"miora/internal/domain"
	"miora/internal/service"
)

type tryOnCreateRequest struct {
	AvatarID  string `json:"avatar_id"`
	GarmentID string `json:"garment_id"`
	Name      string `json:"name"`
}

type tryOnSessionDTO struct {
	ID             string    `json:"id"`
	AvatarID       string    `json:"avatar_id"`
	GarmentID      string    `json:"garment_id"`
	Name           string    `json:"name,omitempty"`
	ResultImageURL string    `json:"result_image_url,omitempty"`
	FitScore       *float64  `json:"fit_score,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toTryOnSessionDTO(session *domain.TryOnSession) tryOnSessionDTO {
	return tryOnSessionDTO{
		ID:             session.ID,
		AvatarID:       session.AvatarID,
		GarmentID:      session.GarmentID,
		Name:           session.Name,
		ResultImageURL: session.ResultImageURL,
		FitScore:       session.FitScore,
		CreatedAt:      session.CreatedAt,
		UpdatedAt:      session.UpdatedAt,
	}
}

func (a *App) TryOnCreate(w http.ResponseWriter, r *http.Request) {
	var req tryOnCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	session, job, err := a.TryOn.CreateSession(r.Context(), a.currentUserID(r), service.CreateSessionInput{
		AvatarID:  req.AvatarID,
		GarmentID: req.GarmentID,
		Name:      req.Name,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"session": toTryOnSessionDTO(session),
		"job":     toJobDTO(job),
	})
}

func (a *App) TryOnGet(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session_id required")
		return
	}
	session, err := a.TryOn.GetSession(r.Context(), a.currentUserID(r), sessionID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toTryOnSessionDTO(session))
}

func (a *App) TryOnList(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.TryOn.ListSessions(r.Context(), a.currentUserID(r))
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]tryOnSessionDTO, 0, len(sessions))
	for i := range sessions {
		items = append(items, toTryOnSessionDTO(&sessions[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

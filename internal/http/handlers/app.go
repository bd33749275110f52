package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"miora/internal/domain"
	"miora/internal/middleware"
	"miora/internal/processor"
	"miora/internal/service"
	"miora/internal/storage"
)

type App struct {
	Logger         zerolog.Logger
	Jobs           *service.JobService
	Avatars        *service.AvatarService
	Garments       *service.GarmentService
	TryOn          *service.TryOnService
	Processor      *processor.Client
	Files          *storage.FileStore
	StorageBaseURL string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

// domainError translates service errors into HTTP responses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusForbidden, "forbidden", "resource belongs to another user")
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusUnprocessableEntity, "invalid_input", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("handler: unexpected error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.OwnerIDFromContext(r.Context())
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"miora/internal/domain"
	"miora/internal/service"
)

type garmentCreateRequest struct {
	Name             string   `json:"name"`
	Brand            string   `json:"brand"`
	Category         string   `json:"category"`
	OriginalImageURL string   `json:"original_image_url"`
	Color            string   `json:"color"`
	AvailableSizes   []string `json:"available_sizes"`
}

type garmentDTO struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Brand            string    `json:"brand,omitempty"`
	Category         string    `json:"category"`
	OriginalImageURL string    `json:"original_image_url"`
	CleanedImageURL  string    `json:"cleaned_image_url,omitempty"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	Color            string    `json:"color,omitempty"`
	AvailableSizes   []string  `json:"available_sizes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toGarmentDTO(garment *domain.Garment) garmentDTO {
	return garmentDTO{
		ID:               garment.ID,
		Name:             garment.Name,
		Brand:            garment.Brand,
		Category:         string(garment.Category),
		OriginalImageURL: garment.OriginalImageURL,
		CleanedImageURL:  garment.CleanedImageURL,
		ThumbnailURL:     garment.ThumbnailURL,
		Color:            garment.Color,
		AvailableSizes:   garment.AvailableSizes,
		CreatedAt:        garment.CreatedAt,
		UpdatedAt:        garment.UpdatedAt,
	}
}

func (a *App) GarmentsCreate(w http.ResponseWriter, r *http.Request) {
	var req garmentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	garment, job, err := a.Garments.Create(r.Context(), a.currentUserID(r), service.CreateGarmentInput{
		Name:             req.Name,
		Brand:            req.Brand,
		Category:         domain.GarmentCategory(req.Category),
		OriginalImageURL: req.OriginalImageURL,
		Color:            req.Color,
		AvailableSizes:   req.AvailableSizes,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"garment": toGarmentDTO(garment),
		"job":     toJobDTO(job),
	})
}

func (a *App) GarmentGet(w http.ResponseWriter, r *http.Request) {
	garmentID := chi.URLParam(r, "garment_id")
	if garmentID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "garment_id required")
		return
	}
	garment, err := a.Garments.Get(r.Context(), a.currentUserID(r), garmentID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toGarmentDTO(garment))
}

func (a *App) GarmentsList(w http.ResponseWriter, r *http.Request) {
	garments, err := a.Garments.List(r.Context(), a.currentUserID(r))
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]garmentDTO, 0, len(garments))
	for i := range garments {
		items = append(items, toGarmentDTO(&garments[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

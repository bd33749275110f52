package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"miora/internal/domain"
	"miora/internal/service"
)

type measurementsDTO struct {
	Height        float64  `json:"height_cm"`
	Weight        *float64 `json:"weight_kg,omitempty"`
	Chest         float64  `json:"chest_cm"`
	Waist         float64  `json:"waist_cm"`
	Hips          float64  `json:"hips_cm"`
	ShoulderWidth *float64 `json:"shoulder_width_cm,omitempty"`
	ArmLength     *float64 `json:"arm_length_cm,omitempty"`
	Inseam        *float64 `json:"inseam_cm,omitempty"`
}

type avatarCreateRequest struct {
	Name           string          `json:"name"`
	SourcePhotoURL string          `json:"source_photo_url"`
	Measurements   measurementsDTO `json:"measurements"`
	BodyType       string          `json:"body_type"`
	SkinTone       string          `json:"skin_tone"`
	HairColor      string          `json:"hair_color"`
	IsActive       bool            `json:"is_active"`
}

type avatarDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	IsActive     bool            `json:"is_active"`
	Measurements measurementsDTO `json:"measurements"`
	BodyType     string          `json:"body_type"`
	SkinTone     string          `json:"skin_tone,omitempty"`
	HairColor    string          `json:"hair_color,omitempty"`
	ModelFileURL string          `json:"model_file_url,omitempty"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toAvatarDTO(avatar *domain.Avatar) avatarDTO {
	m := avatar.Measurements
	return avatarDTO{
		ID:       avatar.ID,
		Name:     avatar.Name,
		IsActive: avatar.IsActive,
		Measurements: measurementsDTO{
			Height:        m.Height,
			Weight:        m.Weight,
			Chest:         m.Chest,
			Waist:         m.Waist,
			Hips:          m.Hips,
			ShoulderWidth: m.ShoulderWidth,
			ArmLength:     m.ArmLength,
			Inseam:        m.Inseam,
		},
		BodyType:     string(avatar.BodyType),
		SkinTone:     avatar.SkinTone,
		HairColor:    avatar.HairColor,
		ModelFileURL: avatar.ModelFileURL,
		ThumbnailURL: avatar.ThumbnailURL,
		CreatedAt:    avatar.CreatedAt,
		UpdatedAt:    avatar.UpdatedAt,
	}
}

func (a *App) AvatarsCreate(w http.ResponseWriter, r *http.Request) {
	var req avatarCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	avatar, job, err := a.Avatars.Create(r.Context(), a.currentUserID(r), service.CreateAvatarInput{
		Name:           req.Name,
		SourcePhotoURL: req.SourcePhotoURL,
		Measurements: domain.Measurements{
			Height:        req.Measurements.Height,
			Weight:        req.Measurements.Weight,
			Chest:         req.Measurements.Chest,
			Waist:         req.Measurements.Waist,
			Hips:          req.Measurements.Hips,
			ShoulderWidth: req.Measurements.ShoulderWidth,
			ArmLength:     req.Measurements.ArmLength,
			Inseam:        req.Measurements.Inseam,
		},
		BodyType:  domain.BodyType(req.BodyType),
		SkinTone:  req.SkinTone,
		HairColor: req.HairColor,
		IsActive:  req.IsActive,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"avatar": toAvatarDTO(avatar),
		"job":    toJobDTO(job),
	})
}

func (a *App) AvatarGet(w http.ResponseWriter, r *http.Request) {
	avatarID := chi.URLParam(r, "avatar_id")
	if avatarID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "avatar_id required")
		return
	}
	avatar, err := a.Avatars.Get(r.Context(), a.currentUserID(r), avatarID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toAvatarDTO(avatar))
}

func (a *App) AvatarsList(w http.ResponseWriter, r *http.Request) {
	avatars, err := a.Avatars.List(r.Context(), a.currentUserID(r))
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]avatarDTO, 0, len(avatars))
	for i := range avatars {
		items = append(items, toAvatarDTO(&avatars[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

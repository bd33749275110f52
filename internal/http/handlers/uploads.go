package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxUploadBytes = 20 << 20

// extByMIME maps accepted upload content types to file extensions.
var extByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadPhoto stores a raw image body and returns the key clients pass as a
// source photo or garment image URL.
func (a *App) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if a.Files == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "file storage not configured")
		return
	}
	mime := r.Header.Get("Content-Type")
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	ext, ok := extByMIME[mime]
	if !ok {
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected image/jpeg, image/png or image/webp")
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return
	}
	if len(data) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "empty body")
		return
	}
	if len(data) > maxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds 20MB limit")
		return
	}

	key := fmt.Sprintf("uploads/%s/%s/%s%s",
		a.currentUserID(r), time.Now().UTC().Format("2006-01-02"), uuid.NewString(), ext)
	storedKey, err := a.Files.Write(r.Context(), key, data)
	if err != nil {
		a.Logger.Error().Err(err).Msg("upload: failed to store file")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store file")
		return
	}

	resp := map[string]any{
		"key":   storedKey,
		"bytes": len(data),
		"mime":  mime,
	}
	if a.StorageBaseURL != "" {
		resp["url"] = strings.TrimRight(a.StorageBaseURL, "/") + "/" + storedKey
	}
	a.json(w, http.StatusCreated, resp)
}

// DownloadUpload streams a previously stored file back to its owner.
func (a *App) DownloadUpload(w http.ResponseWriter, r *http.Request) {
	if a.Files == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "file storage not configured")
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/v1/uploads/")
	if key == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "key required")
		return
	}
	if !strings.HasPrefix(key, "uploads/"+a.currentUserID(r)+"/") {
		a.error(w, http.StatusForbidden, "forbidden", "file belongs to another user")
		return
	}
	data, err := a.Files.Read(r.Context(), key)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	for mime, ext := range extByMIME {
		if path.Ext(key) == ext {
			w.Header().Set("Content-Type", mime)
			break
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

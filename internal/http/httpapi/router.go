package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"miora/internal/http/handlers"
	"miora/internal/middleware"
)

// NewRouter wires the HTTP surface. The country lookup may be nil when no
// GeoIP database is configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Origin(lookup),
		middleware.RequestLogger(app.Logger),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	// Everything else requires a caller identity.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Route("/v1/avatars", func(r chi.Router) {
			r.Post("/", app.AvatarsCreate)
			r.Get("/", app.AvatarsList)
			r.Get("/{avatar_id}", app.AvatarGet)
		})

		r.Route("/v1/garments", func(r chi.Router) {
			r.Post("/", app.GarmentsCreate)
			r.Get("/", app.GarmentsList)
			r.Get("/{garment_id}", app.GarmentGet)
		})

		r.Route("/v1/tryon/sessions", func(r chi.Router) {
			r.Post("/", app.TryOnCreate)
			r.Get("/", app.TryOnList)
			r.Get("/{session_id}", app.TryOnGet)
		})

		r.Route("/v1/jobs", func(r chi.Router) {
			r.Get("/stuck", app.JobsStuck)
			r.Get("/{job_id}", app.JobStatus)
			r.Post("/{job_id}/dispatch", app.JobDispatch)
			r.Post("/{job_id}/cancel", app.JobCancel)
		})

		r.Post("/v1/uploads", app.UploadPhoto)
		r.Get("/v1/uploads/*", app.DownloadUpload)
	})

	return r
}

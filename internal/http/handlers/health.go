package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	processorOK := true
	if a.Processor != nil {
		processorOK = a.Processor.HealthCheck(r.Context())
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"processor": processorOK,
	})
}

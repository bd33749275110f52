package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	ownerIDKey contextKey = "owner_id"

	// OwnerHeader carries the verified user identity. It is set by the
	// authenticating gateway in front of this service; requests reaching
	// us directly without it are rejected.
	OwnerHeader = "X-User-ID"
)

// Identity extracts the verified owner id from the gateway header and
// stores it in the request context. The service itself performs no
// credential validation.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if ownerID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing identity"})
			return
		}
		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerIDFromContext returns the verified owner id, or "" when absent.
func OwnerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ownerIDKey).(string); ok {
		return v
	}
	return ""
}

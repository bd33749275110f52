package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIdentityRejectsMissingHeader(t *testing.T) {
	handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without identity")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestIdentityPassesOwnerThrough(t *testing.T) {
	var got string
	handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = OwnerIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/jobs/x", nil)
	req.Header.Set(OwnerHeader, "user-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "user-42" {
		t.Fatalf("owner id = %q, want user-42", got)
	}
}

func TestOriginPrefersEdgeHeader(t *testing.T) {
	var got string
	handler := Origin(func(ip string) (string, error) {
		t.Fatal("lookup should not run when edge header present")
		return "", nil
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "id")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "ID" {
		t.Fatalf("country = %q, want ID", got)
	}
}

func TestOriginFallsBackToLookup(t *testing.T) {
	var got string
	handler := Origin(func(ip string) (string, error) {
		if ip != "203.0.113.9" {
			t.Fatalf("lookup ip = %q", ip)
		}
		return "SG", nil
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "SG" {
		t.Fatalf("country = %q, want SG", got)
	}
}

func TestOriginIgnoresLookupErrors(t *testing.T) {
	var got string
	handler := Origin(func(ip string) (string, error) {
		return "", errors.New("database offline")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "" {
		t.Fatalf("country = %q, want empty", got)
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got == "" {
		t.Fatal("request id not generated")
	}
	if rec.Header().Get("X-Request-ID") != got {
		t.Fatal("request id not echoed in response header")
	}
}

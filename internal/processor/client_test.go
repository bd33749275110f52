package processor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"miora/internal/domain"
)

func TestSubmitSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/process" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload submitRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Kind != domain.KindTryOnRender {
			t.Fatalf("unexpected kind: %s", payload.Kind)
		}
		if payload.InputRefs["avatar"] != "a1" || payload.InputRefs["garment"] != "g1" {
			t.Fatalf("input refs mismatch: %#v", payload.InputRefs)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result_ref":             "r1",
			"quality_score":          0.92,
			"processing_duration_ms": 1500,
		})
	}))
	defer ts.Close()

	client, err := NewClient(Options{BaseURL: ts.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	res, err := client.Submit(context.Background(), domain.KindTryOnRender, map[string]string{"avatar": "a1", "garment": "g1"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if res.ResultRef != "r1" || res.QualityScore != 0.92 || res.ProcessingDurationMs != 1500 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	client, err := NewClient(Options{BaseURL: ts.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Submit(context.Background(), domain.KindAvatarGeneration, map[string]string{"photo": "p1"})
	assertReason(t, err, ReasonTimeout)
}

func TestSubmitRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no person detected"})
	}))
	defer ts.Close()

	client, err := NewClient(Options{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Submit(context.Background(), domain.KindAvatarGeneration, map[string]string{"photo": "p1"})
	procErr := assertReason(t, err, ReasonRejected)
	if procErr.Detail != "status 422: no person detected" {
		t.Fatalf("unexpected detail: %s", procErr.Detail)
	}
}

func TestSubmitTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	client, err := NewClient(Options{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Submit(context.Background(), domain.KindGarmentProcessing, map[string]string{"image": "i1"})
	assertReason(t, err, ReasonTransport)
}

func TestSubmitMalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `garbage`},
		{"missing result_ref", `{"quality_score": 0.5, "processing_duration_ms": 10}`},
		{"missing quality_score", `{"result_ref": "r1"}`},
		{"score above one", `{"result_ref": "r1", "quality_score": 1.5, "processing_duration_ms": 10}`},
		{"score negative", `{"result_ref": "r1", "quality_score": -0.1}`},
		{"negative duration", `{"result_ref": "r1", "quality_score": 0.5, "processing_duration_ms": -3}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			client, err := NewClient(Options{BaseURL: ts.URL})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = client.Submit(context.Background(), domain.KindTryOnRender, map[string]string{"avatar": "a1"})
			assertReason(t, err, ReasonMalformedResponse)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := true
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer ts.Close()

	client, err := NewClient(Options{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if !client.HealthCheck(context.Background()) {
		t.Fatal("expected healthy")
	}
	healthy = false
	if client.HealthCheck(context.Background()) {
		t.Fatal("expected unhealthy on 503")
	}
}

func TestHealthCheckDownstreamUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	client, err := NewClient(Options{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.HealthCheck(context.Background()) {
		t.Fatal("expected false when service is unreachable")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func assertReason(t *testing.T, err error, want Reason) *Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var procErr *Error
	if !errors.As(err, &procErr) {
		t.Fatalf("expected *processor.Error, got %T: %v", err, err)
	}
	if procErr.Reason != want {
		t.Fatalf("reason = %s, want %s (detail: %s)", procErr.Reason, want, procErr.Detail)
	}
	return procErr
}

package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"miora/internal/domain"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultHealthTimeout = 5 * time.Second

	submitPath = "/v1/process"
	healthPath = "/healthz"
)

// Reason classifies why a submission to the ML service failed.
type Reason string

const (
	ReasonTimeout           Reason = "timeout"
	ReasonRejected          Reason = "rejected"
	ReasonTransport         Reason = "transport"
	ReasonMalformedResponse Reason = "malformed_response"
)

// Error is a classified submission failure.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("processor %s: %s", e.Reason, e.Detail)
}

// Result is a successful processing outcome returned by the ML service.
type Result struct {
	ResultRef            string
	QualityScore         float64
	ProcessingDurationMs int64
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	APIKey        string
	HTTPClient    *http.Client
	Timeout       time.Duration
	HealthTimeout time.Duration
}

// Client is a stateless adapter around the external ML/CV service's
// job-submission endpoint.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	timeout       time.Duration
	healthTimeout time.Duration
}

// NewClient constructs a Client. The base URL is required.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("processor: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	healthTimeout := opts.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = defaultHealthTimeout
	}
	return &Client{
		httpClient:    httpClient,
		baseURL:       base,
		token:         strings.TrimSpace(opts.APIKey),
		timeout:       timeout,
		healthTimeout: healthTimeout,
	}, nil
}

type submitRequest struct {
	Kind      domain.JobKind    `json:"kind"`
	InputRefs map[string]string `json:"input_refs"`
}

type submitResponse struct {
	ResultRef            string   `json:"result_ref"`
	QualityScore         *float64 `json:"quality_score"`
	ProcessingDurationMs *int64   `json:"processing_duration_ms"`
	Error                string   `json:"error"`
}

// Submit sends a processing request and waits for the outcome, bounded by
// the configured timeout. Every failure is returned as a classified *Error.
func (c *Client) Submit(ctx context.Context, kind domain.JobKind, inputRefs map[string]string) (*Result, error) {
	body, err := json.Marshal(submitRequest{Kind: kind, InputRefs: inputRefs})
	if err != nil {
		return nil, &Error{Reason: ReasonTransport, Detail: fmt.Sprintf("encode request: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Reason: ReasonTransport, Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &Error{Reason: ReasonTimeout, Detail: fmt.Sprintf("submission exceeded %s", c.timeout)}
		}
		return nil, &Error{Reason: ReasonTransport, Detail: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &Error{Reason: ReasonTimeout, Detail: fmt.Sprintf("submission exceeded %s", c.timeout)}
		}
		return nil, &Error{Reason: ReasonTransport, Detail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Reason: ReasonRejected, Detail: rejectionDetail(resp.StatusCode, payload)}
	}

	var decoded submitResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &Error{Reason: ReasonMalformedResponse, Detail: fmt.Sprintf("decode response: %v", err)}
	}
	return validateResult(decoded)
}

// validateResult enforces the response contract. Out-of-range values are a
// contract violation and are reported, never clamped.
func validateResult(resp submitResponse) (*Result, error) {
	if resp.ResultRef == "" {
		return nil, &Error{Reason: ReasonMalformedResponse, Detail: "response missing result_ref"}
	}
	if resp.QualityScore == nil {
		return nil, &Error{Reason: ReasonMalformedResponse, Detail: "response missing quality_score"}
	}
	if score := *resp.QualityScore; score < 0 || score > 1 {
		return nil, &Error{Reason: ReasonMalformedResponse, Detail: fmt.Sprintf("quality_score %v outside [0,1]", score)}
	}
	var duration int64
	if resp.ProcessingDurationMs != nil {
		if *resp.ProcessingDurationMs < 0 {
			return nil, &Error{Reason: ReasonMalformedResponse, Detail: fmt.Sprintf("processing_duration_ms %d is negative", *resp.ProcessingDurationMs)}
		}
		duration = *resp.ProcessingDurationMs
	}
	return &Result{
		ResultRef:            resp.ResultRef,
		QualityScore:         *resp.QualityScore,
		ProcessingDurationMs: duration,
	}, nil
}

func rejectionDetail(status int, payload []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Error != "" {
			return fmt.Sprintf("status %d: %s", status, body.Error)
		}
		if body.Message != "" {
			return fmt.Sprintf("status %d: %s", status, body.Message)
		}
	}
	return fmt.Sprintf("status %d", status)
}

// HealthCheck probes the service's liveness endpoint. It never returns an
// error; any failure reads as not healthy.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

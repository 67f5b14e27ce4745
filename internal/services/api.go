// Shared HTTP client for the JSON APIs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultTimeout = 15 * time.Second

// APIService performs raw HTTP requests against a single JSON API base URL.
//
// Requests are throttled by an optional token bucket limiter. There are no retries.
type APIService struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	header     http.Header
}

// NewAPIService creates an API client. A nil client gets a client with a 15 second timeout.
func NewAPIService(name, baseURL string, client *http.Client) *APIService {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &APIService{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		header:     make(http.Header),
	}
}

// WithRateLimit throttles requests to rps per second. Non-positive values disable throttling.
func (a *APIService) WithRateLimit(rps float64) *APIService {
	if rps <= 0 {
		a.limiter = nil
		return a
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return a
}

// SetHeader sets a header sent with every request.
func (a *APIService) SetHeader(key, value string) {
	a.header.Set(key, value)
}

// BaseURL returns the base URL requests are resolved against.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get performs a GET request to path with the given query and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, query url.Values, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, query, data)
}

// GetJSON performs a GET request and decodes a 2xx body into result.
//
// Non-2xx statuses are returned as [*APIError].
func (a *APIService) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	resp, err := a.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return a.statusError(path, resp)
	}
	if result == nil {
		return nil
	}
	return resp.Decode(result)
}

func (a *APIService) do(ctx context.Context, method, path string, query url.Values, data []byte) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range a.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
		IsJSON:     json.Valid(raw),
	}, nil
}

// statusError builds an [*APIError], lifting a message out of common JSON error envelopes.
func (a *APIService) statusError(path string, resp *APIResponse) *APIError {
	apiErr := &APIError{Service: a.name, Endpoint: path, StatusCode: resp.StatusCode}
	if !resp.IsJSON {
		return apiErr
	}

	var envelope struct {
		StatusMessage string `json:"status_message"`
		Error         struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil {
		apiErr.Message = envelope.StatusMessage
		if apiErr.Message == "" {
			apiErr.Message = envelope.Error.Message
		}
	}
	return apiErr
}

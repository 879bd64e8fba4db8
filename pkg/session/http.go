package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIKeyHeader carries the API key sent by HTTPCreator.
const APIKeyHeader = "X-API-Key"

// APIError is a non-2xx response from the session service.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// createRequest is the JSON body POSTed for each session.
type createRequest struct {
	Collection string `json:"collection"`
	Name       string `json:"name"`
	Raw        string `json:"raw"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	TLS        bool   `json:"tls"`
}

// HTTPCreator posts sessions to a remote session service.
type HTTPCreator struct {
	endpoint   string
	httpClient *http.Client
	apiKey     string
}

// HTTPOption configures an HTTPCreator.
type HTTPOption func(*HTTPCreator)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPCreator) {
		c.httpClient.Timeout = timeout
	}
}

// WithAPIKey sets the API key sent with every request.
func WithAPIKey(key string) HTTPOption {
	return func(c *HTTPCreator) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPCreator) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewHTTPCreator creates a Creator that POSTs to endpoint, the full URL of
// the service's session collection (e.g. "http://localhost:4290/sessions").
func NewHTTPCreator(endpoint string, opts ...HTTPOption) *HTTPCreator {
	c := &HTTPCreator{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create renders sess to wire format and POSTs it.
func (c *HTTPCreator) Create(ctx context.Context, sess Session) error {
	body, err := json.Marshal(createRequest{
		Collection: sess.Collection,
		Name:       sess.Name,
		Raw:        RenderRaw(sess.Spec),
		Host:       sess.Spec.Host,
		Port:       sess.Spec.Port,
		TLS:        sess.Spec.TLS,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{
			ErrorCode: "connection_error",
			Message:   fmt.Sprintf("cannot reach session service at %s: %v", c.endpoint, err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.Error,
			Message:    errResp.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  "unknown_error",
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}

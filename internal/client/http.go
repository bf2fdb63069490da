package client

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
)

const (
	defaultHTTPTimeout = 30 * time.Second
	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// HTTPClient talks to the configuration server's /v1 JSON API.
type HTTPClient struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewHTTPClient returns a client for baseURL, e.g. "http://localhost:8080".
// A non-empty token is sent as a bearer token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (c *HTTPClient) Close() error { return nil }

func attributePath(name string) string {
	return "/v1/attributes/" + url.PathEscape(name)
}

func (c *HTTPClient) GetAttribute(ctx context.Context, name string) (*Attribute, error) {
	attr := new(Attribute)
	if err := c.call(ctx, http.MethodGet, attributePath(name), nil, attr); err != nil {
		return nil, err
	}
	return attr, nil
}

func (c *HTTPClient) ListAttributes(ctx context.Context, category string) ([]*Attribute, error) {
	path := "/v1/attributes"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	var page struct {
		Attributes []*Attribute `json:"attributes"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Attributes, nil
}

func (c *HTTPClient) SetAttribute(ctx context.Context, name string, req *SetAttributeRequest) (*Attribute, error) {
	attr := new(Attribute)
	if err := c.call(ctx, http.MethodPut, attributePath(name), req, attr); err != nil {
		return nil, err
	}
	return attr, nil
}

func (c *HTTPClient) DeleteAttribute(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodDelete, attributePath(name), nil, nil)
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var health struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/health", nil, &health); err != nil {
		return "", err
	}
	return health.Status, nil
}

// Convert asks the server how it would store value, without storing it.
func (c *HTTPClient) Convert(ctx context.Context, value string, conv bool) (*Conversion, error) {
	req := struct {
		Value   string `json:"value"`
		Convert bool   `json:"convert"`
	}{value, conv}
	out := new(Conversion)
	if err := c.call(ctx, http.MethodPost, "/v1/convert", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// APIError is a non-2xx response. Message is the server's "error" field, or
// the raw body when there is none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// call sends body as JSON (when non-nil) and decodes a JSON response into
// out (when non-nil).
func (c *HTTPClient) call(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp.StatusCode, data)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func apiError(code int, body []byte) *APIError {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return &APIError{StatusCode: code, Message: e.Error}
	}
	return &APIError{StatusCode: code, Message: strings.TrimSpace(string(body))}
}

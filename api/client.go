// Package api is the typed client for the remote blogging REST API. The
// backend is a black box: this package only knows its endpoint shapes, adds
// the bearer credential, and maps failures onto a small error taxonomy.
package api

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
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(c *Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ImageURL resolves a blog image reference: absolute URLs pass through,
// bare names resolve against the backend's uploads directory.
func (c *Client) ImageURL(name string) string {
	if name == "" {
		return ""
	}

	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}

	return c.baseURL + "/uploads/" + name
}

// UnauthorizedError marks a 401 from the backend: the token is missing,
// expired, or rejected. The caller is expected to tear the session down.
type UnauthorizedError struct {
	Message string
}

func (err UnauthorizedError) Error() string {
	if err.Message == "" {
		return "backend rejected the credentials"
	}

	return err.Message
}

// RequestError carries any other non-2xx backend response.
type RequestError struct {
	StatusCode int
	Message    string
}

func (err RequestError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("backend returned status %d", err.StatusCode)
	}

	return fmt.Sprintf("backend returned status %d: %s", err.StatusCode, err.Message)
}

func (err RequestError) IsNotFound() bool {
	return err.StatusCode == http.StatusNotFound
}

// ValidationError is a local pre-dispatch rejection; no request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (err ValidationError) Error() string {
	return err.Message
}

// IsUnauthorized reports whether err is (or wraps) a backend 401.
func IsUnauthorized(err error) bool {
	var unauthorizedErr *UnauthorizedError

	return errors.As(err, &unauthorizedErr)
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (env errorEnvelope) text() string {
	if env.Message != "" {
		return env.Message
	}

	return env.Error
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into out (when out is non-nil). An empty token sends the request
// anonymously.
func (c *Client) doJSON(
	ctx context.Context,
	method, path, token string,
	body any,
	out any,
) error {
	var reqBody io.Reader

	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}

		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, token, out)
}

func (c *Client) send(req *http.Request, token string, out any) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to backend failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		var env errorEnvelope
		_ = json.Unmarshal(raw, &env)

		return &UnauthorizedError{Message: env.text()}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var env errorEnvelope
		_ = json.Unmarshal(raw, &env)

		return &RequestError{StatusCode: resp.StatusCode, Message: env.text()}
	}

	if out == nil {
		return nil
	}

	err = json.Unmarshal(raw, out)
	if err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}

	return nil
}

// Package client talks to a running `staticenv serve` instance.
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

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/dopejs/staticenv/internal/envvar"
)

// Client provides typed access to the environment variables API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithRetry sets how many times a request is attempted and the pause
// between attempts.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.delay = delay
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, errors.Wrap(err, "invalid api base url")
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		attempts:   3,
		delay:      200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

type variablesPayload struct {
	ID         string            `json:"id,omitempty"`
	Properties map[string]string `json:"properties"`
}

// Health describes a running server.
type Health struct {
	Version  string `json:"version"`
	ReadOnly bool   `json:"read_only"`
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var resp Health
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return Health{}, err
	}
	return resp, nil
}

// Environments lists the site's environments.
func (c *Client) Environments(ctx context.Context) ([]envvar.Environment, error) {
	var envs []envvar.Environment
	if err := c.do(ctx, http.MethodGet, "/api/v1/environments", nil, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// Variables fetches the variables of one environment.
func (c *Client) Variables(ctx context.Context, envID string) (map[string]string, error) {
	var resp variablesPayload
	if err := c.do(ctx, http.MethodGet, variablesPath(envID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Properties == nil {
		resp.Properties = map[string]string{}
	}
	return resp.Properties, nil
}

// SaveVariables replaces the variables of one environment.
func (c *Client) SaveVariables(ctx context.Context, envID string, vars map[string]string) error {
	if vars == nil {
		vars = map[string]string{}
	}
	return c.do(ctx, http.MethodPut, variablesPath(envID), variablesPayload{ID: envID, Properties: vars}, nil)
}

func variablesPath(envID string) string {
	return "/api/v1/environments/" + url.PathEscape(envID) + "/variables"
}

// do performs a request, retrying transport failures and 5xx responses.
// 4xx responses are returned immediately.
func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
	}

	return retry.Do(
		func() error {
			err := c.once(ctx, method, path, payload, v)
			var apiErr APIError
			if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, v any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func extractError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return ""
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}

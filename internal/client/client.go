// Package client is an HTTP client for the todo API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/todo-app/internal/models"
	"github.com/benvon/todo-app/internal/request"
	"github.com/benvon/todo-app/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds every call when no timeout is configured
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 64 << 10
)

// ErrNotFound is returned when the server has no todo with the requested id
var ErrNotFound = errors.New("todo not found")

// APIError is returned for any non-2xx response other than 404
type APIError struct {
	StatusCode int
	Detail     string
	Fields     []validation.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(f.Loc, "."), f.Msg))
		}
		return fmt.Sprintf("api error %d: %s", e.StatusCode, strings.Join(parts, "; "))
	}
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Health is the body of GET /health
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Client talks to a running todo server
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for call tracing
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns todos, optionally filtered by completion state
func (c *Client) List(ctx context.Context, completed *bool) ([]models.Todo, error) {
	query := url.Values{}
	if completed != nil {
		query.Set("completed", strconv.FormatBool(*completed))
	}

	var todos []models.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", query, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// Get returns one todo
func (c *Client) Get(ctx context.Context, id int64) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodGet, todoPath(id), nil, nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Create adds a todo
func (c *Client) Create(ctx context.Context, in models.TodoCreate) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodPost, "/api/todos", nil, in, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Update sends only the fields present in patch
func (c *Client) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodPut, todoPath(id), nil, patchBody(patch), &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Toggle flips the completion state of a todo
func (c *Client) Toggle(ctx context.Context, id int64) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodPatch, todoPath(id)+"/toggle", nil, nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Delete removes a todo
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, todoPath(id), nil, nil, nil)
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	requestID := request.IDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := c.logger.With(
		zap.String("component", "todo_client"),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(request.HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("calling_todo_api")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("todo_api_unreachable", zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug("todo_api_response", zap.Int("status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/api/todos/") {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(string(data))
		return apiErr
	}

	if err := json.Unmarshal(envelope.Detail, &apiErr.Detail); err == nil {
		return apiErr
	}
	_ = json.Unmarshal(envelope.Detail, &apiErr.Fields)
	return apiErr
}

// patchBody encodes only the fields that were set, keeping explicit nulls
func patchBody(p models.TodoPatch) map[string]any {
	body := make(map[string]any, 3)
	if p.Title.Set {
		body["title"] = p.Title
	}
	if p.Description.Set {
		body["description"] = p.Description
	}
	if p.Completed.Set {
		body["completed"] = p.Completed
	}
	return body
}

func todoPath(id int64) string {
	return "/api/todos/" + strconv.FormatInt(id, 10)
}

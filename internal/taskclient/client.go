// Package taskclient is the HTTP client of the Task API. It implements the
// board's task repository over the json-server style /tasks resource.
package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/kandev/kanboard/internal/common/errors"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/tracing"
)

const (
	// DefaultTimeout applies when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 10 << 20
)

// Client talks to a Task API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client for the Task API at baseURL.
func NewClient(baseURL string, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     log.WithFields(zap.String("component", "task-client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches one page of tasks ordered ascending by id.
func (c *Client) List(ctx context.Context, filter models.ListFilter) ([]models.Task, error) {
	tasks, _, err := c.ListPage(ctx, filter)
	return tasks, err
}

// ListPage fetches one page of tasks and the server's total match count.
func (c *Client) ListPage(ctx context.Context, filter models.ListFilter) ([]models.Task, int, error) {
	params := url.Values{}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	params.Set("_page", strconv.Itoa(page))
	if filter.Limit > 0 {
		params.Set("_limit", strconv.Itoa(filter.Limit))
	}
	params.Set("_sort", "id")
	if filter.Descending {
		params.Set("_order", "desc")
	} else {
		params.Set("_order", "asc")
	}
	if filter.Query != "" {
		params.Set("q", filter.Query)
	}
	if filter.Column != "" {
		params.Set("column", filter.Column.String())
	}

	var tasks []models.Task
	header, err := c.do(ctx, "list", http.MethodGet, "/tasks?"+params.Encode(), nil, &tasks)
	if err != nil {
		return nil, 0, err
	}

	total := len(tasks)
	if raw := header.Get("X-Total-Count"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			total = n
		}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, total, nil
}

// Get fetches a single task.
func (c *Client) Get(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if _, err := c.do(ctx, "get", http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create stores a new task. The server assigns the id when req.ID is empty.
func (c *Client) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	var task models.Task
	if _, err := c.do(ctx, "create", http.MethodPost, "/tasks", req, &task); err != nil {
		return nil, err
	}
	c.logger.Debug("task created", zap.String("task_id", task.ID))
	return &task, nil
}

// Update sends a partial update.
func (c *Client) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var task models.Task
	if _, err := c.do(ctx, "update", http.MethodPatch, "/tasks/"+url.PathEscape(id), patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
	return err
}

// Columns fetches the board columns.
func (c *Client) Columns(ctx context.Context) ([]models.Column, error) {
	var cols []models.Column
	if _, err := c.do(ctx, "columns", http.MethodGet, "/columns", nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// Health checks if the Task API is reachable.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil)
	return err
}

// do performs one request. Every failure is returned as a FETCH_FAILED
// AppError wrapping either the transport error or the server's AppError.
func (c *Client) do(ctx context.Context, op, method, path string, payload, out interface{}) (hdr http.Header, err error) {
	ctx, span := tracing.TraceHTTPRequest(ctx, method, strings.SplitN(path, "?", 2)[0])
	status := 0
	defer func() {
		tracing.TraceHTTPResponse(span, status, err)
		span.End()
	}()

	var body io.Reader
	if payload != nil {
		data, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return nil, apperrors.FetchFailed(op, marshalErr)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperrors.FetchFailed(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok && requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	tracing.Inject(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("task api request failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Error(err))
		return nil, apperrors.FetchFailed(op, err)
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	respBody, err := readResponseBody(resp)
	if err != nil {
		return nil, apperrors.FetchFailed(op, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.FetchFailed(op, statusError(resp.StatusCode, respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, apperrors.FetchFailed(op, fmt.Errorf("failed to parse response (status %d, body: %s): %w",
				resp.StatusCode, truncateBody(respBody), err))
		}
	}
	return resp.Header, nil
}

// statusError recovers the server's AppError from the body, falling back to
// one derived from the status code.
func statusError(status int, body []byte) *apperrors.AppError {
	var appErr apperrors.AppError
	if err := json.Unmarshal(body, &appErr); err == nil && appErr.Code != "" {
		if appErr.HTTPStatus == 0 {
			appErr.HTTPStatus = status
		}
		return &appErr
	}

	msg := fmt.Sprintf("task api returned %d: %s", status, truncateBody(body))
	switch status {
	case http.StatusNotFound:
		return &apperrors.AppError{Code: apperrors.ErrCodeNotFound, Message: msg, HTTPStatus: status}
	case http.StatusConflict:
		return &apperrors.AppError{Code: apperrors.ErrCodeConflict, Message: msg, HTTPStatus: status}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &apperrors.AppError{Code: apperrors.ErrCodeBadRequest, Message: msg, HTTPStatus: status}
	case http.StatusServiceUnavailable:
		return &apperrors.AppError{Code: apperrors.ErrCodeServiceUnavailable, Message: msg, HTTPStatus: status}
	default:
		return &apperrors.AppError{Code: apperrors.ErrCodeInternalError, Message: msg, HTTPStatus: status}
	}
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

func truncateBody(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}

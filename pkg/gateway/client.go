// Package gateway is an HTTP client for the task list service. It offers the
// same operations as the in-memory store; every call may additionally fail
// with a *TransportError or an *Error carrying the HTTP status.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/pkg/taskapi"
)

const maxErrorBody = 4 << 10

// Client talks to a task list service rooted at a base URL.
type Client struct {
	baseURL string
	http    *http.Client
	retry   *RetryConfig
	timeout *time.Duration
	now     func() time.Time
}

var _ domain.TaskListRepository = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero means no timeout. It applies to the
// final HTTP client regardless of option order and never mutates a client
// passed to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

// WithRetry retries idempotent requests (GET, PUT, DELETE) on transport
// errors and 5xx replies. Creates are never retried.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = &cfg
	}
}

// New returns a Client for the service at baseURL, e.g. http://localhost:8585.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.http
		hc.Timeout = *c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListTaskLists(ctx context.Context) ([]domain.TaskList, error) {
	var wire []taskapi.TaskList
	if err := c.do(ctx, http.MethodGet, "/task-lists", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.TaskList, len(wire))
	for i, l := range wire {
		out[i] = l.Domain()
	}
	return out, nil
}

func (c *Client) GetTaskList(ctx context.Context, id string) (*domain.TaskList, error) {
	wire, err := c.getWireList(ctx, id)
	if err != nil {
		return nil, err
	}
	l := wire.Domain()
	return &l, nil
}

func (c *Client) CreateTaskList(ctx context.Context, in domain.TaskListInput) (*domain.TaskList, error) {
	body := taskapi.TaskListRequest{Title: &in.Title, Description: &in.Description}
	var wire taskapi.TaskList
	if err := c.do(ctx, http.MethodPost, "/task-lists", body, &wire); err != nil {
		return nil, err
	}
	l := wire.Domain()
	return &l, nil
}

// UpdateTaskList always sends both title and description. Fields absent
// from the patch are read from the service first.
func (c *Client) UpdateTaskList(ctx context.Context, id string, patch domain.TaskListPatch) (*domain.TaskList, error) {
	if patch.Title == nil || patch.Description == nil {
		current, err := c.GetTaskList(ctx, id)
		if err != nil {
			return nil, err
		}
		if patch.Title == nil {
			patch.Title = &current.Title
		}
		if patch.Description == nil {
			patch.Description = &current.Description
		}
	}
	body := taskapi.TaskListRequest{Title: patch.Title, Description: patch.Description}
	var wire taskapi.TaskList
	if err := c.do(ctx, http.MethodPut, listPath(id), body, &wire); err != nil {
		return nil, err
	}
	l := wire.Domain()
	return &l, nil
}

func (c *Client) DeleteTaskList(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, listPath(id), nil, nil)
}

func (c *Client) GetTask(ctx context.Context, listID, taskID string) (*domain.Task, error) {
	var wire taskapi.Task
	if err := c.do(ctx, http.MethodGet, taskPath(listID, taskID), nil, &wire); err != nil {
		return nil, err
	}
	t := wire.Domain()
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, listID string, in domain.TaskInput) (*domain.Task, error) {
	var wire taskapi.Task
	if err := c.do(ctx, http.MethodPost, listPath(listID)+"/tasks", taskapi.TaskRequestFromInput(in), &wire); err != nil {
		return nil, err
	}
	t := wire.Domain()
	return &t, nil
}

// UpdateTask reads the task, merges the patch and PUTs the whole task. The
// contract lets a service replace the task on PUT, so partial bodies would
// drop fields.
func (c *Client) UpdateTask(ctx context.Context, listID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	current, err := c.GetTask(ctx, listID, taskID)
	if err != nil {
		return nil, err
	}
	patch.Apply(current)
	current.ID = taskID
	return c.ReplaceTask(ctx, listID, *current)
}

// ReplaceTask sends the whole task minus its timestamps.
func (c *Client) ReplaceTask(ctx context.Context, listID string, task domain.Task) (*domain.Task, error) {
	var wire taskapi.Task
	if err := c.do(ctx, http.MethodPut, taskPath(listID, task.ID), taskapi.NewTaskRequest(task), &wire); err != nil {
		return nil, err
	}
	t := wire.Domain()
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) error {
	return c.do(ctx, http.MethodDelete, taskPath(listID, taskID), nil, nil)
}

// GetTaskListStats fetches the list and derives its stats, honouring a
// server-reported count and progress fraction when tasks are not embedded.
func (c *Client) GetTaskListStats(ctx context.Context, listID string) (domain.Stats, error) {
	wire, err := c.getWireList(ctx, listID)
	if err != nil {
		return domain.Stats{}, err
	}
	return wire.Stats(), nil
}

// Summary fetches every list and aggregates their stats.
func (c *Client) Summary(ctx context.Context) (domain.Summary, error) {
	lists, err := c.ListTaskLists(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(lists, c.now()), nil
}

func (c *Client) getWireList(ctx context.Context, id string) (*taskapi.TaskList, error) {
	var wire taskapi.TaskList
	if err := c.do(ctx, http.MethodGet, listPath(id), nil, &wire); err != nil {
		return nil, err
	}
	return &wire, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	call := func() error { return c.roundTrip(ctx, method, path, body, out) }
	if c.retry != nil && method != http.MethodPost {
		return withRetry(ctx, *c.retry, call)
	}
	return call()
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(method, path, resp)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func newError(method, path string, resp *http.Response) *Error {
	e := &Error{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body taskapi.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		e.Message = body.Message
		if body.Error != "" && body.Error != body.Message {
			e.Message += ": " + body.Error
		}
	} else {
		e.Message = strings.TrimSpace(string(raw))
	}
	return e
}

func listPath(id string) string {
	return "/task-lists/" + url.PathEscape(id)
}

func taskPath(listID, taskID string) string {
	return listPath(listID) + "/tasks/" + url.PathEscape(taskID)
}

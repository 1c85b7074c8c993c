package googlecloud

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/internal/logger"
)

// Client stores task lists in Google Cloud Datastore. Each list is a
// TaskList entity keyed by name; its tasks are Task entities whose ancestor
// is the list key.
type Client struct {
	ds    *datastore.Client
	retry RetryConfig
	now   func() time.Time
	newID func() string

	mu   sync.Mutex
	last time.Time
}

var _ domain.TaskListRepository = (*Client)(nil)

type Option func(*Client)

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.newID = gen
		}
	}
}

func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient creates a new Google Cloud Datastore client.
// The official client picks up DATASTORE_EMULATOR_HOST on its own.
func NewClient(ctx context.Context, projectID string, clientOpts []option.ClientOption, opts ...Option) (*Client, error) {
	if emulatorHost := os.Getenv("DATASTORE_EMULATOR_HOST"); emulatorHost != "" {
		logger.InfoLog(ctx, fmt.Sprintf("Initializing Datastore client against emulator at %s", emulatorHost))
	}

	ds, err := datastore.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return newClient(ds, opts...), nil
}

func newClient(ds *datastore.Client, opts ...Option) *Client {
	c := &Client{
		ds:    ds,
		retry: DefaultRetryConfig(),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the underlying datastore client.
func (c *Client) Close() error {
	return c.ds.Close()
}

// stamp returns the current time at Datastore's microsecond resolution,
// strictly after every stamp this client handed out before.
func (c *Client) stamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now().UTC().Truncate(time.Microsecond)
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}

// after returns a stamp that is also later than prev.
func (c *Client) after(prev time.Time) time.Time {
	now := c.stamp()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/tasktracker/internal/logger"
	"github.com/locvowork/tasktracker/internal/store"
)

const keepAliveInterval = 30 * time.Second

// EventsHandler streams store changes as server-sent events.
type EventsHandler struct {
	store     *store.Store
	keepAlive time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s, keepAlive: keepAliveInterval, done: make(chan struct{})}
}

// Close ends every open stream. http.Server.Shutdown does not cancel request
// contexts, so it must be registered with RegisterOnShutdown.
func (h *EventsHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// StreamHandler handles GET /events. Every mutation produces a "change"
// event carrying the current summary; bursts collapse into one event.
func (h *EventsHandler) StreamHandler(c echo.Context) error {
	ctx := c.Request().Context()
	changes := make(chan struct{}, 1)
	unsubscribe := h.store.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := h.send(w, "hello"); err != nil {
		return nil
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case <-changes:
			if err := h.send(w, "change"); err != nil {
				logger.WarnLog(ctx, fmt.Sprintf("event stream closed: %v", err))
				return nil
			}
		}
	}
}

func (h *EventsHandler) send(w *echo.Response, event string) error {
	data, err := json.Marshal(h.store.Summary())
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}

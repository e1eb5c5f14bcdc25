package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/notices"
)

const (
	defaultReplay     = 20
	heartbeatInterval = 25 * time.Second
)

// EventSource is the notice hub the events endpoints read from.
type EventSource interface {
	Subscribe() (<-chan notices.Event, func())
	Recent(n int) []notices.Event
}

// EventsController streams user notices and sync events to clients.
type EventsController struct {
	source    EventSource
	heartbeat time.Duration
}

func NewEventsController(source EventSource) *EventsController {
	return &EventsController{source: source, heartbeat: heartbeatInterval}
}

// Recent returns the latest buffered events, oldest first.
// GET /api/notices/recent?limit=
func (ec *EventsController) Recent(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", defaultReplay)
	if !ok {
		return
	}
	respondList(c, ec.source.Recent(limit))
}

// Stream is a server-sent events feed. Buffered events are replayed first
// (?replay=0 disables it), then live events follow until the client leaves.
// GET /api/events
func (ec *EventsController) Stream(c *gin.Context) {
	replay, ok := parseIntQuery(c, "replay", defaultReplay)
	if !ok {
		return
	}

	// Subscribe before replaying so nothing published in between is lost.
	events, cancel := ec.source.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	seen := make(map[string]struct{})
	if replay > 0 {
		for _, event := range ec.source.Recent(replay) {
			seen[event.ID] = struct{}{}
			writeEvent(c, event)
		}
	}
	c.Writer.Flush()

	ticker := time.NewTicker(ec.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if _, dup := seen[event.ID]; dup {
				delete(seen, event.ID)
				continue
			}
			writeEvent(c, event)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			c.Writer.Flush()
		}
	}
}

func writeEvent(c *gin.Context, event notices.Event) {
	c.Render(-1, sse.Event{
		Id:    event.ID,
		Event: string(event.Type),
		Data:  event,
	})
}

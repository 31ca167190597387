package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"event-tickets/internal/notify"
)

// StreamHandler pushes EventCreated notifications as server-sent events
type StreamHandler struct {
	broker *notify.Broker
}

func NewStreamHandler(broker *notify.Broker) *StreamHandler {
	return &StreamHandler{broker: broker}
}

// Events streams one "event_created" message per new event until the client leaves
// GET /api/events/stream
func (h *StreamHandler) Events(c *gin.Context) {
	ch, cancel := h.broker.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("event_created", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

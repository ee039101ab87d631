package stream

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"popup-service/internal/observability"
)

// Handler serves the live event stream over SSE and WebSocket.
type Handler struct {
	hub *Hub
}

// NewHandler constructs a stream Handler.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleSSE streams hub events as server-sent events until the client
// disconnects. The listener is unsubscribed on every exit path.
func (h *Handler) HandleSSE(c *gin.Context) {
	ctx, span := otel.Tracer("popup-service/stream").Start(c.Request.Context(), "stream.sse")
	defer span.End()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	listener := h.hub.Subscribe()
	defer h.hub.Unsubscribe(listener)

	observability.IncStreamActive("sse")
	defer observability.DecStreamActive("sse")

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-store")
	header.Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-listener.Events():
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Name, event.Data)
			flusher.Flush()
		}
	}
}

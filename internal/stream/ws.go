package stream

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"popup-service/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSFrame is the shape of a hub event on a websocket connection.
type WSFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HandleWS streams hub events over a websocket connection.
func (h *Handler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	listener := h.hub.Subscribe()
	observability.IncStreamActive("ws")

	done := make(chan struct{})
	go func() {
		// The read loop exists only to detect client disconnect.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("websocket read error id=%s: %v", listener.ID, err)
				}
				return
			}
		}
	}()

	defer func() {
		h.hub.Unsubscribe(listener)
		observability.DecStreamActive("ws")
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-listener.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(WSFrame{Event: event.Name, Data: event.Data})
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error id=%s: %v", listener.ID, err)
				return
			}
		}
	}
}

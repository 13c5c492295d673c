package events

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	keepaliveInterval = 25 * time.Second
	writeDeadline     = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedHandler streams broker events over a websocket connection.
type FeedHandler struct {
	broker *Broker
}

// NewFeedHandler wraps a broker with the live-update endpoint.
func NewFeedHandler(broker *Broker) http.Handler {
	return &FeedHandler{broker: broker}
}

func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[EVENTS] Failed to upgrade websocket: %v", err)
		return
	}
	defer ws.Close()

	id, feed := h.broker.Subscribe()
	defer h.broker.Unsubscribe(id)
	log.Printf("[EVENTS] Client connected: %s", id)

	// Read loop only to detect the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Printf("[EVENTS] Client disconnected: %s", id)
			return
		case event, ok := <-feed:
			if !ok {
				// Dropped by the broker for falling behind.
				log.Printf("[EVENTS] Client dropped: %s", id)
				return
			}
			ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := ws.WriteJSON(event); err != nil {
				log.Printf("[EVENTS] Failed to write event to %s: %v", id, err)
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

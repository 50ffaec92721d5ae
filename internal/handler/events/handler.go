package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/calebmorrow/daylight/backend/internal/model/escalation"
)

const subscriberBuffer = 16

// Hub fans created escalations out to supervising consumers. Publishing
// never blocks: a subscriber that cannot keep up drops events.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan escalation.Escalation]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan escalation.Escalation]struct{})}
}

// EscalationCreated implements the escalation service's Notifier.
func (h *Hub) EscalationCreated(e escalation.Escalation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *Hub) subscribe() chan escalation.Escalation {
	ch := make(chan escalation.Escalation, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan escalation.Escalation) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
}

// Handler streams escalation events over a websocket.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// New creates the events handler.
func New(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the event stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events/escalations", h.handleStream)
}

type event struct {
	Type       string                `json:"type"`
	Escalation escalation.Escalation `json:"escalation"`
	Timestamp  int64                 `json:"timestamp"`
}

// handleStream upgrades the connection and forwards escalation creations
// until the peer goes away.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := h.hub.subscribe()
	defer h.hub.unsubscribe(ch)

	// Reader only exists to observe the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case e := <-ch:
			msg := event{
				Type:       "escalation_created",
				Escalation: e,
				Timestamp:  time.Now().UTC().UnixMilli(),
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("[events] write failed: %v", err)
				return
			}
		}
	}
}

// Package notify pushes order status changes to kitchen screens over websockets.
package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"foodcourt-ordering/internal/model"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub fans order events out to the sockets subscribed to a food court.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: logger.With("component", "notify"),
	}
}

// Serve upgrades the request and keeps the socket registered until the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, foodCourtID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	h.add(foodCourtID, conn)
	defer h.remove(foodCourtID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *Hub) Publish(event model.OrderEvent) {
	data, err := json.Marshal(Message{Event: "order.status", Payload: event})
	if err != nil {
		h.log.Error("marshal order event failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients[event.FoodCourtID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("drop subscriber", "food_court_id", event.FoodCourtID, "error", err)
			conn.Close()
			delete(h.clients[event.FoodCourtID], conn)
		}
	}
}

// Subscribers reports how many sockets watch a food court.
func (h *Hub) Subscribers(foodCourtID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[foodCourtID])
}

func (h *Hub) add(foodCourtID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[foodCourtID] == nil {
		h.clients[foodCourtID] = make(map[*websocket.Conn]bool)
	}
	h.clients[foodCourtID][conn] = true
}

func (h *Hub) remove(foodCourtID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients[foodCourtID], conn)
	if len(h.clients[foodCourtID]) == 0 {
		delete(h.clients, foodCourtID)
	}
}

package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/pipeline"
)

// Hub fans pipeline progress out to connected websocket clients.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		log:        log,
	}
}

func (h *Hub) Start() {
	go func() {
		for {
			select {
			case conn := <-h.register:
				h.mu.Lock()
				h.clients[conn] = true
				h.mu.Unlock()
				h.log.Debug("websocket client connected", zap.Int("clients", len(h.clients)))
			case conn := <-h.unregister:
				h.mu.Lock()
				if _, ok := h.clients[conn]; ok {
					delete(h.clients, conn)
					conn.Close()
				}
				h.mu.Unlock()
			case message := <-h.broadcast:
				h.mu.Lock()
				for conn := range h.clients {
					if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
						conn.Close()
						delete(h.clients, conn)
					}
				}
				h.mu.Unlock()
			}
		}
	}()
}

// StageUpdate satisfies pipeline.Notifier. A nil Hub drops the update,
// so the notifier can be wired before the hub exists.
func (h *Hub) StageUpdate(job *pipeline.Job, res pipeline.StageResult) {
	if h == nil {
		return
	}
	update := map[string]interface{}{
		"type":      "stage_update",
		"job_id":    job.ID,
		"stage":     res.Stage,
		"status":    res.Status,
		"timestamp": time.Now(),
	}
	if res.Error != "" {
		update["error"] = res.Error
	}
	data, err := json.Marshal(update)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("websocket broadcast buffer full, dropping update")
	}
}

func (h *Hub) RegisterClient(conn *websocket.Conn)   { h.register <- conn }
func (h *Hub) UnregisterClient(conn *websocket.Conn) { h.unregister <- conn }

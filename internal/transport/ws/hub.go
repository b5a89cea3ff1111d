package ws

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans dashboard events out to connected recruiters
type Hub struct {
	conns map[*Connection]struct{}
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
}

// Connection is one recruiter dashboard socket.
// An empty Profile receives events for every profile.
type Connection struct {
	RecruiterID string
	Profile     string
	Send        chan []byte
}

// BroadcastMessage is a message bound for dashboards watching Profile
type BroadcastMessage struct {
	Profile string
	Message *Message
}

// NewHub creates a hub and starts its run loop
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for conn := range h.conns {
				delete(h.conns, conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = struct{}{}
			h.mu.Unlock()
			log.Printf("[WS] Recruiter %s watching profile %q", conn.RecruiterID, conn.Profile)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.conns[conn]; ok {
				delete(h.conns, conn)
				close(conn.Send)
				log.Printf("[WS] Recruiter %s disconnected", conn.RecruiterID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				log.Printf("[WS] Failed to encode %s: %v", msg.Message.Type, err)
				continue
			}
			h.mu.RLock()
			for conn := range h.conns {
				if conn.Profile != "" && conn.Profile != msg.Profile {
					continue
				}
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Close disconnects every dashboard and stops the run loop
func (h *Hub) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Count returns the number of connected dashboards
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastToDashboard implements service.Broadcaster. It never blocks the
// caller: when the queue is full the event is dropped and logged.
func (h *Hub) BroadcastToDashboard(profile string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WS] Failed to encode %s payload: %v", msgType, err)
		return
	}
	msg := &BroadcastMessage{
		Profile: profile,
		Message: &Message{Type: msgType, Payload: data},
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("[WS] Broadcast queue full, dropping %s for %s", msgType, profile)
	}
}

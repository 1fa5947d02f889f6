package ws

import (
	"sync"

	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
)

// Hub tracks live clients and the per-room connection groups. It implements
// domain.Broadcaster; every delivery is a non-blocking enqueue.
type Hub struct {
	clients map[string]*Client            // connID -> Client
	groups  map[string]map[string]*Client // roomID -> connID -> Client
	logger  logging.Logger
	mu      sync.RWMutex
}

func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) Register(cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[cl.ID] = cl
}

// Unregister removes the client from every group and closes its send buffer.
func (h *Hub) Unregister(cl *Client) {
	h.mu.Lock()
	if current, ok := h.clients[cl.ID]; ok && current == cl {
		delete(h.clients, cl.ID)
	}
	for roomID, group := range h.groups {
		if group[cl.ID] == cl {
			delete(group, cl.ID)
			if len(group) == 0 {
				delete(h.groups, roomID)
			}
		}
	}
	h.mu.Unlock()

	cl.close()
}

func (h *Hub) Subscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cl, ok := h.clients[connID]
	if !ok {
		return
	}

	group, ok := h.groups[roomID]
	if !ok {
		group = make(map[string]*Client)
		h.groups[roomID] = group
	}
	group[connID] = cl
}

func (h *Hub) Unsubscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if group, ok := h.groups[roomID]; ok {
		delete(group, connID)
		if len(group) == 0 {
			delete(h.groups, roomID)
		}
	}
}

func (h *Hub) Publish(roomID, event string, payload any) {
	msg := NewPush(roomID, event, payload)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, cl := range h.groups[roomID] {
		if !cl.Send(msg) {
			// Client is too slow – drop the message
			h.logger.Warn(logging.WebSocket, logging.Push, "client buffer full, dropping message", map[logging.ExtraKey]any{
				logging.RoomID: roomID,
				logging.Event:  event,
			})
			h.logger.Debug(logging.WebSocket, logging.Push, "dropped message", map[logging.ExtraKey]any{
				logging.RoomID:   roomID,
				logging.SocketID: cl.ID,
			})
		}
	}
}

func (h *Hub) Drop(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.groups, roomID)
}

// SendTo delivers a frame to one connection.
func (h *Hub) SendTo(connID string, msg *Message) bool {
	h.mu.RLock()
	cl, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	return cl.Send(msg)
}

func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

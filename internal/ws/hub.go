package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection with collaborator context.
// CollaboratorID stays zero until the connection authenticates.
type Client struct {
	CollaboratorID uint
	Name           string
	Role           string
	Send           chan []byte
	Hub            *Hub
	mu             sync.Mutex
	closed         bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
}

// Hub maintains the set of active clients and broadcasts to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// collaboratorID -> clients (one collaborator can have multiple connections)
	byCollaborator map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:        make(map[*Client]struct{}),
		byCollaborator: make(map[uint]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
	h.indexLocked(c)
}

// Reindex must be called after a client authenticates so collaborator-targeted
// sends reach it.
func (h *Hub) Reindex(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.indexLocked(c)
}

func (h *Hub) indexLocked(c *Client) {
	if c.CollaboratorID == 0 {
		return
	}
	if h.byCollaborator[c.CollaboratorID] == nil {
		h.byCollaborator[c.CollaboratorID] = make(map[*Client]struct{})
	}
	h.byCollaborator[c.CollaboratorID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byCollaborator[c.CollaboratorID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byCollaborator, c.CollaboratorID)
		}
	}
}

func (h *Hub) SendToClient(c *Client, payload interface{}) {
	data, _ := json.Marshal(payload)
	select {
	case c.Send <- data:
	default:
	}
}

func (h *Hub) BroadcastToCollaborator(collaboratorID uint, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	m := h.byCollaborator[collaboratorID]
	if m == nil {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) BroadcastAll(payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// BroadcastOthers sends to every client except one (the sender gets its own
// confirmation payload instead).
func (h *Hub) BroadcastOthers(except *Client, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c != except {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

package ws

import (
	"sync"
	"time"
)

// PresenceEntry describes one authenticated live connection.
type PresenceEntry struct {
	CollaboratorID uint      `json:"collaborator_id"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	ConnectedAt    time.Time `json:"connected_at"`
}

// PresenceRegistry maps live connections to collaborator identity. It is
// volatile: entries exist only for the lifetime of a connection and are
// rebuilt from scratch on reconnect. Attendance rows are never touched on
// disconnect; a dropped socket is not a cancellation.
type PresenceRegistry struct {
	mu             sync.RWMutex
	entries        map[*Client]PresenceEntry
	byCollaborator map[uint]map[*Client]struct{}
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries:        make(map[*Client]PresenceEntry),
		byCollaborator: make(map[uint]map[*Client]struct{}),
	}
}

// Add records an authenticated connection.
func (p *PresenceRegistry) Add(c *Client, collaboratorID uint, name, role string) PresenceEntry {
	entry := PresenceEntry{
		CollaboratorID: collaboratorID,
		Name:           name,
		Role:           role,
		ConnectedAt:    time.Now(),
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[c] = entry
	if p.byCollaborator[collaboratorID] == nil {
		p.byCollaborator[collaboratorID] = make(map[*Client]struct{})
	}
	p.byCollaborator[collaboratorID][c] = struct{}{}
	return entry
}

// Remove drops a connection's entry. Returns the entry and whether the
// collaborator still has other live connections.
func (p *PresenceRegistry) Remove(c *Client) (PresenceEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[c]
	if !ok {
		return PresenceEntry{}, false
	}
	delete(p.entries, c)
	if m := p.byCollaborator[entry.CollaboratorID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(p.byCollaborator, entry.CollaboratorID)
			return entry, false
		}
	}
	return entry, true
}

// IsOnline reports whether the collaborator has at least one authenticated
// connection.
func (p *PresenceRegistry) IsOnline(collaboratorID uint) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byCollaborator[collaboratorID]) > 0
}

// Get returns the entry for a connection, if authenticated.
func (p *PresenceRegistry) Get(c *Client) (PresenceEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[c]
	return entry, ok
}

// List returns one entry per online collaborator.
func (p *PresenceRegistry) List() []PresenceEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	seen := make(map[uint]bool, len(p.byCollaborator))
	out := make([]PresenceEntry, 0, len(p.byCollaborator))
	for _, e := range p.entries {
		if seen[e.CollaboratorID] {
			continue
		}
		seen[e.CollaboratorID] = true
		out = append(out, e)
	}
	return out
}

func (p *PresenceRegistry) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byCollaborator)
}

package realtime

import (
	"sync"

	"github.com/Sean4E/PMHub2/logging"
)

// Registry is the process-wide table of live connections keyed by identity.
// It is constructed at the process root and handed to whoever needs it;
// nothing imports it as ambient global state, so tests can run several
// registries side by side.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]map[*Connection]struct{}),
	}
}

// Register adds a connection under its identity. A second tab for the same
// user is additive, never replacing. The first connection for a previously
// offline identity announces user:online to everyone else; presence is
// global, not room-scoped.
func (r *Registry) Register(c *Connection) {
	userID := c.Identity.ID.Hex()

	r.mu.Lock()
	set, ok := r.connections[userID]
	if !ok {
		set = make(map[*Connection]struct{})
		r.connections[userID] = set
	}
	wasOffline := len(set) == 0
	set[c] = struct{}{}
	r.mu.Unlock()

	logging.Logger.Infof("Event ID: USER_CONNECTED, Description: User %s connected (connection %s)", c.Identity.Name, c.ID)

	if wasOffline {
		identity := c.Identity
		r.broadcastExcept(c, ServerEvent{
			Event: EventUserOnline,
			Data:  PresencePayload{UserID: userID, User: &identity},
		})
	}
}

// Unregister removes exactly that connection. When the identity's last
// connection drops, user:offline goes out to every remaining connection.
func (r *Registry) Unregister(c *Connection) {
	userID := c.Identity.ID.Hex()

	r.mu.Lock()
	set, ok := r.connections[userID]
	if ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.connections, userID)
		}
	}
	nowOffline := ok && len(set) == 0
	r.mu.Unlock()

	if !ok {
		return
	}

	logging.Logger.Infof("Event ID: USER_DISCONNECTED, Description: User %s disconnected (connection %s)", c.Identity.Name, c.ID)

	if nowOffline {
		r.broadcastExcept(c, ServerEvent{
			Event: EventUserOffline,
			Data:  PresencePayload{UserID: userID},
		})
	}
}

// ConnectionsFor returns a snapshot of the identity's live connections.
func (r *Registry) ConnectionsFor(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.connections[userID]
	out := make([]*Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Online reports whether the identity holds at least one connection.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections[userID]) > 0
}

// broadcastExcept delivers a presence event to every connection but the
// given one. Best-effort: Send never blocks.
func (r *Registry) broadcastExcept(exclude *Connection, event ServerEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, set := range r.connections {
		for c := range set {
			if c == exclude {
				continue
			}
			c.Send(event)
		}
	}
}

package realtime

import (
	"sync"
)

// RoomRouter scopes broadcast traffic to the connections that joined a
// room. A room exists exactly while it has members; there is nothing to
// create or destroy explicitly.
type RoomRouter struct {
	mu      sync.RWMutex
	members map[string]map[*Connection]struct{}
	joined  map[*Connection]map[string]struct{}
}

func NewRoomRouter() *RoomRouter {
	return &RoomRouter{
		members: make(map[string]map[*Connection]struct{}),
		joined:  make(map[*Connection]map[string]struct{}),
	}
}

// Join adds the connection to the room. Joining a room already joined is a
// no-op.
func (r *RoomRouter) Join(c *Connection, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[room]
	if !ok {
		set = make(map[*Connection]struct{})
		r.members[room] = set
	}
	set[c] = struct{}{}

	rooms, ok := r.joined[c]
	if !ok {
		rooms = make(map[string]struct{})
		r.joined[c] = rooms
	}
	rooms[room] = struct{}{}
}

// Leave removes the connection from the room. Leaving a room not joined is
// a no-op.
func (r *RoomRouter) Leave(c *Connection, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c, room)
}

func (r *RoomRouter) leaveLocked(c *Connection, room string) {
	if set, ok := r.members[room]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
	if rooms, ok := r.joined[c]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, c)
		}
	}
}

// Broadcast delivers the event to every member of the room except exclude,
// which is normally the mutation's originator. An empty room is a silent
// no-op.
func (r *RoomRouter) Broadcast(room string, exclude *Connection, event ServerEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for c := range r.members[room] {
		if c == exclude {
			continue
		}
		c.Send(event)
	}
}

// RemoveConnection clears every membership the connection holds. Called on
// unregister so no membership outlives its connection.
func (r *RoomRouter) RemoveConnection(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[c] {
		r.leaveLocked(c, room)
	}
	delete(r.joined, c)
}

// Rooms returns a snapshot of the rooms the connection has joined.
func (r *RoomRouter) Rooms(c *Connection) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.joined[c]))
	for room := range r.joined[c] {
		out = append(out, room)
	}
	return out
}

// MemberCount reports the room's current size.
func (r *RoomRouter) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[room])
}

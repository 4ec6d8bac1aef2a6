package ws

import (
	"log"
	"sync"

	"golang.org/x/net/websocket"
)

// Conn is the subset of a websocket connection the hub needs.  Tests use
// in-memory implementations; production code wraps *websocket.Conn via
// NewConn.
type Conn interface {
	SendJSON(v any) error
	Close() error
}

// wsConn adapts *websocket.Conn to the Conn interface.
type wsConn struct {
	c *websocket.Conn
}

func (w wsConn) SendJSON(v any) error { return websocket.JSON.Send(w.c, v) }
func (w wsConn) Close() error         { return w.c.Close() }

// NewConn wraps a websocket connection for registration with the hub.
func NewConn(c *websocket.Conn) Conn { return wsConn{c: c} }

// room holds the live subscribers of one trip.  Its mutex is held for the
// whole of a broadcast so that events for a trip reach every subscriber in
// the order Broadcast was called.
type room struct {
	mu    sync.Mutex
	conns []Conn
}

// Hub tracks subscriber connections grouped by trip and fans events out to
// them.  Membership is mutated concurrently by new subscriptions,
// disconnects and broadcasts from unrelated requests, so all access goes
// through the hub's locks.  The hub is purely in-process state and is
// rebuilt empty on every start.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint64]*room
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[uint64]*room)}
}

// Subscribe registers a connection as a watcher of the given trip.
func (h *Hub) Subscribe(tripID uint64, conn Conn) {
	h.mu.Lock()
	r, ok := h.rooms[tripID]
	if !ok {
		r = &room{}
		h.rooms[tripID] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.conns = append(r.conns, conn)
	r.mu.Unlock()
}

// Unsubscribe removes a connection from a trip room.  It is idempotent:
// removing a connection that is already gone does nothing.  Empty rooms
// are deleted so idle trips do not accumulate state.
func (h *Hub) Unsubscribe(tripID uint64, conn Conn) {
	h.mu.RLock()
	r, ok := h.rooms[tripID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	for i, c := range r.conns {
		if c == conn {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			break
		}
	}
	empty := len(r.conns) == 0
	r.mu.Unlock()

	if empty {
		h.mu.Lock()
		// Re-check under the write lock; a concurrent Subscribe may have
		// repopulated the room.
		if r2, ok := h.rooms[tripID]; ok && r2 == r {
			r.mu.Lock()
			if len(r.conns) == 0 {
				delete(h.rooms, tripID)
			}
			r.mu.Unlock()
		}
		h.mu.Unlock()
	}
}

// Broadcast delivers an event to every subscriber of a trip.  Delivery is
// best-effort per connection: a failed send marks that connection dead and
// drops it, without affecting the other subscribers or the caller.  The
// iteration runs over a stable snapshot of the membership list, so
// removals triggered by failures cannot skip or double-deliver.
func (h *Hub) Broadcast(tripID uint64, ev Event) {
	h.mu.RLock()
	r, ok := h.rooms[tripID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]Conn, len(r.conns))
	copy(snapshot, r.conns)

	var dead []Conn
	for _, c := range snapshot {
		if err := c.SendJSON(ev); err != nil {
			log.Printf("ws: dropping subscriber of trip %d: %v", tripID, err)
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		for i, existing := range r.conns {
			if existing == c {
				r.conns = append(r.conns[:i], r.conns[i+1:]...)
				break
			}
		}
		_ = c.Close()
	}
}

// RoomSize reports the number of live subscribers for a trip.
func (h *Hub) RoomSize(tripID uint64) int {
	h.mu.RLock()
	r, ok := h.rooms[tripID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

package hub

import (
	"errors"
	"log/slog"
	"sync"

	"webrtc-signaling-server/domain"
	"webrtc-signaling-server/metrics"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyJoined = errors.New("already joined this room")
	ErrNotRoomMember = errors.New("not a member of this room")
)

// RoomUpdate is the post-mutation snapshot handed back to the router for the
// room:update broadcast. Parties and Members share the same order.
type RoomUpdate struct {
	ID        string
	Parties   []string
	Bandwidth int
	Members   []domain.Connection
}

// Hub owns all signaling state: the registry of live connections and the
// room directory. Exported operations are individually atomic; the message
// router additionally serializes whole dispatch steps, so the lock here
// mainly protects the HTTP stats endpoint reading concurrently.
type Hub struct {
	mu       sync.RWMutex
	registry *connectionRegistry
	rooms    *directory
}

func New() *Hub {
	return &Hub{
		registry: newConnectionRegistry(),
		rooms:    newDirectory(),
	}
}

func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	h.registry.register(conn)
	count := h.registry.len()
	h.mu.Unlock()

	metrics.ConnectedClients.Set(float64(count))
	slog.Info("client connected", "clientId", conn.ID(), "clients", count)
}

// Connections snapshots every registered connection for directory pushes.
func (h *Hub) Connections() []domain.Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.all()
}

// CreateRoom inserts an empty room and returns its directory entry. It
// cannot fail; name uniqueness is not enforced.
func (h *Hub) CreateRoom(name string) domain.RoomInfo {
	h.mu.Lock()
	r := h.rooms.create(name)
	count := h.rooms.len()
	h.mu.Unlock()

	metrics.ActiveRooms.Set(float64(count))
	slog.Info("room created", "roomId", r.id, "name", name)
	return domain.RoomInfo{ID: r.id, Name: r.name}
}

// Rooms snapshots the directory for the room:list payload.
func (h *Hub) Rooms() []domain.RoomInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms.list()
}

// JoinRoom appends a member to the room's roster. A connection may hold at
// most one membership per room; a second join is rejected rather than
// inserting a duplicate.
func (h *Hub) JoinRoom(roomID, name string, conn domain.Connection) (RoomUpdate, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms.get(roomID)
	if !ok {
		return RoomUpdate{}, ErrRoomNotFound
	}
	if r.contains(conn.ID()) {
		return RoomUpdate{}, ErrAlreadyJoined
	}
	r.join(name, conn)
	slog.Info("client joined room", "roomId", roomID, "clientId", conn.ID(), "name", name)
	return h.snapshot(r), nil
}

// SetBandwidth replaces the room's advisory rate. The value is not
// validated; peers interpret it, the server only stores and rebroadcasts.
func (h *Hub) SetBandwidth(roomID string, kbps int) (RoomUpdate, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms.get(roomID)
	if !ok {
		return RoomUpdate{}, ErrRoomNotFound
	}
	r.bandwidth = kbps
	slog.Info("room bandwidth changed", "roomId", roomID, "bandwidth", kbps)
	return h.snapshot(r), nil
}

// RoomMembers returns the room's connections for a webrtc relay.
func (h *Hub) RoomMembers(roomID string) ([]domain.Connection, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rooms.get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.members(), nil
}

// LeaveRoom removes the connection's membership from one room while leaving
// it registered. The returned update is nil when the room emptied and was
// deleted instead.
func (h *Hub) LeaveRoom(roomID string, conn domain.Connection) (update *RoomUpdate, deleted bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms.get(roomID)
	if !ok {
		return nil, false, ErrRoomNotFound
	}
	removed, empty := r.leave(conn.ID())
	if !removed {
		return nil, false, ErrNotRoomMember
	}
	slog.Info("client left room", "roomId", roomID, "clientId", conn.ID())
	if empty {
		h.deleteRoom(roomID)
		return nil, true, nil
	}
	u := h.snapshot(r)
	return &u, false, nil
}

// Disconnect runs full teardown for a closed connection: unregister, remove
// it from every room that holds it, and delete rooms that emptied. Updates
// cover the rooms that survived with a smaller roster; deleted reports
// whether the directory changed.
func (h *Hub) Disconnect(conn domain.Connection) (updates []RoomUpdate, deleted bool) {
	h.mu.Lock()

	h.registry.unregister(conn)
	clients := h.registry.len()

	for id, r := range h.rooms.rooms {
		removed, empty := r.leave(conn.ID())
		if !removed {
			continue
		}
		if empty {
			h.deleteRoom(id)
			deleted = true
			continue
		}
		updates = append(updates, h.snapshot(r))
	}
	h.mu.Unlock()

	metrics.ConnectedClients.Set(float64(clients))
	slog.Info("client disconnected", "clientId", conn.ID(), "clients", clients)
	return updates, deleted
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms.len(), h.registry.len()
}

// deleteRoom must be called with the lock held.
func (h *Hub) deleteRoom(id string) {
	h.rooms.delete(id)
	metrics.ActiveRooms.Set(float64(h.rooms.len()))
	slog.Info("room deleted", "roomId", id)
}

// snapshot must be called with the lock held.
func (h *Hub) snapshot(r *room) RoomUpdate {
	return RoomUpdate{
		ID:        r.id,
		Parties:   r.partyNames(),
		Bandwidth: r.bandwidth,
		Members:   r.members(),
	}
}

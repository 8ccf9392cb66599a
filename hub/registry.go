package hub

import "webrtc-signaling-server/domain"

// connectionRegistry tracks every live connection, whether or not it has
// joined a room. Keyed by connection id, so re-registering is a no-op.
type connectionRegistry struct {
	conns map[string]domain.Connection
}

func newConnectionRegistry() *connectionRegistry {
	return &connectionRegistry{conns: make(map[string]domain.Connection)}
}

func (cr *connectionRegistry) register(conn domain.Connection) {
	cr.conns[conn.ID()] = conn
}

func (cr *connectionRegistry) unregister(conn domain.Connection) {
	delete(cr.conns, conn.ID())
}

// all returns a snapshot so callers can fan out without holding the hub lock
// against the map itself.
func (cr *connectionRegistry) all() []domain.Connection {
	out := make([]domain.Connection, 0, len(cr.conns))
	for _, c := range cr.conns {
		out = append(out, c)
	}
	return out
}

func (cr *connectionRegistry) len() int {
	return len(cr.conns)
}

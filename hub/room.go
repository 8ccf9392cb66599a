package hub

import "webrtc-signaling-server/domain"

// DefaultBandwidth is the kbps advisory a room starts with until a member
// changes it.
const DefaultBandwidth = 300

type member struct {
	name string
	conn domain.Connection
}

// room holds one conference's roster. The roster is a slice, not a set:
// join order is what clients display, so it must survive leaves of other
// members.
type room struct {
	id        string
	name      string
	bandwidth int
	parties   []member
}

func (r *room) join(name string, conn domain.Connection) {
	r.parties = append(r.parties, member{name: name, conn: conn})
}

func (r *room) contains(connID string) bool {
	for _, p := range r.parties {
		if p.conn.ID() == connID {
			return true
		}
	}
	return false
}

// leave removes the first member with the given connection id and reports
// whether the roster is now empty.
func (r *room) leave(connID string) (removed, empty bool) {
	for i, p := range r.parties {
		if p.conn.ID() == connID {
			r.parties = append(r.parties[:i], r.parties[i+1:]...)
			removed = true
			break
		}
	}
	return removed, len(r.parties) == 0
}

func (r *room) partyNames() []string {
	names := make([]string, len(r.parties))
	for i, p := range r.parties {
		names[i] = p.name
	}
	return names
}

func (r *room) members() []domain.Connection {
	conns := make([]domain.Connection, len(r.parties))
	for i, p := range r.parties {
		conns[i] = p.conn
	}
	return conns
}

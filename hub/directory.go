package hub

import (
	"github.com/oklog/ulid/v2"

	"webrtc-signaling-server/domain"
)

// directory maps room ids to live rooms. Deleted rooms are removed outright;
// their ids go back into circulation for future creates.
type directory struct {
	rooms map[string]*room
}

func newDirectory() *directory {
	return &directory{rooms: make(map[string]*room)}
}

// create inserts an empty room under a fresh id and returns it. Ids only
// need to be unique among rooms that currently exist, so collisions are
// resolved by regenerating.
func (d *directory) create(name string) *room {
	var id string
	for {
		id = ulid.Make().String()
		if _, ok := d.rooms[id]; !ok {
			break
		}
	}
	r := &room{id: id, name: name, bandwidth: DefaultBandwidth}
	d.rooms[id] = r
	return r
}

func (d *directory) get(id string) (*room, bool) {
	r, ok := d.rooms[id]
	return r, ok
}

func (d *directory) delete(id string) {
	delete(d.rooms, id)
}

// list returns a directory snapshot for the room:list push.
func (d *directory) list() []domain.RoomInfo {
	out := make([]domain.RoomInfo, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, domain.RoomInfo{ID: r.id, Name: r.name})
	}
	return out
}

func (d *directory) len() int {
	return len(d.rooms)
}

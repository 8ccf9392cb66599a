package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id       string
	received [][]byte
	mu       sync.Mutex
	sendErr  error
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func TestHub_CreateRoom(t *testing.T) {
	h := New()

	first := h.CreateRoom("Demo")
	second := h.CreateRoom("Demo")

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Demo", first.Name)
	assert.NotEqual(t, first.ID, second.ID, "room ids must be unique among live rooms")
	assert.ElementsMatch(t, []string{first.ID, second.ID}, roomIDs(h))
}

func TestHub_JoinRoom(t *testing.T) {
	tests := []struct {
		name    string
		join    func(*Hub, string, *mockConn) error
		wantErr error
	}{
		{
			name: "join existing room",
			join: func(h *Hub, id string, conn *mockConn) error {
				_, err := h.JoinRoom(id, "Bob", conn)
				return err
			},
		},
		{
			name: "unknown room",
			join: func(h *Hub, id string, conn *mockConn) error {
				_, err := h.JoinRoom("missing", "Bob", conn)
				return err
			},
			wantErr: ErrRoomNotFound,
		},
		{
			name: "duplicate join rejected",
			join: func(h *Hub, id string, conn *mockConn) error {
				_, err := h.JoinRoom(id, "Bob", conn)
				require.NoError(t, err)
				_, err = h.JoinRoom(id, "Bob again", conn)
				return err
			},
			wantErr: ErrAlreadyJoined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			conn := &mockConn{id: "c1"}
			h.Register(conn)
			info := h.CreateRoom("Demo")

			err := tt.join(h, info.ID, conn)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			update, _, err := h.LeaveRoom(info.ID, conn)
			require.NoError(t, err)
			assert.Nil(t, update, "single member leaving empties the room")
		})
	}
}

func TestHub_JoinSnapshot(t *testing.T) {
	h := New()
	bob := &mockConn{id: "bob"}
	info := h.CreateRoom("Demo")

	update, err := h.JoinRoom(info.ID, "Bob", bob)

	require.NoError(t, err)
	assert.Equal(t, info.ID, update.ID)
	assert.Equal(t, []string{"Bob"}, update.Parties)
	assert.Equal(t, DefaultBandwidth, update.Bandwidth)
	require.Len(t, update.Members, 1)
	assert.Equal(t, "bob", update.Members[0].ID())
}

func TestHub_RosterOrdering(t *testing.T) {
	h := New()
	info := h.CreateRoom("Demo")
	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	c := &mockConn{id: "c"}

	_, err := h.JoinRoom(info.ID, "Alice", a)
	require.NoError(t, err)
	_, err = h.JoinRoom(info.ID, "Bob", b)
	require.NoError(t, err)
	update, err := h.JoinRoom(info.ID, "Carol", c)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, update.Parties)

	left, _, err := h.LeaveRoom(info.ID, b)
	require.NoError(t, err)
	require.NotNil(t, left)
	assert.Equal(t, []string{"Alice", "Carol"}, left.Parties, "join order survives leaves of other members")
}

func TestHub_SetBandwidth(t *testing.T) {
	tests := []struct {
		name string
		kbps int
	}{
		{name: "regular value", kbps: 150},
		{name: "zero passes through", kbps: 0},
		{name: "negative passes through", kbps: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			info := h.CreateRoom("Demo")
			_, err := h.JoinRoom(info.ID, "Bob", &mockConn{id: "bob"})
			require.NoError(t, err)

			update, err := h.SetBandwidth(info.ID, tt.kbps)

			require.NoError(t, err)
			assert.Equal(t, tt.kbps, update.Bandwidth)
		})
	}

	t.Run("unknown room", func(t *testing.T) {
		h := New()
		_, err := h.SetBandwidth("missing", 150)
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func TestHub_LeaveRoom(t *testing.T) {
	h := New()
	info := h.CreateRoom("Demo")
	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	_, err := h.JoinRoom(info.ID, "Alice", a)
	require.NoError(t, err)
	_, err = h.JoinRoom(info.ID, "Bob", b)
	require.NoError(t, err)

	_, _, err = h.LeaveRoom(info.ID, &mockConn{id: "stranger"})
	assert.ErrorIs(t, err, ErrNotRoomMember)

	update, deleted, err := h.LeaveRoom(info.ID, a)
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NotNil(t, update)
	assert.Equal(t, []string{"Bob"}, update.Parties)

	update, deleted, err = h.LeaveRoom(info.ID, b)
	require.NoError(t, err)
	assert.True(t, deleted, "last member leaving deletes the room")
	assert.Nil(t, update)
	assert.Empty(t, h.Rooms())

	_, _, err = h.LeaveRoom(info.ID, b)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestHub_Disconnect(t *testing.T) {
	h := New()
	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	h.Register(a)
	h.Register(b)
	info := h.CreateRoom("Demo")
	_, err := h.JoinRoom(info.ID, "Alice", a)
	require.NoError(t, err)
	_, err = h.JoinRoom(info.ID, "Bob", b)
	require.NoError(t, err)

	updates, deleted := h.Disconnect(b)
	assert.False(t, deleted)
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"Alice"}, updates[0].Parties)

	updates, deleted = h.Disconnect(a)
	assert.True(t, deleted, "room emptied by disconnect is removed from the directory")
	assert.Empty(t, updates)
	assert.Empty(t, h.Rooms())

	rooms, clients := h.Stats()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, clients)
}

func TestHub_DisconnectUnaffiliated(t *testing.T) {
	h := New()
	member := &mockConn{id: "member"}
	lurker := &mockConn{id: "lurker"}
	h.Register(member)
	h.Register(lurker)
	info := h.CreateRoom("Demo")
	_, err := h.JoinRoom(info.ID, "Member", member)
	require.NoError(t, err)

	updates, deleted := h.Disconnect(lurker)

	assert.Empty(t, updates)
	assert.False(t, deleted)
	assert.Equal(t, []string{info.ID}, roomIDs(h), "directory untouched by unaffiliated disconnect")
	rooms, clients := h.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, clients)
}

func TestHub_RegisterIdempotent(t *testing.T) {
	h := New()
	conn := &mockConn{id: "c1"}

	h.Register(conn)
	h.Register(conn)

	assert.Len(t, h.Connections(), 1)
}

func TestHub_Stats(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*Hub)
		wantRooms   int
		wantClients int
	}{
		{
			name:        "empty hub",
			setup:       func(h *Hub) {},
			wantRooms:   0,
			wantClients: 0,
		},
		{
			name: "clients without rooms",
			setup: func(h *Hub) {
				h.Register(&mockConn{id: "c1"})
				h.Register(&mockConn{id: "c2"})
			},
			wantRooms:   0,
			wantClients: 2,
		},
		{
			name: "rooms and clients",
			setup: func(h *Hub) {
				h.Register(&mockConn{id: "c1"})
				h.CreateRoom("r1")
				h.CreateRoom("r2")
			},
			wantRooms:   2,
			wantClients: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			tt.setup(h)

			rooms, clients := h.Stats()

			assert.Equal(t, tt.wantRooms, rooms)
			assert.Equal(t, tt.wantClients, clients)
		})
	}
}

func roomIDs(h *Hub) []string {
	var ids []string
	for _, info := range h.Rooms() {
		ids = append(ids, info.ID)
	}
	return ids
}

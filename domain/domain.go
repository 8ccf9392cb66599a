package domain

import "encoding/json"

// Event tags carried in the envelope's "event" field. The room:* events
// manage membership and the directory; webrtc:* payloads are relayed to the
// other room members without inspection.
const (
	EventRoomList         = "room:list"
	EventRoomCreate       = "room:create"
	EventRoomJoin         = "room:join"
	EventRoomJoined       = "room:joined"
	EventRoomLeave        = "room:leave"
	EventRoomUpdate       = "room:update"
	EventRoomSetBandwidth = "room:set-bandwidth"
	EventOffer            = "webrtc:offer"
	EventAnswer           = "webrtc:answer"
	EventICECandidate     = "webrtc:ice-candidate"
	EventError            = "error"
)

// Envelope is the outer frame for every message in both directions. Data is
// left raw so relayed payloads pass through byte for byte.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomInfo is one entry of the room directory.
type RoomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomListData struct {
	Rooms []RoomInfo `json:"rooms"`
}

type CreateData struct {
	Name string `json:"name"`
}

type JoinData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomRef is the common shape of every room-scoped request; relays and leave
// only need the id.
type RoomRef struct {
	ID string `json:"id"`
}

type BandwidthData struct {
	ID        string `json:"id"`
	Bandwidth int    `json:"bandwidth"`
}

type JoinedData struct {
	ID string `json:"id"`
}

// UpdateData is pushed to every member of a room whenever its roster or
// bandwidth changes. Parties are display names in join order.
type UpdateData struct {
	ID        string   `json:"id"`
	Parties   []string `json:"parties"`
	Bandwidth int      `json:"bandwidth"`
}

type ErrorData struct {
	Error string `json:"error"`
}

// Connection is one client's bidirectional message channel. The id is
// assigned at upgrade time and is the only identity used for membership and
// sender-exclusion checks.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// MessageHandler receives the lifecycle and traffic of a connection from the
// transport layer.
type MessageHandler interface {
	Connect(conn Connection)
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}

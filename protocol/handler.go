package protocol

import (
	"encoding/json"
	"log/slog"
	"sync"

	"webrtc-signaling-server/domain"
	"webrtc-signaling-server/hub"
	"webrtc-signaling-server/metrics"
)

// Handler is the message router. Its mutex is the single serialization
// point for all state mutation: every inbound event and every disconnect
// runs to completion, fan-out included, before the next one is dispatched.
type Handler struct {
	hub *hub.Hub
	mu  sync.Mutex
}

func NewHandler(h *hub.Hub) *Handler {
	return &Handler{hub: h}
}

// Connect registers a fresh connection. It is not in any room until it
// sends room:join.
func (h *Handler) Connect(conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hub.Register(conn)
}

// Handle decodes one inbound frame and dispatches it. Malformed frames are
// dropped without closing the connection.
func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid envelope", "clientId", conn.ID(), "error", err)
		metrics.DroppedEnvelopes.Inc()
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	metrics.Events.WithLabelValues(env.Event).Inc()

	switch env.Event {
	case domain.EventRoomList:
		h.handleList(conn)
	case domain.EventRoomCreate:
		h.handleCreate(conn, env.Data)
	case domain.EventRoomJoin:
		h.handleJoin(conn, env.Data)
	case domain.EventRoomLeave:
		h.handleLeave(conn, env.Data)
	case domain.EventRoomSetBandwidth:
		h.handleSetBandwidth(conn, env.Data)
	case domain.EventOffer, domain.EventAnswer, domain.EventICECandidate:
		h.relay(conn, env, data)
	default:
		slog.Warn("unknown event", "clientId", conn.ID(), "event", env.Event)
		metrics.DroppedEnvelopes.Inc()
	}
}

// Disconnect tears the connection down: it leaves the registry and every
// room that held it, emptied rooms are deleted, and the survivors (plus the
// directory, if it changed) are rebroadcast.
func (h *Handler) Disconnect(conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	updates, deleted := h.hub.Disconnect(conn)
	for _, u := range updates {
		h.broadcastUpdate(u)
	}
	if deleted {
		h.broadcastRoomList()
	}
}

func (h *Handler) handleList(conn domain.Connection) {
	h.send(conn, domain.EventRoomList, domain.RoomListData{Rooms: h.hub.Rooms()})
}

func (h *Handler) handleCreate(conn domain.Connection, data json.RawMessage) {
	var req domain.CreateData
	if !h.decode(conn, data, &req) {
		return
	}
	h.hub.CreateRoom(req.Name)
	h.broadcastRoomList()
}

func (h *Handler) handleJoin(conn domain.Connection, data json.RawMessage) {
	var req domain.JoinData
	if !h.decode(conn, data, &req) {
		return
	}
	update, err := h.hub.JoinRoom(req.ID, req.Name, conn)
	if err != nil {
		h.sendError(conn, domain.EventRoomJoin, req.ID, err)
		return
	}
	h.send(conn, domain.EventRoomJoined, domain.JoinedData{ID: req.ID})
	h.broadcastUpdate(update)
}

func (h *Handler) handleLeave(conn domain.Connection, data json.RawMessage) {
	var req domain.RoomRef
	if !h.decode(conn, data, &req) {
		return
	}
	update, deleted, err := h.hub.LeaveRoom(req.ID, conn)
	if err != nil {
		h.sendError(conn, domain.EventRoomLeave, req.ID, err)
		return
	}
	if update != nil {
		h.broadcastUpdate(*update)
	}
	if deleted {
		h.broadcastRoomList()
	}
}

func (h *Handler) handleSetBandwidth(conn domain.Connection, data json.RawMessage) {
	var req domain.BandwidthData
	if !h.decode(conn, data, &req) {
		return
	}
	update, err := h.hub.SetBandwidth(req.ID, req.Bandwidth)
	if err != nil {
		h.sendError(conn, domain.EventRoomSetBandwidth, req.ID, err)
		return
	}
	h.broadcastUpdate(update)
}

// relay forwards the sender's envelope bytes unmodified to every other
// member of the room. The sdp/candidate contents are never inspected.
func (h *Handler) relay(conn domain.Connection, env domain.Envelope, raw []byte) {
	var ref domain.RoomRef
	if !h.decode(conn, env.Data, &ref) {
		return
	}
	members, err := h.hub.RoomMembers(ref.ID)
	if err != nil {
		h.sendError(conn, env.Event, ref.ID, err)
		return
	}
	for _, m := range members {
		if m.ID() == conn.ID() {
			continue
		}
		h.deliver(m, raw)
	}
}

// decode unpacks an event payload; a malformed payload is dropped under the
// same policy as a malformed envelope.
func (h *Handler) decode(conn domain.Connection, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("invalid payload", "clientId", conn.ID(), "error", err)
		metrics.DroppedEnvelopes.Inc()
		return false
	}
	return true
}

func (h *Handler) broadcastRoomList() {
	payload := domain.RoomListData{Rooms: h.hub.Rooms()}
	for _, conn := range h.hub.Connections() {
		h.send(conn, domain.EventRoomList, payload)
	}
}

func (h *Handler) broadcastUpdate(u hub.RoomUpdate) {
	payload := domain.UpdateData{ID: u.ID, Parties: u.Parties, Bandwidth: u.Bandwidth}
	for _, conn := range u.Members {
		h.send(conn, domain.EventRoomUpdate, payload)
	}
}

func (h *Handler) sendError(conn domain.Connection, event, roomID string, err error) {
	slog.Warn("request rejected", "clientId", conn.ID(), "event", event, "roomId", roomID, "error", err)
	h.send(conn, domain.EventError, domain.ErrorData{Error: err.Error()})
}

func (h *Handler) send(conn domain.Connection, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "event", event, "error", err)
		return
	}
	raw, err := json.Marshal(domain.Envelope{Event: event, Data: data})
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "event", event, "error", err)
		return
	}
	h.deliver(conn, raw)
}

// deliver is fire-and-forget: a broken or saturated recipient is logged and
// skipped so it never stalls the rest of a fan-out.
func (h *Handler) deliver(conn domain.Connection, data []byte) {
	if err := conn.Send(data); err != nil {
		slog.Debug("send failed", "clientId", conn.ID(), "error", err)
	}
}

package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"webrtc-signaling-server/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 64 KB leaves room for large SDP payloads.
	maxMessageSize = 64 * 1024
)

// Conn adapts a gorilla websocket connection to domain.Connection. Room
// membership is not fixed at upgrade time; the handler owns the lifecycle
// from Connect through Disconnect.
type Conn struct {
	id      string
	ws      *websocket.Conn
	send    chan []byte
	handler domain.MessageHandler
}

func NewConn(id string, ws *websocket.Conn, h domain.MessageHandler) *Conn {
	return &Conn{
		id:      id,
		ws:      ws,
		send:    make(chan []byte, 256),
		handler: h,
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues a frame without blocking. A full buffer means the peer has
// stopped draining; the frame is dropped and the read side will eventually
// tear the connection down.
func (c *Conn) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return websocket.ErrCloseSent
	}
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) Start() {
	c.handler.Connect(c)
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.handler.Disconnect(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}

		c.handler.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

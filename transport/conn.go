package transport

import (
	"buddy-chat/contract"
	"buddy-chat/domain"
	"buddy-chat/errors"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameLength = 64 * 1024
)

var _ contract.NotificationSink = (*Conn)(nil)

// Conn is the notification sink of one websocket.
// Consume only queues: a dedicated write pump owns every write to the socket.
type Conn struct {
	id        domain.ConnectionID
	ws        *websocket.Conn
	log       *slog.Logger
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewConn(id domain.ConnectionID, ws *websocket.Conn, sendBuffer int, log *slog.Logger) *Conn {
	return &Conn{
		id:   id,
		ws:   ws,
		log:  log.With("conn_id", id),
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Conn) Consume(ctx context.Context, n domain.Notification) error {
	frame, err := Encode(n)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	case c.send <- frame:
		return nil
	default:
		return errors.ErrBackpressure
	}
}

// WritePump writes queued frames and pings until the connection is closed.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.ws.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

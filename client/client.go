// Package client is a websocket client for the chat protocol, used by the tester and in tests.
package client

import (
	"buddy-chat/transport"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Event is an outbound server frame, decoded.
type Event struct {
	Kind    string
	Buddy   *string
	Name    string
	Payload string
	Count   int
}

type Client struct {
	ws     *websocket.Conn
	log    *slog.Logger
	events chan Event
	mu     sync.Mutex
	done   chan struct{}
}

// Dial opens a websocket and starts reading server frames.
// Events is closed once the connection is gone.
func Dial(ctx context.Context, url string, log *slog.Logger, buffer int) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		ws:     ws,
		log:    log,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) Init(name string) error {
	return c.send(transport.EventInit, transport.InitData{Name: name})
}

func (c *Client) Type(payload string) error {
	return c.send(transport.EventChatAdd, transport.ChatAddData{Payload: payload})
}

func (c *Client) Delete(count int) error {
	return c.send(transport.EventChatDelete, transport.ChatDeleteData{Count: count})
}

// Close sends a close frame and waits for the read loop to end.
func (c *Client) Close() error {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.mu.Unlock()
	select {
	case <-c.done:
	case <-time.After(writeWait):
	}
	return c.ws.Close()
}

func (c *Client) send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(transport.Frame{Event: event, Data: raw})
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.events)
	for {
		var frame transport.Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.log.Debug("Client read stopped", "error", err)
			}
			return
		}
		evt, err := decode(frame)
		if err != nil {
			c.log.Warn("Unexpected frame", "event", frame.Event, "error", err)
			continue
		}
		c.events <- evt
	}
}

func decode(frame transport.Frame) (Event, error) {
	evt := Event{Kind: frame.Event}
	var err error
	switch frame.Event {
	case transport.EventRegistered:
		var data transport.RegisteredData
		err = json.Unmarshal(frame.Data, &data)
		evt.Buddy = data.Buddy
	case transport.EventBuddyAssigned:
		var data transport.BuddyAssignedData
		err = json.Unmarshal(frame.Data, &data)
		evt.Name = data.Name
	case transport.EventBuddyLeft:
	case transport.EventChatAdd:
		var data transport.ChatAddData
		err = json.Unmarshal(frame.Data, &data)
		evt.Payload = data.Payload
	case transport.EventChatDelete:
		var data transport.ChatDeleteData
		err = json.Unmarshal(frame.Data, &data)
		evt.Count = data.Count
	default:
		err = fmt.Errorf("unknown event %q", frame.Event)
	}
	return evt, err
}

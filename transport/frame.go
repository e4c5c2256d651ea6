// Package transport carries the chat protocol over websocket connections.
package transport

import (
	"buddy-chat/domain"
	"buddy-chat/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	EventInit          = "init"
	EventChatAdd       = "chat-add"
	EventChatDelete    = "chat-delete"
	EventRegistered    = "registered"
	EventBuddyAssigned = "buddy-assigned"
	EventBuddyLeft     = "buddy-left"

	MaxDeleteCount = 4096
)

// Frame is the envelope of every websocket text message, in both directions.
type Frame struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type InitData struct {
	Name string `json:"name"`
}

type ChatAddData struct {
	Payload string `json:"payload" validate:"required"`
}

type ChatDeleteData struct {
	Count int `json:"count" validate:"min=0,max=4096"`
}

type RegisteredData struct {
	Buddy *string `json:"buddy"`
}

type BuddyAssignedData struct {
	Name string `json:"name"`
}

type BuddyLeftData struct{}

// Codec validates inbound frames and encodes outbound notifications.
type Codec struct {
	validate      *validator.Validate
	maxNameLength int
}

func NewCodec(maxNameLength int) *Codec {
	return &Codec{validate: validator.New(), maxNameLength: maxNameLength}
}

func (c *Codec) DecodeFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %w", errors.ErrInvalidFrame, err)
	}
	if err := c.validate.Struct(frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %w", errors.ErrInvalidFrame, err)
	}
	return frame, nil
}

// DecodeInit returns the participant name carried by an init frame.
// Names are counted in runes.
func (c *Codec) DecodeInit(frame Frame) (string, error) {
	var data InitData
	if err := c.decodeData(frame, &data); err != nil {
		return "", err
	}
	if err := c.validate.Var(data.Name, fmt.Sprintf("required,max=%d", c.maxNameLength)); err != nil {
		return "", fmt.Errorf("%w: name: %w", errors.ErrInvalidFrame, err)
	}
	return data.Name, nil
}

// DecodeCommand maps a chat frame to the command it stands for.
func (c *Codec) DecodeCommand(conn domain.ConnectionID, frame Frame) (domain.Command, error) {
	switch frame.Event {
	case EventChatAdd:
		var data ChatAddData
		if err := c.decodeData(frame, &data); err != nil {
			return nil, err
		}
		return domain.ChatAddCommand{Conn: conn, Payload: data.Payload}, nil
	case EventChatDelete:
		var data ChatDeleteData
		if len(frame.Data) > 0 {
			if err := c.decodeData(frame, &data); err != nil {
				return nil, err
			}
		}
		return domain.ChatDeleteCommand{Conn: conn, Count: max(data.Count, 1)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, frame.Event)
	}
}

func (c *Codec) decodeData(frame Frame, v any) error {
	if len(frame.Data) == 0 {
		return fmt.Errorf("%w: %s without data", errors.ErrInvalidFrame, frame.Event)
	}
	if err := json.Unmarshal(frame.Data, v); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidFrame, err)
	}
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidFrame, err)
	}
	return nil
}

// Encode renders a notification as the frame its recipient receives.
func Encode(n domain.Notification) ([]byte, error) {
	var event string
	var data any
	switch n.Kind {
	case domain.Registered:
		event = EventRegistered
		// A waiting participant has no buddy yet: null rather than ""
		data = RegisteredData{Buddy: lo.EmptyableToPtr(n.Name)}
	case domain.BuddyAssigned:
		event, data = EventBuddyAssigned, BuddyAssignedData{Name: n.Name}
	case domain.BuddyLeft:
		event, data = EventBuddyLeft, BuddyLeftData{}
	case domain.ChatAdd:
		event, data = EventChatAdd, ChatAddData{Payload: n.Payload}
	case domain.ChatDelete:
		event, data = EventChatDelete, ChatDeleteData{Count: n.Count}
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, n.Kind)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

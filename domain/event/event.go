package event

import (
	"time"
)

type Type string

// Event is the envelope carried on the telemetry and journal channels.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

func New(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}

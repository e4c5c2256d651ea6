// Package domain contains core concepts of the buddy chat.
// This file defines Participant entities and their pairing state.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// ConnectionID identifies one live transport connection.
// It is opaque to the session registry: only the transport creates it.
type ConnectionID string

func (c ConnectionID) String() string { return string(c) }

// Participant is a connection that registered a display name.
// The name never changes after registration.
type Participant struct {
	ID       ConnectionID
	Name     string
	JoinedAt time.Time
}

type State int

const (
	StateAbsent State = iota
	StateWaiting
	StatePaired
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StatePaired:
		return "paired"
	default:
		return "absent"
	}
}

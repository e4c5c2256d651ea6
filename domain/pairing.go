package domain

import (
	"time"

	"github.com/google/uuid"
)

type PairingID = uuid.UUID

// Pairing is the chat session shared by exactly two participants.
// Both members point at the same value, so the relation is symmetric by construction.
type Pairing struct {
	ID       PairingID
	Members  [2]ConnectionID
	FormedAt time.Time
}

func NewPairing(a, b ConnectionID, at time.Time) *Pairing {
	return &Pairing{
		ID:       uuid.New(),
		Members:  [2]ConnectionID{a, b},
		FormedAt: at,
	}
}

// Partner returns the other member of the pairing.
// ok is false when id is not a member.
func (p *Pairing) Partner(id ConnectionID) (ConnectionID, bool) {
	switch id {
	case p.Members[0]:
		return p.Members[1], true
	case p.Members[1]:
		return p.Members[0], true
	default:
		return "", false
	}
}

func (p *Pairing) Has(id ConnectionID) bool {
	_, ok := p.Partner(id)
	return ok
}

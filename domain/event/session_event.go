package event

import (
	"buddy-chat/domain"
	"time"
)

const (
	ParticipantJoinedType Type = "PARTICIPANT_JOINED"
	ParticipantLeftType   Type = "PARTICIPANT_LEFT"
	PairFormedType        Type = "PAIR_FORMED"
	PairEndedType         Type = "PAIR_ENDED"
	RelayDroppedType      Type = "RELAY_DROPPED"
)

type ParticipantJoined struct {
	ID   domain.ConnectionID
	Name string
}

type ParticipantLeft struct {
	ID    domain.ConnectionID
	Name  string
	State domain.State
}

type PairFormed struct {
	PairingID domain.PairingID
	Members   [2]domain.ConnectionID
	Names     [2]string
	FormedAt  time.Time
}

type PairEnded struct {
	PairingID domain.PairingID
	FormedAt  time.Time
	EndedAt   time.Time
	// LeftBy is the member whose disconnect ended the pairing.
	LeftBy domain.ConnectionID
}

// RelayDropped reports a chat-add or chat-delete sent by a participant without a buddy.
type RelayDropped struct {
	From domain.ConnectionID
	Kind domain.NotificationKind
}

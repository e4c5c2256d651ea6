// Package session holds the pairing and relay state machine.
// A Registry tracks connected participants, keeps at most one of them waiting,
// pairs newcomers with the waiting participant and relays typing between buddies.
// It performs no I/O: every operation returns the notifications the caller must deliver.
package session

import (
	"buddy-chat/domain"
	"buddy-chat/domain/event"
	"buddy-chat/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Registry struct {
	mu           sync.RWMutex
	log          *slog.Logger
	now          func() time.Time
	participants map[domain.ConnectionID]domain.Participant
	// Both members of a pairing map to the same *Pairing.
	// link and unlink are the only functions allowed to write this map.
	pairings map[domain.ConnectionID]*domain.Pairing
	waiting  domain.ConnectionID
	outbox   []event.Event
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
		participants: make(map[domain.ConnectionID]domain.Participant),
		pairings:     make(map[domain.ConnectionID]*domain.Pairing),
	}
}

// Register stores the participant name and tries to pair it with the waiting participant.
// When a buddy is found, its name is returned and the buddy is notified with buddy-assigned.
// Otherwise the participant takes the waiting slot.
// Names are accepted verbatim; no uniqueness check is done.
func (r *Registry) Register(id domain.ConnectionID, name string) (domain.Registration, []domain.Notification, error) {
	if id == "" {
		return domain.Registration{}, nil, errors.ErrEmptyConnectionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[id]; ok {
		return domain.Registration{}, nil, fmt.Errorf("%w: %s", errors.ErrAlreadyRegistered, id)
	}
	r.participants[id] = domain.Participant{ID: id, Name: name, JoinedAt: r.now()}
	r.record(event.ParticipantJoinedType, event.ParticipantJoined{ID: id, Name: name})

	partner, notifications, ok := r.tryPair(id)
	r.logStateLocked()
	if !ok {
		return domain.Registration{}, notifications, nil
	}
	return domain.Registration{
		PartnerName: r.participants[partner].Name,
		Paired:      true,
	}, notifications, nil
}

// tryPair pairs id with the waiting participant, or makes id the waiting one.
// The waiting participant is told about its new buddy through the returned notification,
// id itself is not notified: the caller decides how it learns about its partner.
func (r *Registry) tryPair(id domain.ConnectionID) (domain.ConnectionID, []domain.Notification, bool) {
	name := r.participants[id].Name
	if r.waiting == "" {
		r.waiting = id
		r.log.Debug(fmt.Sprintf("No other participant for %s to chat with yet", name), "conn_id", id)
		return "", nil, false
	}

	partner := r.waiting
	r.waiting = ""
	r.link(partner, id)
	r.log.Debug(fmt.Sprintf("%s can chat with %s", name, r.participants[partner].Name),
		"conn_id", id, "partner_id", partner)

	return partner, []domain.Notification{domain.NewBuddyAssigned(partner, name)}, true
}

// RelayAdd forwards typed content to the sender's buddy, unchanged.
// Content coming from a participant without a buddy is dropped.
func (r *Registry) RelayAdd(id domain.ConnectionID, payload string) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	partner, ok := r.partnerLocked(id)
	if !ok {
		r.dropLocked(id, domain.ChatAdd)
		return nil
	}
	return []domain.Notification{domain.NewChatAdd(partner, payload)}
}

// RelayDelete forwards a deletion of count characters to the sender's buddy.
// A count lower than one stands for the single character deletion of the
// count-less protocol and is sent as 1.
func (r *Registry) RelayDelete(id domain.ConnectionID, count int) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	partner, ok := r.partnerLocked(id)
	if !ok {
		r.dropLocked(id, domain.ChatDelete)
		return nil
	}
	if count < 1 {
		count = 1
	}
	return []domain.Notification{domain.NewChatDelete(partner, count)}
}

// Disconnect removes every trace of the participant.
// A waiting participant simply frees the waiting slot. A paired participant's
// buddy receives buddy-left and is immediately offered to the next waiting
// participant; if that works it also receives buddy-assigned with its new buddy's name.
// Unknown or already disconnected identifiers are ignored.
func (r *Registry) Disconnect(id domain.ConnectionID) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	participant, ok := r.participants[id]
	if !ok {
		return nil
	}
	state := r.stateLocked(id)

	var notifications []domain.Notification
	switch state {
	case domain.StateWaiting:
		r.log.Debug(fmt.Sprintf("%s (waiting) disconnected", participant.Name), "conn_id", id)
		r.waiting = ""
	case domain.StatePaired:
		r.log.Debug(fmt.Sprintf("%s (chatting) disconnected", participant.Name), "conn_id", id)
		pairing := r.pairings[id]
		buddy, _ := pairing.Partner(id)

		// The pairing must be gone before the buddy can be offered to someone else.
		r.unlink(pairing, id)
		notifications = append(notifications, domain.NewBuddyLeft(buddy))

		if newBuddy, assigned, paired := r.tryPair(buddy); paired {
			notifications = append(notifications, assigned...)
			notifications = append(notifications, domain.NewBuddyAssigned(buddy, r.participants[newBuddy].Name))
		}
	}

	delete(r.participants, id)
	r.record(event.ParticipantLeftType, event.ParticipantLeft{ID: id, Name: participant.Name, State: state})
	r.logStateLocked()
	return notifications
}

func (r *Registry) link(a, b domain.ConnectionID) *domain.Pairing {
	pairing := domain.NewPairing(a, b, r.now())
	r.pairings[a] = pairing
	r.pairings[b] = pairing
	r.record(event.PairFormedType, event.PairFormed{
		PairingID: pairing.ID,
		Members:   pairing.Members,
		Names:     [2]string{r.participants[a].Name, r.participants[b].Name},
		FormedAt:  pairing.FormedAt,
	})
	return pairing
}

func (r *Registry) unlink(pairing *domain.Pairing, leftBy domain.ConnectionID) {
	delete(r.pairings, pairing.Members[0])
	delete(r.pairings, pairing.Members[1])
	r.record(event.PairEndedType, event.PairEnded{
		PairingID: pairing.ID,
		FormedAt:  pairing.FormedAt,
		EndedAt:   r.now(),
		LeftBy:    leftBy,
	})
}

func (r *Registry) partnerLocked(id domain.ConnectionID) (domain.ConnectionID, bool) {
	pairing, ok := r.pairings[id]
	if !ok {
		return "", false
	}
	return pairing.Partner(id)
}

func (r *Registry) stateLocked(id domain.ConnectionID) domain.State {
	if _, ok := r.participants[id]; !ok {
		return domain.StateAbsent
	}
	if r.waiting == id {
		return domain.StateWaiting
	}
	if _, ok := r.pairings[id]; ok {
		return domain.StatePaired
	}
	return domain.StateAbsent
}

func (r *Registry) dropLocked(id domain.ConnectionID, kind domain.NotificationKind) {
	r.log.Warn("Got chat input from a participant without buddy", "conn_id", id, "kind", kind)
	r.record(event.RelayDroppedType, event.RelayDropped{From: id, Kind: kind})
}

func (r *Registry) record(t event.Type, payload any) {
	r.outbox = append(r.outbox, event.Event{Type: t, CreatedAt: r.now(), Payload: payload})
}

// FlushEvents returns the lifecycle events recorded since the previous call.
func (r *Registry) FlushEvents() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.outbox
	r.outbox = nil
	return events
}

package session

import (
	"buddy-chat/domain"
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"
)

type ParticipantView struct {
	ID       domain.ConnectionID `json:"id"`
	Name     string              `json:"name"`
	JoinedAt time.Time           `json:"joined_at"`
}

type PairView struct {
	ID      string             `json:"id"`
	Members [2]ParticipantView `json:"members"`
	Since   time.Time          `json:"since"`
}

// Snapshot is a point in time copy of the registry, safe to serialize.
type Snapshot struct {
	Participants int              `json:"participants"`
	Pairs        []PairView       `json:"pairs"`
	Waiting      *ParticipantView `json:"waiting,omitempty"`
}

type Stats struct {
	Participants int
	Pairs        int
	Waiting      int
}

func (r *Registry) StateOf(id domain.ConnectionID) domain.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stateLocked(id)
}

func (r *Registry) PartnerOf(id domain.ConnectionID) (domain.ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.partnerLocked(id)
}

func (r *Registry) Waiting() (domain.ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting, r.waiting != ""
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statsLocked()
}

func (r *Registry) statsLocked() Stats {
	waiting := 0
	if r.waiting != "" {
		waiting = 1
	}
	return Stats{
		Participants: len(r.participants),
		Pairs:        len(r.pairings) / 2,
		Waiting:      waiting,
	}
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// snapshotLocked lists every pairing once even though the map holds it under both members.
func (r *Registry) snapshotLocked() Snapshot {
	unique := lo.UniqBy(lo.Values(r.pairings), func(p *domain.Pairing) domain.PairingID {
		return p.ID
	})
	slices.SortFunc(unique, func(a, b *domain.Pairing) int {
		return cmp.Compare(a.FormedAt.UnixNano(), b.FormedAt.UnixNano())
	})

	snapshot := Snapshot{
		Participants: len(r.participants),
		Pairs: lo.Map(unique, func(p *domain.Pairing, _ int) PairView {
			return PairView{
				ID:      p.ID.String(),
				Members: [2]ParticipantView{r.viewLocked(p.Members[0]), r.viewLocked(p.Members[1])},
				Since:   p.FormedAt,
			}
		}),
	}
	if r.waiting != "" {
		snapshot.Waiting = lo.ToPtr(r.viewLocked(r.waiting))
	}
	return snapshot
}

func (r *Registry) viewLocked(id domain.ConnectionID) ParticipantView {
	p := r.participants[id]
	return ParticipantView{ID: p.ID, Name: p.Name, JoinedAt: p.JoinedAt}
}

func (r *Registry) logStateLocked() {
	if !r.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	snapshot := r.snapshotLocked()
	waiting := "none"
	if snapshot.Waiting != nil {
		waiting = snapshot.Waiting.Name
	}
	chats := lo.Map(snapshot.Pairs, func(p PairView, _ int) [2]string {
		return [2]string{p.Members[0].Name, p.Members[1].Name}
	})
	r.log.Debug("session state",
		"participants", snapshot.Participants,
		"chats", chats,
		"waiting", waiting)
}

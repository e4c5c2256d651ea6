// Package broadcast publishes pairing lifecycle events to NATS for other services.
// Chat content never leaves the process.
package broadcast

import (
	"buddy-chat/domain/event"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const headerEventType = "Event-Type"

// MsgPublisher is the part of *nats.Conn the publisher needs.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

type Config struct {
	URL           string
	Name          string
	SubjectPrefix string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// Connect opens a NATS connection that keeps reconnecting in the background.
func Connect(cfg Config) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	return nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	)
}

var _ event.Handler = (*Publisher)(nil)

// Publisher is a telemetry handler. Each lifecycle event goes to
// "<prefix>.<event type in lower case>", e.g. buddy.pair_formed.
type Publisher struct {
	log           *slog.Logger
	conn          MsgPublisher
	subjectPrefix string
}

func NewPublisher(log *slog.Logger, conn MsgPublisher, subjectPrefix string) *Publisher {
	if subjectPrefix == "" {
		subjectPrefix = "buddy"
	}
	return &Publisher{log: log, conn: conn, subjectPrefix: subjectPrefix}
}

type participantMessage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	At   string `json:"at"`
}

type pairMessage struct {
	PairingID string    `json:"pairing_id"`
	Members   [2]string `json:"members,omitzero"`
	Names     [2]string `json:"names,omitzero"`
	FormedAt  time.Time `json:"formed_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
	LeftBy    string    `json:"left_by,omitempty"`
}

func (p *Publisher) Handle(e event.Event) {
	var body any
	switch payload := e.Payload.(type) {
	case event.ParticipantJoined:
		body = participantMessage{ID: payload.ID.String(), Name: payload.Name, At: e.CreatedAt.Format(time.RFC3339Nano)}
	case event.ParticipantLeft:
		body = participantMessage{ID: payload.ID.String(), Name: payload.Name, At: e.CreatedAt.Format(time.RFC3339Nano)}
	case event.PairFormed:
		body = pairMessage{
			PairingID: payload.PairingID.String(),
			Members:   [2]string{payload.Members[0].String(), payload.Members[1].String()},
			Names:     payload.Names,
			FormedAt:  payload.FormedAt,
		}
	case event.PairEnded:
		body = pairMessage{
			PairingID: payload.PairingID.String(),
			FormedAt:  payload.FormedAt,
			EndedAt:   payload.EndedAt,
			LeftBy:    payload.LeftBy.String(),
		}
	default:
		return
	}

	data, err := json.Marshal(body)
	if err != nil {
		p.log.Error("Encoding lifecycle event failed", "type", e.Type, "error", err)
		return
	}
	msg := nats.NewMsg(p.Subject(e.Type))
	msg.Data = data
	msg.Header.Set(headerEventType, string(e.Type))
	if err = p.conn.PublishMsg(msg); err != nil {
		p.log.Warn("Publish failed", "subject", msg.Subject, "error", err)
	}
}

func (p *Publisher) Subject(t event.Type) string {
	return p.subjectPrefix + "." + strings.ToLower(string(t))
}

package workers

import (
	"buddy-chat/contract"
	"buddy-chat/domain"
	"buddy-chat/domain/event"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Ensure *SessionWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*SessionWorker)(nil)

// Envelope is a notification waiting for delivery.
type Envelope struct {
	Notification domain.Notification
	QueuedAt     time.Time
}

// SessionWorker is the only goroutine allowed to mutate the session registry.
// Commands are applied one at a time, in arrival order, and the resulting
// notifications are queued for delivery in the same order.
// Only one SessionWorker must consume a given command channel.
type SessionWorker struct {
	sessions        contract.ISessionRegistry
	commands        chan domain.Command
	notifications   chan Envelope
	telemetryEvents chan event.Event
	journalEvents   chan event.Event
	log             *slog.Logger
}

func NewSessionWorker(
	sessions contract.ISessionRegistry,
	commands chan domain.Command,
	notifications chan Envelope,
	telemetryEvents, journalEvents chan event.Event,
	log *slog.Logger) *SessionWorker {
	return &SessionWorker{
		sessions:        sessions,
		commands:        commands,
		notifications:   notifications,
		telemetryEvents: telemetryEvents,
		journalEvents:   journalEvents,
		log:             log,
	}
}

func (w *SessionWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			if err := w.Handle(ctx, cmd); err != nil {
				return err
			}
		}
	}
}

// Handle applies one command to the registry and queues what it produced.
// It only fails when ctx is done before the notifications could be queued.
func (w *SessionWorker) Handle(ctx context.Context, cmd domain.Command) error {
	var notifications []domain.Notification
	var reply func()

	switch c := cmd.(type) {
	case domain.RegisterCommand:
		registration, assigned, err := w.sessions.Register(c.Conn, c.Name)
		if err != nil {
			w.log.Warn("Registration refused", "conn_id", c.Conn, "error", err)
		} else {
			notifications = append(assigned, domain.NewRegistered(c.Conn, registration.PartnerName))
		}
		reply = func() { w.reply(c, domain.RegisterReply{Registration: registration, Err: err}) }
	case domain.ChatAddCommand:
		notifications = w.sessions.RelayAdd(c.Conn, c.Payload)
	case domain.ChatDeleteCommand:
		notifications = w.sessions.RelayDelete(c.Conn, c.Count)
	case domain.DisconnectCommand:
		notifications = w.sessions.Disconnect(c.Conn)
	default:
		w.log.Warn("Unknown command", "conn_id", cmd.ConnectionID(), "type", fmt.Sprintf("%T", cmd))
	}

	w.flushEvents()

	now := time.Now().UTC()
	for _, n := range notifications {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case w.notifications <- Envelope{Notification: n, QueuedAt: now}:
		}
	}

	if reply != nil {
		reply()
	}
	return nil
}

func (w *SessionWorker) reply(c domain.RegisterCommand, r domain.RegisterReply) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- r:
	default:
		w.log.Warn("Registration reply dropped", "conn_id", c.Conn)
	}
}

// flushEvents forwards lifecycle events. Losing one is acceptable:
// neither telemetry nor the journal takes part in pairing decisions.
func (w *SessionWorker) flushEvents() {
	for _, evt := range w.sessions.FlushEvents() {
		forward(w.log, w.telemetryEvents, evt, "telemetry")
		switch evt.Type {
		case event.PairFormedType, event.PairEndedType:
			forward(w.log, w.journalEvents, evt, "journal")
		}
	}
}

func forward(log *slog.Logger, ch chan event.Event, evt event.Event, name string) {
	if ch == nil {
		return
	}
	select {
	case ch <- evt:
	default:
		log.Debug("Event lost, channel full", "channel", name, "type", evt.Type)
	}
}

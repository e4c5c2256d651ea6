// Package runtime wires connections, the session registry and the workers together.
// It orchestrates the system without containing pairing rules.
package runtime

import (
	"buddy-chat/contract"
	"buddy-chat/domain"
	"buddy-chat/domain/event"
	"buddy-chat/errors"
	"buddy-chat/runtime/workers"
	"buddy-chat/session"
	"context"
	"log/slog"
	"sync"
	"time"
)

var _ contract.IOrchestrator = (*Orchestrator)(nil)

type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	supervisor      contract.ISupervisor
	sessions        contract.ISessionRegistry
	connections     contract.IConnections
	journal         contract.IPairingJournal
	handlers        []event.Handler
	commands        chan domain.Command
	notifications   chan workers.Envelope
	telemetryEvents chan event.Event
	journalEvents   chan event.Event
	sinkTimeout     time.Duration
	metricInterval  time.Duration
	done            chan struct{}
	stopOnce        sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor,
	sessions *session.Registry, connections *Connections,
	bufferSize int, sinkTimeout, metricInterval time.Duration) *Orchestrator {
	telemetryEvents := make(chan event.Event, bufferSize)
	return &Orchestrator{
		log:             log,
		supervisor:      supervisor.WithTelemetry(telemetryEvents),
		sessions:        sessions,
		connections:     connections,
		commands:        make(chan domain.Command, bufferSize),
		notifications:   make(chan workers.Envelope, bufferSize),
		telemetryEvents: telemetryEvents,
		journalEvents:   make(chan event.Event, bufferSize),
		sinkTimeout:     sinkTimeout,
		metricInterval:  metricInterval,
		done:            make(chan struct{}),
	}
}

// Add registers telemetry handlers. It must be called before Start.
func (o *Orchestrator) Add(handlers ...event.Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers = append(o.handlers, handlers...)
}

// WithJournal makes the orchestrator persist pairing lifecycle events.
func (o *Orchestrator) WithJournal(journal contract.IPairingJournal) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.journal = journal
	return o
}

// Connect makes a connection reachable by notifications.
// It must be called before the first command of that connection is dispatched.
func (o *Orchestrator) Connect(id domain.ConnectionID, sink contract.NotificationSink) {
	o.connections.Subscribe(id, sink)
}

// Register queues a registration and waits for the session worker to apply it.
func (o *Orchestrator) Register(ctx context.Context, id domain.ConnectionID, name string) (domain.Registration, error) {
	reply := make(chan domain.RegisterReply, 1)
	if err := o.Dispatch(ctx, domain.RegisterCommand{Conn: id, Name: name, Reply: reply}); err != nil {
		return domain.Registration{}, err
	}
	select {
	case r := <-reply:
		return r.Registration, r.Err
	case <-ctx.Done():
		return domain.Registration{}, ctx.Err()
	case <-o.done:
		return domain.Registration{}, errors.ErrOrchestratorStopped
	}
}

// Dispatch queues a command for the session worker.
// It blocks while the command queue is full: commands are never dropped.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd domain.Command) error {
	select {
	case <-o.done:
		return errors.ErrOrchestratorStopped
	default:
	}
	select {
	case o.commands <- cmd:
		return nil
	case <-ctx.Done():
		o.log.Warn("Command not queued", "conn_id", cmd.ConnectionID(), "error", ctx.Err())
		return ctx.Err()
	case <-o.done:
		return errors.ErrOrchestratorStopped
	}
}

// Disconnect stops delivering to the connection and lets the registry repair its pairing.
func (o *Orchestrator) Disconnect(ctx context.Context, id domain.ConnectionID) error {
	o.connections.Unsubscribe(id)
	return o.Dispatch(ctx, domain.DisconnectCommand{Conn: id})
}

func (o *Orchestrator) Snapshot() session.Snapshot {
	return o.sessions.Snapshot()
}

func (o *Orchestrator) Stats() session.Stats {
	return o.sessions.Stats()
}

// Start registers the workers to the supervisor and runs them in the background.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.journal == nil {
		o.journalEvents = nil
	}
	o.supervisor.Add(
		workers.NewSessionWorker(o.sessions, o.commands, o.notifications, o.telemetryEvents, o.journalEvents, o.log),
		workers.NewDeliveryWorker(o.log, o.connections, o.notifications, o.telemetryEvents, o.sinkTimeout),
		workers.NewTelemetryWorker(o.log, o.telemetryEvents, o.handlers),
	)
	if o.metricInterval > 0 {
		o.supervisor.Add(workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
			{Name: "commands", Channel: o.commands},
			{Name: "notifications", Channel: o.notifications},
			{Name: "telemetry", Channel: o.telemetryEvents},
			{Name: "journal", Channel: o.journalEvents},
		}, o.telemetryEvents, o.metricInterval))
	}
	if o.journal != nil {
		o.supervisor.Add(workers.NewJournalWorker(o.log, o.journal, o.journalEvents))
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised workers. Pending and later calls fail with ErrOrchestratorStopped.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.log.Info("Requesting orchestrator shutdown")
		close(o.done)
		o.supervisor.Stop()
	})
}

//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"buddy-chat/domain"
	"buddy-chat/domain/event"
	"buddy-chat/session"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// NotificationSink receives the notifications addressed to one connection.
// Consume must not block longer than ctx allows.
type NotificationSink interface {
	Consume(ctx context.Context, n domain.Notification) error
}

type IConnections interface {
	Subscribe(id domain.ConnectionID, sink NotificationSink)
	Unsubscribe(id domain.ConnectionID)
	SinkFor(id domain.ConnectionID) (NotificationSink, bool)
}

// ISessionRegistry is the pairing state machine as seen by the session worker.
type ISessionRegistry interface {
	Register(id domain.ConnectionID, name string) (domain.Registration, []domain.Notification, error)
	RelayAdd(id domain.ConnectionID, payload string) []domain.Notification
	RelayDelete(id domain.ConnectionID, count int) []domain.Notification
	Disconnect(id domain.ConnectionID) []domain.Notification
	FlushEvents() []event.Event
	Snapshot() session.Snapshot
	Stats() session.Stats
}

type IPairingJournal interface {
	RecordFormed(e event.PairFormed) error
	RecordEnded(e event.PairEnded) error
}

type IOrchestrator interface {
	Connect(id domain.ConnectionID, sink NotificationSink)
	Register(ctx context.Context, id domain.ConnectionID, name string) (domain.Registration, error)
	Dispatch(ctx context.Context, cmd domain.Command) error
	Disconnect(ctx context.Context, id domain.ConnectionID) error
	Snapshot() session.Snapshot
	Start(ctx context.Context) error
	Stop()
}

package workers

import (
	"buddy-chat/contract"
	"buddy-chat/domain/event"
	"buddy-chat/errors"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*DeliveryWorker)(nil)

// DeliveryWorker hands every queued notification to the sink of the connection it is addressed to.
//
// It provides best-effort delivery with no retries: a notification for a
// connection that is already gone, or whose sink refuses it, is dropped.
// Ordering is preserved as long as a single DeliveryWorker consumes the channel.
type DeliveryWorker struct {
	log             *slog.Logger
	connections     contract.IConnections
	notifications   chan Envelope
	telemetryEvents chan event.Event
	sinkTimeout     time.Duration
}

func NewDeliveryWorker(log *slog.Logger, connections contract.IConnections,
	notifications chan Envelope, telemetryEvents chan event.Event,
	sinkTimeout time.Duration) *DeliveryWorker {
	return &DeliveryWorker{
		log:             log,
		connections:     connections,
		notifications:   notifications,
		telemetryEvents: telemetryEvents,
		sinkTimeout:     sinkTimeout,
	}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case envelope := <-w.notifications:
			w.Deliver(ctx, envelope)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping notification delivery")
			return nil
		}
	}
}

// Deliver One sink for each notification
func (w *DeliveryWorker) Deliver(ctx context.Context, envelope Envelope) {
	n := envelope.Notification
	err := w.consume(ctx, envelope)
	if err != nil {
		w.log.Debug("Notification not delivered", "conn_id", n.To, "kind", n.Kind, "error", err)
	}
	forward(w.log, w.telemetryEvents, event.New(event.NotificationSentType, event.NotificationSent{
		To:       n.To,
		Kind:     n.Kind,
		QueuedAt: envelope.QueuedAt,
		Err:      err,
	}), "telemetry")
}

func (w *DeliveryWorker) consume(ctx context.Context, envelope Envelope) error {
	sink, ok := w.connections.SinkFor(envelope.Notification.To)
	if !ok {
		return errors.ErrConnectionClosed
	}
	sinkCtx := ctx
	if w.sinkTimeout > 0 {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(ctx, w.sinkTimeout)
		defer cancel()
	}
	return sink.Consume(sinkCtx, envelope.Notification)
}

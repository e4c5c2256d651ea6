package workers

import (
	"buddy-chat/domain/event"
	"context"
	"log/slog"
)

type TelemetryWorker struct {
	log             *slog.Logger
	telemetryEvents chan event.Event
	handlers        []event.Handler
}

func NewTelemetryWorker(log *slog.Logger,
	telemetryEvents chan event.Event,
	handlers []event.Handler) *TelemetryWorker {
	return &TelemetryWorker{
		log:             log,
		telemetryEvents: telemetryEvents,
		handlers:        handlers,
	}
}

func (w TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case evt := <-w.telemetryEvents:
			w.handle(evt)
		}
	}
}

func (w TelemetryWorker) handle(evt event.Event) {
	for _, h := range w.handlers {
		h.Handle(evt)
	}
}

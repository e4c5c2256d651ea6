package workers

import (
	"buddy-chat/domain/event"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type handlerFunc func(event.Event)

func (f handlerFunc) Handle(e event.Event) { f(e) }

func TestTelemetryWorker_Fans_Out_To_Every_Handler(t *testing.T) {
	req := require.New(t)
	telemetry := make(chan event.Event, 10)
	first := make(chan event.Event, 10)
	second := make(chan event.Event, 10)

	worker := NewTelemetryWorker(slog.Default(), telemetry, []event.Handler{
		handlerFunc(func(e event.Event) { first <- e }),
		handlerFunc(func(e event.Event) { second <- e }),
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	evt := event.New(event.RelayDroppedType, event.RelayDropped{From: "ann"})
	telemetry <- evt

	for _, ch := range []chan event.Event{first, second} {
		select {
		case got := <-ch:
			req.Equal(evt, got)
		case <-time.After(time.Second):
			req.FailNow("handler not called")
		}
	}
}

package event

import (
	"buddy-chat/errors"
	"log/slog"
)

// RelayDroppedHandler reports chat input coming from participants with no buddy.
// Such input is harmless: it is dropped, logged and counted.
type RelayDroppedHandler struct {
	log     *slog.Logger
	counter *Counter
}

func NewRelayDroppedHandler(log *slog.Logger, counter *Counter) *RelayDroppedHandler {
	return &RelayDroppedHandler{log: log, counter: counter}
}

func (h *RelayDroppedHandler) Handle(event Event) {
	switch event.Type {
	case RelayDroppedType:
		payload, ok := event.Payload.(RelayDropped)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(RelayDroppedType)
		h.log.Debug("relay dropped",
			"conn_id", payload.From,
			"kind", payload.Kind,
			"total", h.counter.Get(RelayDroppedType))
	}
}

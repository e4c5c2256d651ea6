package event

import (
	"log/slog"
	"time"
)

// LatencyHandler warns when a notification spent too long between the session
// worker and the connection sink.
type LatencyHandler struct {
	log              *slog.Logger
	latencyThreshold time.Duration
}

func NewLatencyHandler(log *slog.Logger, latencyThreshold time.Duration) *LatencyHandler {
	return &LatencyHandler{log: log, latencyThreshold: latencyThreshold}
}

func (h *LatencyHandler) Handle(e Event) {
	if payload, ok := e.Payload.(NotificationSent); ok {
		if payload.QueuedAt.IsZero() {
			return
		}
		leadTime := e.CreatedAt.Sub(payload.QueuedAt)
		if h.latencyThreshold > 0 && leadTime > h.latencyThreshold {
			h.log.Warn("high delivery latency detected",
				"conn_id", payload.To,
				"kind", payload.Kind,
				"lead_time", leadTime)
		}
	}
}

// Package observability exposes the runtime state as Prometheus metrics.
package observability

import (
	"buddy-chat/domain/event"
	"buddy-chat/session"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ event.Handler = (*Metrics)(nil)

type StatsSource interface {
	Stats() session.Stats
}

// Metrics is fed by telemetry events and reads live occupancy from the registry on scrape.
type Metrics struct {
	log      *slog.Logger
	registry *prometheus.Registry

	ParticipantsJoined prometheus.Counter
	ParticipantsLeft   prometheus.Counter
	PairsFormed        prometheus.Counter
	PairsEnded         prometheus.Counter
	RelaysDropped      *prometheus.CounterVec
	NotificationsSent  *prometheus.CounterVec
	DeliveryFailures   *prometheus.CounterVec
	DeliveryLatency    prometheus.Observer
	PairDuration       prometheus.Observer
	WorkerRestarts     *prometheus.CounterVec
	ChannelLength      *prometheus.GaugeVec
}

func NewMetrics(log *slog.Logger, stats StatsSource) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	m := &Metrics{
		log:                log,
		registry:           reg,
		ParticipantsJoined: factory.NewCounter(prometheus.CounterOpts{Name: "buddy_participants_joined_total", Help: "Number of registered participants"}),
		ParticipantsLeft:   factory.NewCounter(prometheus.CounterOpts{Name: "buddy_participants_left_total", Help: "Number of registered participants who disconnected"}),
		PairsFormed:        factory.NewCounter(prometheus.CounterOpts{Name: "buddy_pairs_formed_total", Help: "Number of pairings formed"}),
		PairsEnded:         factory.NewCounter(prometheus.CounterOpts{Name: "buddy_pairs_ended_total", Help: "Number of pairings ended by a disconnect"}),
		RelaysDropped:      factory.NewCounterVec(prometheus.CounterOpts{Name: "buddy_relays_dropped_total", Help: "Chat events received from participants without a buddy"}, []string{"kind"}),
		NotificationsSent:  factory.NewCounterVec(prometheus.CounterOpts{Name: "buddy_notifications_sent_total", Help: "Notifications handed to a connection"}, []string{"kind"}),
		DeliveryFailures:   factory.NewCounterVec(prometheus.CounterOpts{Name: "buddy_delivery_failures_total", Help: "Notifications that could not be handed to a connection"}, []string{"kind"}),
		DeliveryLatency:    factory.NewHistogram(prometheus.HistogramOpts{Name: "buddy_delivery_latency_seconds", Help: "Time between queuing and delivering a notification", Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12)}),
		PairDuration:       factory.NewHistogram(prometheus.HistogramOpts{Name: "buddy_pair_duration_seconds", Help: "How long pairings lasted", Buckets: prometheus.ExponentialBuckets(1, 4, 8)}),
		WorkerRestarts:     factory.NewCounterVec(prometheus.CounterOpts{Name: "buddy_worker_restarts_total", Help: "Workers restarted after a panic"}, []string{"worker"}),
		ChannelLength:      factory.NewGaugeVec(prometheus.GaugeOpts{Name: "buddy_channel_length", Help: "Last sampled length of internal queues"}, []string{"channel"}),
	}
	if stats != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{Name: "buddy_participants", Help: "Registered participants"},
			func() float64 { return float64(stats.Stats().Participants) })
		factory.NewGaugeFunc(prometheus.GaugeOpts{Name: "buddy_pairs", Help: "Active pairings"},
			func() float64 { return float64(stats.Stats().Pairs) })
		factory.NewGaugeFunc(prometheus.GaugeOpts{Name: "buddy_waiting", Help: "1 when a participant is waiting for a buddy"},
			func() float64 { return float64(stats.Stats().Waiting) })
	}
	return m
}

// Registry is what the /metrics endpoint gathers from.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handle(e event.Event) {
	switch payload := e.Payload.(type) {
	case event.ParticipantJoined:
		m.ParticipantsJoined.Inc()
	case event.ParticipantLeft:
		m.ParticipantsLeft.Inc()
	case event.PairFormed:
		m.PairsFormed.Inc()
	case event.PairEnded:
		m.PairsEnded.Inc()
		m.PairDuration.Observe(payload.EndedAt.Sub(payload.FormedAt).Seconds())
	case event.RelayDropped:
		m.RelaysDropped.WithLabelValues(string(payload.Kind)).Inc()
	case event.NotificationSent:
		kind := string(payload.Kind)
		if payload.Err != nil {
			m.DeliveryFailures.WithLabelValues(kind).Inc()
			return
		}
		m.NotificationsSent.WithLabelValues(kind).Inc()
		if !payload.QueuedAt.IsZero() {
			m.DeliveryLatency.Observe(e.CreatedAt.Sub(payload.QueuedAt).Seconds())
		}
	case event.WorkerRestartedAfterPanic:
		m.WorkerRestarts.WithLabelValues(payload.WorkerName).Inc()
	case event.ChannelCapacity:
		m.ChannelLength.WithLabelValues(payload.ChannelName).Set(float64(payload.Length))
	default:
		m.log.Debug("Event not measured", "type", e.Type)
	}
}

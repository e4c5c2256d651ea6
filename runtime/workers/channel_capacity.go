package workers

import (
	"buddy-chat/domain/event"
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples how full the runtime queues are.
// Reading len and cap of a channel does not block, and losing a sample is fine.
type ChannelCapacityWorker struct {
	log             *slog.Logger
	channels        []NamedChannel
	telemetryEvents chan event.Event
	metricInterval  time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger,
	channels []NamedChannel, telemetryEvents chan event.Event,
	metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:             log,
		channels:        channels,
		telemetryEvents: telemetryEvents,
		metricInterval:  metricInterval,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampling")
			return nil
		case <-ticker.C:
			for _, sample := range w.Sample() {
				forward(w.log, w.telemetryEvents, sample, "telemetry")
			}
		}
	}
}

// Sample returns one ChannelCapacity event per named channel.
// Values that are not channels are skipped.
func (w ChannelCapacityWorker) Sample() []event.Event {
	samples := make([]event.Event, 0, len(w.channels))
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		samples = append(samples, event.New(event.ChannelCapacityType, event.ChannelCapacity{
			ChannelName: nc.Name,
			Capacity:    v.Cap(),
			Length:      v.Len(),
		}))
	}
	return samples
}

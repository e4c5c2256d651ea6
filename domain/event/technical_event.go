package event

import (
	"buddy-chat/domain"
	"time"
)

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	NotificationSentType    Type = "NOTIFICATION_SENT"
)

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

// NotificationSent is emitted by the delivery worker for every notification it handed,
// or failed to hand, to a connection sink.
type NotificationSent struct {
	To       domain.ConnectionID
	Kind     domain.NotificationKind
	QueuedAt time.Time
	Err      error
}

package workers

import (
	"buddy-chat/contract"
	"buddy-chat/domain/event"
	"buddy-chat/errors"
	"context"
	"log/slog"
)

var _ contract.Worker = (*JournalWorker)(nil)

// JournalWorker records pairing lifecycle events in the pairing journal.
// A failed write is logged and skipped.
type JournalWorker struct {
	log           *slog.Logger
	journal       contract.IPairingJournal
	journalEvents chan event.Event
}

func NewJournalWorker(log *slog.Logger, journal contract.IPairingJournal, journalEvents chan event.Event) *JournalWorker {
	return &JournalWorker{log: log, journal: journal, journalEvents: journalEvents}
}

func (w *JournalWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case evt, ok := <-w.journalEvents:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			if err := w.record(evt); err != nil {
				w.log.Error("Failed to record pairing", "type", evt.Type, "error", err)
			}
		}
	}
}

func (w *JournalWorker) record(evt event.Event) error {
	switch payload := evt.Payload.(type) {
	case event.PairFormed:
		return w.journal.RecordFormed(payload)
	case event.PairEnded:
		return w.journal.RecordEnded(payload)
	default:
		return errors.ErrInvalidPayload
	}
}

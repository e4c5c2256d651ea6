package workers

import (
	"buddy-chat/domain/event"
	"buddy-chat/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestJournalWorker_Records_Pairing_Lifecycle(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	journal := mocks.NewMockIPairingJournal(ctrl)
	events := make(chan event.Event, 10)
	worker := NewJournalWorker(slog.Default(), journal, events)

	id := uuid.New()
	formed := event.PairFormed{PairingID: id, Names: [2]string{"Ann", "Bo"}, FormedAt: time.Now()}
	ended := event.PairEnded{PairingID: id, FormedAt: formed.FormedAt, EndedAt: time.Now(), LeftBy: "bo"}

	done := make(chan struct{})
	gomock.InOrder(
		journal.EXPECT().RecordFormed(formed).Return(nil),
		// A failing write must not stop the worker
		journal.EXPECT().RecordEnded(ended).Return(fmt.Errorf("disk full")),
		journal.EXPECT().RecordEnded(ended).DoAndReturn(func(event.PairEnded) error {
			close(done)
			return nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	events <- event.New(event.PairFormedType, formed)
	events <- event.New(event.ParticipantJoinedType, event.ParticipantJoined{})
	events <- event.New(event.PairEndedType, ended)
	events <- event.New(event.PairEndedType, ended)

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("journal worker did not record every event")
	}
}

package workers

import (
	"buddy-chat/domain"
	"buddy-chat/domain/event"
	"buddy-chat/errors"
	"buddy-chat/mocks"
	"buddy-chat/session"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newSessionWorker(sessions *mocks.MockISessionRegistry, notifications chan Envelope,
	telemetry, journal chan event.Event) *SessionWorker {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewSessionWorker(sessions, make(chan domain.Command, 10), notifications, telemetry, journal, log)
}

func drain(ch chan Envelope) []domain.Notification {
	var out []domain.Notification
	for {
		select {
		case e := <-ch:
			out = append(out, e.Notification)
		default:
			return out
		}
	}
}

func TestSessionWorker_Register_Replies_And_Acknowledges(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionRegistry(ctrl)
	notifications := make(chan Envelope, 10)
	worker := newSessionWorker(sessions, notifications, nil, nil)

	// Given Ann is waiting
	sessions.EXPECT().Register(domain.ConnectionID("bo"), "Bo").
		Return(domain.Registration{PartnerName: "Ann", Paired: true},
			[]domain.Notification{domain.NewBuddyAssigned("ann", "Bo")}, nil)
	sessions.EXPECT().FlushEvents().Return(nil)

	// When Bo registers
	reply := make(chan domain.RegisterReply, 1)
	err := worker.Handle(context.Background(), domain.RegisterCommand{Conn: "bo", Name: "Bo", Reply: reply})

	// Then Bo gets Ann's name back
	req.NoError(err)
	r := <-reply
	req.NoError(r.Err)
	req.Equal("Ann", r.Registration.PartnerName)

	// And Ann is notified before Bo is acknowledged
	req.Equal([]domain.Notification{
		domain.NewBuddyAssigned("ann", "Bo"),
		domain.NewRegistered("bo", "Ann"),
	}, drain(notifications))
}

func TestSessionWorker_Register_Refused(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionRegistry(ctrl)
	notifications := make(chan Envelope, 10)
	worker := newSessionWorker(sessions, notifications, nil, nil)

	sessions.EXPECT().Register(domain.ConnectionID("ann"), "Ann").
		Return(domain.Registration{}, nil, errors.ErrAlreadyRegistered)
	sessions.EXPECT().FlushEvents().Return(nil)

	reply := make(chan domain.RegisterReply, 1)
	req.NoError(worker.Handle(context.Background(), domain.RegisterCommand{Conn: "ann", Name: "Ann", Reply: reply}))

	r := <-reply
	req.ErrorIs(r.Err, errors.ErrAlreadyRegistered)
	req.Empty(drain(notifications))
}

func TestSessionWorker_Relays_And_Disconnects(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionRegistry(ctrl)
	notifications := make(chan Envelope, 10)
	worker := newSessionWorker(sessions, notifications, nil, nil)

	gomock.InOrder(
		sessions.EXPECT().RelayAdd(domain.ConnectionID("ann"), "h").
			Return([]domain.Notification{domain.NewChatAdd("bo", "h")}),
		sessions.EXPECT().FlushEvents().Return(nil),
		sessions.EXPECT().RelayDelete(domain.ConnectionID("ann"), 2).
			Return([]domain.Notification{domain.NewChatDelete("bo", 2)}),
		sessions.EXPECT().FlushEvents().Return(nil),
		sessions.EXPECT().Disconnect(domain.ConnectionID("ann")).
			Return([]domain.Notification{domain.NewBuddyLeft("bo")}),
		sessions.EXPECT().FlushEvents().Return(nil),
	)

	ctx := context.Background()
	req.NoError(worker.Handle(ctx, domain.ChatAddCommand{Conn: "ann", Payload: "h"}))
	req.NoError(worker.Handle(ctx, domain.ChatDeleteCommand{Conn: "ann", Count: 2}))
	req.NoError(worker.Handle(ctx, domain.DisconnectCommand{Conn: "ann"}))

	req.Equal([]domain.Notification{
		domain.NewChatAdd("bo", "h"),
		domain.NewChatDelete("bo", 2),
		domain.NewBuddyLeft("bo"),
	}, drain(notifications))
}

func TestSessionWorker_Forwards_Lifecycle_Events(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionRegistry(ctrl)
	telemetry := make(chan event.Event, 10)
	journal := make(chan event.Event, 10)
	worker := newSessionWorker(sessions, make(chan Envelope, 10), telemetry, journal)

	formed := event.New(event.PairFormedType, event.PairFormed{Names: [2]string{"Ann", "Bo"}})
	joined := event.New(event.ParticipantJoinedType, event.ParticipantJoined{ID: "bo", Name: "Bo"})
	sessions.EXPECT().Disconnect(gomock.Any()).Return(nil)
	sessions.EXPECT().FlushEvents().Return([]event.Event{joined, formed})

	req.NoError(worker.Handle(context.Background(), domain.DisconnectCommand{Conn: "x"}))

	// Then telemetry sees everything
	req.Len(telemetry, 2)
	req.Equal(joined, <-telemetry)
	req.Equal(formed, <-telemetry)

	// And the journal only sees pairing events
	req.Len(journal, 1)
	req.Equal(formed, <-journal)
}

func TestSessionWorker_Run_Uses_Real_Registry(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	commands := make(chan domain.Command, 10)
	notifications := make(chan Envelope, 10)
	worker := NewSessionWorker(session.NewRegistry(log), commands, notifications, nil, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// Given Ann and Bo register one after the other
	annReply := make(chan domain.RegisterReply, 1)
	boReply := make(chan domain.RegisterReply, 1)
	commands <- domain.RegisterCommand{Conn: "ann", Name: "Ann", Reply: annReply}
	commands <- domain.RegisterCommand{Conn: "bo", Name: "Bo", Reply: boReply}

	// Then Ann waits and Bo pairs with her
	req.False((<-annReply).Registration.Paired)
	req.Equal("Ann", (<-boReply).Registration.PartnerName)

	var got []domain.Notification
	for len(got) < 3 {
		select {
		case e := <-notifications:
			got = append(got, e.Notification)
		case <-time.After(time.Second):
			req.FailNow("missing notifications", "got %v", got)
		}
	}
	req.Equal([]domain.Notification{
		domain.NewRegistered("ann", ""),
		domain.NewBuddyAssigned("ann", "Bo"),
		domain.NewRegistered("bo", "Ann"),
	}, got)
}

func TestSessionWorker_Handle_Stops_When_Context_Done(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockISessionRegistry(ctrl)
	// Unbuffered and never read: queuing must give up with the context
	worker := newSessionWorker(sessions, make(chan Envelope), nil, nil)

	sessions.EXPECT().RelayAdd(gomock.Any(), gomock.Any()).
		Return([]domain.Notification{domain.NewChatAdd("bo", "h")})
	sessions.EXPECT().FlushEvents().Return(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := worker.Handle(ctx, domain.ChatAddCommand{Conn: "ann", Payload: "h"})

	req.ErrorIs(err, context.DeadlineExceeded)
}

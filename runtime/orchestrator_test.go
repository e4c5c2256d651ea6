package runtime_test

import (
	"buddy-chat/domain"
	"buddy-chat/domain/event"
	"buddy-chat/errors"
	"buddy-chat/mocks"
	"buddy-chat/runtime"
	"buddy-chat/runtime/workers"
	"buddy-chat/session"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type RecordingSink struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (s *RecordingSink) Consume(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *RecordingSink) Received() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...)
}

func newOrchestrator(t *testing.T) *runtime.Orchestrator {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	o := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0),
		session.NewRegistry(log), runtime.NewConnections(), 100, time.Second, 0)
	return o
}

func start(t *testing.T, o *runtime.Orchestrator) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		o.Stop()
		cancel()
	})
	require.NoError(t, o.Start(ctx))
	return ctx
}

func connect(t *testing.T, ctx context.Context, o *runtime.Orchestrator, id domain.ConnectionID, name string) (*RecordingSink, domain.Registration) {
	sink := &RecordingSink{}
	o.Connect(id, sink)
	registration, err := o.Register(ctx, id, name)
	require.NoError(t, err)
	return sink, registration
}

func requireReceived(t *testing.T, sink *RecordingSink, expected ...domain.Notification) {
	require.Eventually(t, func() bool {
		return len(sink.Received()) >= len(expected)
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, expected, sink.Received())
}

func Test_Orchestrator_pairs_relays_and_repairs(t *testing.T) {
	req := require.New(t)
	o := newOrchestrator(t)
	ctx := start(t, o)

	// Given Ann waits then Bo joins
	ann, annReg := connect(t, ctx, o, "ann", "Ann")
	req.False(annReg.Paired)
	bo, boReg := connect(t, ctx, o, "bo", "Bo")
	req.Equal("Ann", boReg.PartnerName)

	// When Ann types and deletes
	req.NoError(o.Dispatch(ctx, domain.ChatAddCommand{Conn: "ann", Payload: "hi"}))
	req.NoError(o.Dispatch(ctx, domain.ChatDeleteCommand{Conn: "ann", Count: 1}))

	// Then Bo sees both, in order
	requireReceived(t, bo,
		domain.NewRegistered("bo", "Ann"),
		domain.NewChatAdd("bo", "hi"),
		domain.NewChatDelete("bo", 1),
	)

	// When Cy waits and Bo leaves
	cy, cyReg := connect(t, ctx, o, "cy", "Cy")
	req.False(cyReg.Paired)
	req.NoError(o.Disconnect(ctx, "bo"))

	// Then Ann is told Bo left and is paired with Cy
	requireReceived(t, ann,
		domain.NewRegistered("ann", ""),
		domain.NewBuddyAssigned("ann", "Bo"),
		domain.NewBuddyLeft("ann"),
		domain.NewBuddyAssigned("ann", "Cy"),
	)
	requireReceived(t, cy,
		domain.NewRegistered("cy", ""),
		domain.NewBuddyAssigned("cy", "Ann"),
	)

	snapshot := o.Snapshot()
	req.Equal(2, snapshot.Participants)
	req.Len(snapshot.Pairs, 1)
	req.Nil(snapshot.Waiting)
}

func Test_Orchestrator_rejects_second_registration(t *testing.T) {
	req := require.New(t)
	o := newOrchestrator(t)
	ctx := start(t, o)

	connect(t, ctx, o, "ann", "Ann")
	_, err := o.Register(ctx, "ann", "Ann again")

	req.ErrorIs(err, errors.ErrAlreadyRegistered)
}

func Test_Orchestrator_journals_pairings(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	journal := mocks.NewMockIPairingJournal(ctrl)
	o := newOrchestrator(t).WithJournal(journal)

	var mu sync.Mutex
	var formed []event.PairFormed
	var ended []event.PairEnded
	journal.EXPECT().RecordFormed(gomock.Any()).DoAndReturn(func(e event.PairFormed) error {
		mu.Lock()
		defer mu.Unlock()
		formed = append(formed, e)
		return nil
	}).AnyTimes()
	journal.EXPECT().RecordEnded(gomock.Any()).DoAndReturn(func(e event.PairEnded) error {
		mu.Lock()
		defer mu.Unlock()
		ended = append(ended, e)
		return nil
	}).AnyTimes()

	ctx := start(t, o)
	connect(t, ctx, o, "ann", "Ann")
	connect(t, ctx, o, "bo", "Bo")
	req.NoError(o.Disconnect(ctx, "ann"))

	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(formed) == 1 && len(ended) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	req.Equal([2]string{"Ann", "Bo"}, formed[0].Names)
	req.Equal(formed[0].PairingID, ended[0].PairingID)
	req.Equal(domain.ConnectionID("ann"), ended[0].LeftBy)
}

func Test_Orchestrator_Stop_fails_pending_calls(t *testing.T) {
	req := require.New(t)
	o := newOrchestrator(t)

	// Never started: Stop must still unblock callers
	o.Stop()
	o.Stop()

	err := o.Dispatch(context.Background(), domain.ChatAddCommand{Conn: "ann", Payload: "x"})
	req.ErrorIs(err, errors.ErrOrchestratorStopped)

	_, err = o.Register(context.Background(), "ann", "Ann")
	req.ErrorIs(err, errors.ErrOrchestratorStopped)
}

func Test_Orchestrator_Dispatch_honours_context(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	// Queue of one, no worker reading it
	o := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0),
		session.NewRegistry(log), runtime.NewConnections(), 1, time.Second, 0)

	req.NoError(o.Dispatch(context.Background(), domain.ChatAddCommand{Conn: "ann", Payload: "x"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := o.Dispatch(ctx, domain.ChatAddCommand{Conn: "ann", Payload: "y"})

	req.ErrorIs(err, context.DeadlineExceeded)
}

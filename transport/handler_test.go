package transport_test

import (
	"buddy-chat/client"
	"buddy-chat/runtime"
	"buddy-chat/runtime/workers"
	"buddy-chat/session"
	"buddy-chat/transport"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type stack struct {
	url      string
	registry *session.Registry
}

func newStack(t *testing.T) stack {
	gin.SetMode(gin.TestMode)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := session.NewRegistry(log)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0),
		registry, runtime.NewConnections(), 100, time.Second, 0)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, orchestrator.Start(ctx))

	r := gin.New()
	r.GET("/ws", transport.NewHandler(log, orchestrator, 64, 64).HandleWS)
	server := httptest.NewServer(r)
	t.Cleanup(func() {
		server.Close()
		orchestrator.Stop()
		cancel()
	})
	return stack{url: "ws" + strings.TrimPrefix(server.URL, "http") + "/ws", registry: registry}
}

func dial(t *testing.T, s stack) *client.Client {
	c, err := client.Dial(context.Background(), s.url, slog.Default(), 32)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func next(t *testing.T, c *client.Client) client.Event {
	select {
	case evt, ok := <-c.Events():
		require.True(t, ok, "connection closed")
		return evt
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no event received")
		return client.Event{}
	}
}

func TestHandler_Pair_Type_And_Repair(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	// Given Ann connects first
	ann := dial(t, s)
	req.NoError(ann.Init("Ann"))
	registered := next(t, ann)
	req.Equal(transport.EventRegistered, registered.Kind)
	req.Nil(registered.Buddy)

	// When Bo connects
	bo := dial(t, s)
	req.NoError(bo.Init("Bo"))

	// Then Bo is paired with Ann right away
	registered = next(t, bo)
	req.Equal(transport.EventRegistered, registered.Kind)
	req.NotNil(registered.Buddy)
	req.Equal("Ann", *registered.Buddy)

	// And Ann is told about Bo
	assigned := next(t, ann)
	req.Equal(transport.EventBuddyAssigned, assigned.Kind)
	req.Equal("Bo", assigned.Name)

	// When Ann types and deletes
	req.NoError(ann.Type("h"))
	req.NoError(ann.Type("i"))
	req.NoError(ann.Delete(1))

	// Then Bo sees it in order
	req.Equal(client.Event{Kind: transport.EventChatAdd, Payload: "h"}, next(t, bo))
	req.Equal(client.Event{Kind: transport.EventChatAdd, Payload: "i"}, next(t, bo))
	req.Equal(client.Event{Kind: transport.EventChatDelete, Count: 1}, next(t, bo))

	// When Cy waits and Bo leaves
	cy := dial(t, s)
	req.NoError(cy.Init("Cy"))
	req.Nil(next(t, cy).Buddy)
	req.NoError(bo.Close())

	// Then Ann is told, then paired with Cy
	req.Equal(transport.EventBuddyLeft, next(t, ann).Kind)
	assigned = next(t, ann)
	req.Equal(transport.EventBuddyAssigned, assigned.Kind)
	req.Equal("Cy", assigned.Name)

	assigned = next(t, cy)
	req.Equal(transport.EventBuddyAssigned, assigned.Kind)
	req.Equal("Ann", assigned.Name)

	req.Eventually(func() bool {
		stats := s.registry.Stats()
		return stats.Participants == 2 && stats.Pairs == 1 && stats.Waiting == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_Ignores_Bad_Frames_And_Second_Init(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	ann := dial(t, s)
	// Invalid init is ignored, the connection stays usable
	req.NoError(ann.Init(""))
	req.NoError(ann.Init("Ann"))
	req.Equal(transport.EventRegistered, next(t, ann).Kind)

	// A second init does not register again
	req.NoError(ann.Init("Annie"))

	bo := dial(t, s)
	req.NoError(bo.Init("Bo"))
	req.Equal("Ann", *next(t, bo).Buddy)
	req.Equal("Bo", next(t, ann).Name)

	req.Equal(2, s.registry.Stats().Participants)
}

func TestHandler_Unpaired_Typing_Is_Dropped(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	ann := dial(t, s)
	req.NoError(ann.Init("Ann"))
	req.Equal(transport.EventRegistered, next(t, ann).Kind)

	// Typing while waiting goes nowhere
	req.NoError(ann.Type("x"))

	bo := dial(t, s)
	req.NoError(bo.Init("Bo"))
	req.Equal(transport.EventRegistered, next(t, bo).Kind)

	// Bo's first chat event is what Ann types after pairing
	req.NoError(ann.Type("y"))
	req.Equal(client.Event{Kind: transport.EventChatAdd, Payload: "y"}, next(t, bo))
}

func TestHandler_Disconnect_While_Waiting_Frees_Slot(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	ann := dial(t, s)
	req.NoError(ann.Init("Ann"))
	req.Equal(transport.EventRegistered, next(t, ann).Kind)
	req.NoError(ann.Close())

	req.Eventually(func() bool {
		return s.registry.Stats().Participants == 0
	}, time.Second, 10*time.Millisecond)

	bo := dial(t, s)
	req.NoError(bo.Init("Bo"))
	req.Nil(next(t, bo).Buddy)
}

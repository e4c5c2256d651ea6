package runtime

import (
	"buddy-chat/domain"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(_ context.Context, _ domain.Notification) error {
	return nil
}

func TestConnections_Subscribe_One_Connection(t *testing.T) {
	req := require.New(t)
	connections := NewConnections()
	id := domain.ConnectionID(uuid.NewString())
	sink := Sink{name: "one"}

	// Given no connection is open
	req.Zero(connections.Len())

	// When a connection subscribes
	connections.Subscribe(id, sink)

	// Then its sink can be resolved
	req.Equal(1, connections.Len())
	found, ok := connections.SinkFor(id)
	req.True(ok)
	req.Equal(sink, found)
}

func TestConnections_Subscribe_Replaces_Sink(t *testing.T) {
	req := require.New(t)
	connections := NewConnections()
	id := domain.ConnectionID(uuid.NewString())

	connections.Subscribe(id, Sink{name: "old"})
	connections.Subscribe(id, Sink{name: "new"})

	found, ok := connections.SinkFor(id)
	req.True(ok)
	req.Equal(Sink{name: "new"}, found)
	req.Equal(1, connections.Len())
}

func TestConnections_Unsubscribe(t *testing.T) {
	req := require.New(t)
	connections := NewConnections()
	id1 := domain.ConnectionID(uuid.NewString())
	id2 := domain.ConnectionID(uuid.NewString())

	// Given two connections are open
	connections.Subscribe(id1, Sink{name: "1"})
	connections.Subscribe(id2, Sink{name: "2"})

	// When the first one leaves, twice
	connections.Unsubscribe(id1)
	connections.Unsubscribe(id1)

	// Then only the second one is left
	_, ok := connections.SinkFor(id1)
	req.False(ok)
	found, ok := connections.SinkFor(id2)
	req.True(ok)
	req.Equal(Sink{name: "2"}, found)
	req.Equal(1, connections.Len())
}

package runtime

import (
	"buddy-chat/contract"
	"buddy-chat/domain"
	"sync"
)

var _ contract.IConnections = (*Connections)(nil)

// Connections maps every live connection to the sink that writes to it.
// It is read by the delivery worker and written by the transport.
type Connections struct {
	mu    sync.RWMutex
	sinks map[domain.ConnectionID]contract.NotificationSink
}

func NewConnections() *Connections {
	return &Connections{
		sinks: make(map[domain.ConnectionID]contract.NotificationSink),
	}
}

// Subscribe registers the sink of a freshly opened connection.
// A second call for the same connection replaces the previous sink.
func (c *Connections) Subscribe(id domain.ConnectionID, sink contract.NotificationSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks[id] = sink
}

// Unsubscribe forgets the connection. Notifications still in flight for it are dropped.
func (c *Connections) Unsubscribe(id domain.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sinks, id)
}

func (c *Connections) SinkFor(id domain.ConnectionID) (contract.NotificationSink, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sink, ok := c.sinks[id]
	return sink, ok
}

func (c *Connections) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sinks)
}

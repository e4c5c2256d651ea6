package event

import "sync"

// Handler Each kind of event has his own handler
// Based on the Chain of responsibility pattern
type Handler interface {
	Handle(event Event)
}

// Counter counts events per type. It is safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	counts map[Type]int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[Type]int)}
}

func (c *Counter) Increment(t Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[t]++
}

func (c *Counter) Get(t Type) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[t]
}

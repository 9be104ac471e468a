package ws

import (
	"bbs-lab/domain/event"
	"context"
	"fmt"
	"sync"
)

// Sink buffers outbound events for one connection. Consume is called by
// the relay under channel locks and must not block: a full buffer means
// the consumer is too slow and is reported as a delivery failure, which
// the relay treats as that member's disconnect.
type Sink struct {
	events chan event.DomainEvent

	mu     sync.Mutex
	closed bool
}

func NewSink(bufferSize int) *Sink {
	return &Sink{events: make(chan event.DomainEvent, bufferSize)}
}

// Consume redirects the event into the connection's write pump.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink closed")
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("outbound buffer full")
	}
}

// Events is read by the write pump.
func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}

// Close makes further Consume calls fail fast. Idempotent.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

package events

import (
	"context"
	"sync"
)

// Publisher delivers emitted facts. Implementations decide transport;
// callers decide failure semantics by category: compliance facts are
// fail-closed (a publish error fails the operation), operations facts are
// best-effort (log and continue).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// MemoryPublisher records events in memory. Used in tests and as the
// default when no broker is configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish appends the event to the in-memory log.
func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// ByKind returns published events of one kind, in publish order.
func (p *MemoryPublisher) ByKind(kind Kind) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

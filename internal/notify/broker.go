package notify

import (
	"context"
	"sync"

	"event-tickets/internal/ledger"
)

// Broker fans EventCreated notifications out to in-process subscribers.
// Slow subscribers miss notifications rather than block the publisher.
type Broker struct {
	mu     sync.Mutex
	subs   map[chan ledger.EventCreated]struct{}
	buffer int
}

func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{
		subs:   make(map[chan ledger.EventCreated]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns a channel of notifications and a function that closes it.
func (b *Broker) Subscribe() (<-chan ledger.EventCreated, func()) {
	ch := make(chan ledger.EventCreated, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broker) NotifyEventCreated(ctx context.Context, ev ledger.EventCreated) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

package runtime

import (
	"context"
	"sync"

	errspkg "github.com/botwire/botwire/internal/runtime/errors"
)

// broadcastBuffer is the per-subscriber buffer size. A subscriber that falls
// this far behind loses its oldest unread events; producers never block.
const broadcastBuffer = 1024

// Broadcaster fans every published event out to all current subscriptions.
// Delivery preserves publish order per subscription; there is no ordering
// guarantee across subscriptions.
type Broadcaster[E any] struct {
	mu   sync.RWMutex
	subs []*Subscription[E]
}

func NewBroadcaster[E any]() *Broadcaster[E] {
	return &Broadcaster[E]{}
}

// Subscription is one independent tap on the event stream.
type Subscription[E any] struct {
	b    *Broadcaster[E]
	ch   chan BaseEvent[E]
	done chan struct{}
	once sync.Once
}

// Subscribe registers a new tap. The caller must Close it when done.
func (b *Broadcaster[E]) Subscribe() *Subscription[E] {
	sub := &Subscription[E]{
		b:    b,
		ch:   make(chan BaseEvent[E], broadcastBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub
}

// Send publishes one event to every subscription and returns the number of
// receivers. Zero subscribers is the soft failure ErrNoSubscriber, which
// internal callers ignore.
func (b *Broadcaster[E]) Send(event BaseEvent[E]) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.subs) == 0 {
		return 0, errspkg.ErrNoSubscriber
	}
	for _, sub := range b.subs {
		sub.push(event)
	}
	return len(b.subs), nil
}

// SubscriberCount reports the current number of taps.
func (b *Broadcaster[E]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster[E]) remove(sub *Subscription[E]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// push never blocks: when the buffer is full the oldest unread event is
// dropped to make room, favouring producers over laggards.
func (s *Subscription[E]) push(event BaseEvent[E]) {
	select {
	case s.ch <- event:
	default:
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- event:
		default:
		}
	}
}

// Next blocks for the next event. It returns false when the subscription is
// closed or ctx is cancelled.
func (s *Subscription[E]) Next(ctx context.Context) (BaseEvent[E], bool) {
	var zero BaseEvent[E]
	select {
	case event := <-s.ch:
		return event, true
	case <-s.done:
		return zero, false
	case <-ctx.Done():
		return zero, false
	}
}

// Events exposes the raw channel for select-based consumers.
func (s *Subscription[E]) Events() <-chan BaseEvent[E] {
	return s.ch
}

// Close detaches the subscription from the broadcaster. Idempotent.
func (s *Subscription[E]) Close() {
	s.once.Do(func() {
		s.b.remove(s)
		close(s.done)
	})
}

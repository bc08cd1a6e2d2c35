// ABOUTME: In-memory fan-out broadcaster for session change notifications
// ABOUTME: Delivers events to every subscriber, dropping them for slow readers

package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Broadcaster provides in-memory pub/sub of events of type T.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[string]chan T
	closed      bool
	logger      *slog.Logger
}

// New creates a broadcaster. Pass nil logger for default.
func New[T any](logger *slog.Logger) *Broadcaster[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster[T]{
		subscribers: make(map[string]chan T),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber and returns its channel and subscription
// ID. The subscription is removed, and the channel closed, when ctx is done.
// Subscribing to a closed broadcaster returns an already closed channel.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) (<-chan T, string) {
	subID := uuid.New().String()
	ch := make(chan T, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends event to all subscribers except excludeSubID (if non-empty).
func (b *Broadcaster[T]) Publish(event T, excludeSubID string) {
	// Sends are non-blocking, so holding the read lock keeps Unsubscribe from
	// closing a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		if excludeSubID != "" && id == excludeSubID {
			continue
		}
		select {
		case ch <- event:
		default:
			b.logger.Debug("dropped event for slow subscriber", "sub_id", id)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster[T]) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Len returns the number of active subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels. Later subscriptions get closed channels.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}

	b.logger.Debug("broadcaster closed")
}

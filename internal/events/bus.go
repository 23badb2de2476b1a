// Package events carries typed notifications between the engines of one
// session: filter changes, listing view changes, viewport and cart updates.
package events

import (
	"context"
	"sync"

	"producermap/internal/domain"
)

// Topic names a subscription channel.
type Topic string

const (
	TopicFiltersChanged  Topic = "filters.changed"
	TopicListingsChanged Topic = "listings.changed"
	TopicViewportSettled Topic = "viewport.settled"
	TopicCartChanged     Topic = "cart.changed"
)

// Event is anything published on the bus.
type Event interface {
	Topic() Topic
}

type FiltersChanged struct {
	State domain.FilterState
}

func (FiltersChanged) Topic() Topic { return TopicFiltersChanged }

// ListingsChanged carries the IDs currently in the filtered view.
type ListingsChanged struct {
	FilteredIDs map[int64]struct{}
	Pagination  domain.PaginationState
}

func (ListingsChanged) Topic() Topic { return TopicListingsChanged }

type ViewportSettled struct {
	Bounds domain.BoundingBox
}

func (ViewportSettled) Topic() Topic { return TopicViewportSettled }

type CartChanged struct {
	Cart domain.Cart
}

func (CartChanged) Topic() Topic { return TopicCartChanged }

// Handler receives events for one topic.
type Handler func(ctx context.Context, event Event)

// Bus dispatches events synchronously, in subscription order, on the
// publisher's goroutine.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Topic][]subscription
}

type subscription struct {
	id int
	fn Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Topic][]subscription)}
}

// Subscribe registers fn for topic and returns a function removing it.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[topic]
		for i, s := range subs {
			if s.id == id {
				b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every handler subscribed to the event's topic. A nil bus
// drops the event.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[event.Topic()]...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(ctx, event)
	}
}

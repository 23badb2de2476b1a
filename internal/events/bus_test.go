package events

import (
	"context"
	"testing"

	"producermap/internal/domain"
)

func TestBusDispatchesByTopic(t *testing.T) {
	bus := NewBus()
	var got []Topic
	bus.Subscribe(TopicFiltersChanged, func(_ context.Context, e Event) { got = append(got, e.Topic()) })
	bus.Subscribe(TopicCartChanged, func(_ context.Context, e Event) { got = append(got, e.Topic()) })

	bus.Publish(context.Background(), FiltersChanged{State: domain.NewFilterState()})

	if len(got) != 1 || got[0] != TopicFiltersChanged {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(TopicCartChanged, func(context.Context, Event) { calls++ })
	other := 0
	bus.Subscribe(TopicCartChanged, func(context.Context, Event) { other++ })

	bus.Publish(context.Background(), CartChanged{})
	unsubscribe()
	bus.Publish(context.Background(), CartChanged{})

	if calls != 1 || other != 2 {
		t.Fatalf("expected calls=1 other=2, got %d %d", calls, other)
	}
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	bus.Publish(context.Background(), CartChanged{})
}

package filter

import (
	"context"
	"io"
	"log"
	"sync"

	"producermap/internal/domain"
	"producermap/internal/events"
	"producermap/internal/persist"
)

// Engine owns the filter state of one session. Every mutation publishes
// events.FiltersChanged and persists the new state.
type Engine struct {
	mu    sync.RWMutex
	state domain.FilterState

	// serializes mutate+publish so subscribers see changes in order
	pubMu sync.Mutex

	bus    *events.Bus
	store  persist.Store
	key    string
	logger *log.Logger
}

type Option func(*Engine)

func WithBus(b *events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithStore persists the state at key.
func WithStore(s persist.Store, key string) Option {
	return func(e *Engine) {
		e.store = s
		e.key = key
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine restores any persisted state, falling back to no selections.
func NewEngine(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = events.NewBus()
	}
	e.state = persist.Restore(ctx, e.store, e.key, domain.NewFilterState(), e.logger).Clone()
	return e
}

// State returns a copy of the current selections.
func (e *Engine) State() domain.FilterState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Toggle flips value in category c.
func (e *Engine) Toggle(ctx context.Context, c domain.Category, value string) (domain.FilterState, error) {
	if err := validCategory(c); err != nil {
		return nil, err
	}
	return e.apply(ctx, func(s domain.FilterState) domain.FilterState {
		return Toggle(s, c, value)
	}), nil
}

// Set replaces the selection of category c.
func (e *Engine) Set(ctx context.Context, c domain.Category, values []string) (domain.FilterState, error) {
	if err := validCategory(c); err != nil {
		return nil, err
	}
	return e.apply(ctx, func(s domain.FilterState) domain.FilterState {
		next := s.Clone()
		next[c] = domain.NewTagSet(values...)
		return next
	}), nil
}

// Reset clears every category.
func (e *Engine) Reset(ctx context.Context) domain.FilterState {
	return e.apply(ctx, func(domain.FilterState) domain.FilterState {
		return domain.NewFilterState()
	})
}

// Subscribe calls fn with the new state after every mutation.
func (e *Engine) Subscribe(fn func(domain.FilterState)) func() {
	return e.bus.Subscribe(events.TopicFiltersChanged, func(_ context.Context, ev events.Event) {
		if fc, ok := ev.(events.FiltersChanged); ok {
			fn(fc.State.Clone())
		}
	})
}

func (e *Engine) apply(ctx context.Context, mutate func(domain.FilterState) domain.FilterState) domain.FilterState {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()

	e.mu.Lock()
	e.state = mutate(e.state)
	snapshot := e.state.Clone()
	e.mu.Unlock()

	if err := persist.Save(ctx, e.store, e.key, snapshot); err != nil {
		e.logger.Printf("filter engine: persist key=%s error=%v", e.key, err)
	}
	e.bus.Publish(ctx, events.FiltersChanged{State: snapshot.Clone()})
	return snapshot
}

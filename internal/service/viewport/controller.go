// Package viewport turns map movements, city jumps and search input into
// debounced listing fetches.
package viewport

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"producermap/internal/debounce"
	"producermap/internal/domain"
	"producermap/internal/events"
	"producermap/internal/geo"
	"producermap/internal/metrics"
	"producermap/internal/persist"
	"producermap/internal/service/listing"
)

const (
	DefaultDebounce = 200 * time.Millisecond
	DefaultZoom     = 6
)

type fetcher interface {
	FetchPage(ctx context.Context, req listing.Request) ([]domain.Listing, error)
}

type filterSource interface {
	State() domain.FilterState
}

// State is the viewport as last reported by the client.
type State struct {
	Coordinates *domain.LatLng      `json:"coordinates"`
	Bounds      *domain.BoundingBox `json:"bounds"`
	Zoom        int                 `json:"zoom"`
	IsAPILoaded bool                `json:"isApiLoaded"`
	Search      string              `json:"search,omitempty"`
}

// saved is the part of State that survives sessions.
type saved struct {
	Coordinates *domain.LatLng `json:"coordinates"`
	Zoom        int            `json:"zoom"`
}

type Controller struct {
	ctx       context.Context
	fetcher   fetcher
	filters   filterSource
	debouncer *debounce.Debouncer
	wait      time.Duration
	bus       *events.Bus
	store     persist.Store
	key       string
	logger    *log.Logger

	mu    sync.Mutex
	state State
}

type Option func(*Controller)

// WithDebounce sets the settle window. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.wait = d
		}
	}
}

func WithBus(b *events.Bus) Option {
	return func(c *Controller) { c.bus = b }
}

// WithStore persists coordinates and zoom at key.
func WithStore(s persist.Store, key string) Option {
	return func(c *Controller) {
		c.store = s
		c.key = key
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController wires a controller to the listing fetcher and the filter
// source. ctx bounds every fetch the controller fires in the background.
func NewController(ctx context.Context, f fetcher, filters filterSource, opts ...Option) *Controller {
	c := &Controller{
		ctx:     ctx,
		fetcher: f,
		filters: filters,
		wait:    DefaultDebounce,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debouncer = debounce.New(c.wait)
	restored := persist.Restore(ctx, c.store, c.key, saved{Zoom: DefaultZoom}, c.logger)
	if restored.Coordinates != nil && !restored.Coordinates.Valid() {
		restored.Coordinates = nil
	}
	c.state = State{Coordinates: restored.Coordinates, Zoom: restored.Zoom}
	return c
}

// Subscribe schedules a refetch with the current viewport after every
// filter change.
func (c *Controller) Subscribe(bus *events.Bus) func() {
	return bus.Subscribe(events.TopicFiltersChanged, func(context.Context, events.Event) {
		c.OnFiltersChanged()
	})
}

// OnViewportSettled records new map bounds and schedules a first-page
// fetch. Only the last call within the debounce window fetches.
func (c *Controller) OnViewportSettled(bounds domain.BoundingBox) error {
	if !bounds.Valid() {
		return fmt.Errorf("%w: invalid bounds", domain.ErrInvalidRequest)
	}
	center := bounds.Center()
	c.mu.Lock()
	c.state.Bounds = &bounds
	c.state.Coordinates = &center
	c.mu.Unlock()
	c.persist()
	c.schedule()
	return nil
}

// SetCenter moves the map to coords at zoom, e.g. after a city search.
// Explicit bounds are dropped until the map reports new ones, so the fetch
// uses the zoom-derived fallback box.
func (c *Controller) SetCenter(coords domain.LatLng, zoom int) error {
	if !coords.Valid() {
		return fmt.Errorf("%w: invalid coordinates", domain.ErrInvalidRequest)
	}
	if zoom < 0 || zoom > 22 {
		return fmt.Errorf("%w: zoom out of range: %d", domain.ErrInvalidRequest, zoom)
	}
	c.mu.Lock()
	c.state.Coordinates = &coords
	c.state.Zoom = zoom
	c.state.Bounds = nil
	c.mu.Unlock()
	c.persist()
	c.schedule()
	return nil
}

// OnSearchChanged debounces free-text search the same way as map moves.
func (c *Controller) OnSearchChanged(text string) {
	c.mu.Lock()
	c.state.Search = strings.TrimSpace(text)
	c.mu.Unlock()
	c.schedule()
}

// OnFiltersChanged schedules a refetch with the current bounds.
func (c *Controller) OnFiltersChanged() {
	c.schedule()
}

func (c *Controller) SetAPILoaded(loaded bool) {
	c.mu.Lock()
	c.state.IsAPILoaded = loaded
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.Coordinates != nil {
		coords := *s.Coordinates
		s.Coordinates = &coords
	}
	if s.Bounds != nil {
		b := *s.Bounds
		s.Bounds = &b
	}
	return s
}

// EffectiveBounds returns the map bounds, or a box derived from the
// coordinates and zoom when the map has not reported any. Nil means the
// fetch is unbounded.
func (c *Controller) EffectiveBounds() *domain.BoundingBox {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effectiveBoundsLocked()
}

func (c *Controller) effectiveBoundsLocked() *domain.BoundingBox {
	if c.state.Bounds != nil {
		b := *c.state.Bounds
		return &b
	}
	if c.state.Coordinates == nil {
		return nil
	}
	box, ok := geo.BoxAround(*c.state.Coordinates, c.state.Zoom)
	if !ok {
		return nil
	}
	return &box
}

// Pending reports whether a debounced fetch is waiting.
func (c *Controller) Pending() bool {
	return c.debouncer.Pending()
}

// Flush fires a pending fetch immediately on the caller's goroutine.
func (c *Controller) Flush() bool {
	return c.debouncer.Flush()
}

// Stop drops any pending fetch and ignores later input.
func (c *Controller) Stop() {
	c.debouncer.Stop()
}

func (c *Controller) schedule() {
	c.debouncer.Trigger(c.fire)
}

func (c *Controller) fire() {
	c.mu.Lock()
	bounds := c.effectiveBoundsLocked()
	search := c.state.Search
	c.mu.Unlock()

	filters := domain.NewFilterState()
	if c.filters != nil {
		filters = c.filters.State()
	}
	metrics.DebouncedFetches.Inc()
	if bounds != nil {
		c.bus.Publish(c.ctx, events.ViewportSettled{Bounds: *bounds})
	}
	if _, err := c.fetcher.FetchPage(c.ctx, listing.Request{Page: 1, Bounds: bounds, Filters: filters, Search: search}); err != nil {
		c.logger.Printf("viewport: fetch error=%v", err)
	}
}

func (c *Controller) persist() {
	c.mu.Lock()
	s := saved{Coordinates: c.state.Coordinates, Zoom: c.state.Zoom}
	c.mu.Unlock()
	if err := persist.Save(c.ctx, c.store, c.key, s); err != nil {
		c.logger.Printf("viewport: persist key=%s error=%v", c.key, err)
	}
}

// Package interaction tracks which listing is hovered or selected and which
// overlay is open.
package interaction

import (
	"context"
	"fmt"
	"sync"

	"producermap/internal/domain"
	"producermap/internal/events"
)

// Overlay names an open panel.
type Overlay string

const (
	OverlayNone    Overlay = ""
	OverlayListing Overlay = "listing"
	OverlayCart    Overlay = "cart"
	OverlayFilters Overlay = "filters"
)

func ParseOverlay(raw string) (Overlay, error) {
	switch o := Overlay(raw); o {
	case OverlayNone, OverlayListing, OverlayCart, OverlayFilters:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown overlay %q", domain.ErrInvalidRequest, raw)
	}
}

// Snapshot is a copy of the interaction state.
type Snapshot struct {
	HoveredID  *int64  `json:"hoveredId"`
	SelectedID *int64  `json:"selectedId"`
	Overlay    Overlay `json:"overlay"`
}

// State holds interaction state for one session. IDs that leave the
// filtered listing view are cleared.
type State struct {
	mu       sync.Mutex
	hovered  *int64
	selected *int64
	overlay  Overlay
	known    map[int64]struct{}
}

func New() *State {
	return &State{}
}

// Subscribe invalidates ids when the filtered view changes, drops the hover
// once the map settles elsewhere and closes the cart overlay when the cart
// empties.
func (s *State) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(events.TopicListingsChanged, func(_ context.Context, ev events.Event) {
			if lc, ok := ev.(events.ListingsChanged); ok {
				s.Retain(lc.FilteredIDs)
			}
		}),
		bus.Subscribe(events.TopicViewportSettled, func(context.Context, events.Event) {
			s.mu.Lock()
			s.hovered = nil
			s.mu.Unlock()
		}),
		bus.Subscribe(events.TopicCartChanged, func(_ context.Context, ev events.Event) {
			if cc, ok := ev.(events.CartChanged); ok && len(cc.Cart.Items) == 0 {
				s.mu.Lock()
				if s.overlay == OverlayCart {
					s.overlay = OverlayNone
				}
				s.mu.Unlock()
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Retain clears hovered/selected ids not in ids. Closing the listing
// overlay follows a cleared selection.
func (s *State) Retain(ids map[int64]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known = ids
	if s.hovered != nil && !s.knownLocked(*s.hovered) {
		s.hovered = nil
	}
	if s.selected != nil && !s.knownLocked(*s.selected) {
		s.selected = nil
		if s.overlay == OverlayListing {
			s.overlay = OverlayNone
		}
	}
}

func (s *State) knownLocked(id int64) bool {
	if s.known == nil {
		return true
	}
	_, ok := s.known[id]
	return ok
}

// Hover sets the hovered listing; nil clears it.
func (s *State) Hover(id *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != nil && !s.knownLocked(*id) {
		return domain.ErrNotFound
	}
	s.hovered = copyID(id)
	return nil
}

// Select sets the selected listing and opens its overlay; nil clears it.
func (s *State) Select(id *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == nil {
		s.selected = nil
		if s.overlay == OverlayListing {
			s.overlay = OverlayNone
		}
		return nil
	}
	if !s.knownLocked(*id) {
		return domain.ErrNotFound
	}
	s.selected = copyID(id)
	s.overlay = OverlayListing
	return nil
}

// Open shows an overlay. Opening the listing overlay requires a selection.
func (s *State) Open(o Overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o == OverlayListing && s.selected == nil {
		return fmt.Errorf("%w: no listing selected", domain.ErrInvalidRequest)
	}
	s.overlay = o
	return nil
}

func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = OverlayNone
}

func (s *State) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{HoveredID: copyID(s.hovered), SelectedID: copyID(s.selected), Overlay: s.overlay}
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

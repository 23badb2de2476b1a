// Package listing keeps the paginated, filtered and map-bounded view of
// vendor listings consistent with the inputs driving it.
package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"producermap/internal/domain"
	"producermap/internal/events"
	"producermap/internal/geo"
	"producermap/internal/metrics"
	"producermap/internal/notify"
	listingrepo "producermap/internal/repository/listing"
	"producermap/internal/repository/query"
	"producermap/internal/service/filter"
)

// DefaultPageSize is used when no page size option is given.
const DefaultPageSize = 20

const fetchFailedMessage = "Could not load producers. Please try again."

// Request describes one page fetch. Page is 1-based and forced to 1 when
// Append is false.
type Request struct {
	Page    int
	Append  bool
	Bounds  *domain.BoundingBox
	Filters domain.FilterState
	Search  string
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	All        []domain.Listing       `json:"all"`
	Filtered   []domain.Listing       `json:"filtered"`
	Visible    []domain.Listing       `json:"visible"`
	Pagination domain.PaginationState `json:"pagination"`
	Bounds     *domain.BoundingBox    `json:"bounds"`
	Filters    domain.FilterState     `json:"filters"`
	Search     string                 `json:"search,omitempty"`
}

// Store is the single source of truth for listings of one session.
// filtered and visible are recomputed under the same lock as every change
// to all, the filters or the bounds.
type Store struct {
	querier  query.Querier
	notifier notify.Notifier
	bus      *events.Bus
	logger   *log.Logger
	table    string
	pageSize int

	pubMu sync.Mutex

	mu         sync.Mutex
	all        []domain.Listing
	filtered   []domain.Listing
	visible    []domain.Listing
	pagination domain.PaginationState
	loaded     bool
	bounds     *domain.BoundingBox
	filters    domain.FilterState
	search     string
	seq        uint64
	cancel     context.CancelFunc
}

type Option func(*Store)

func WithPageSize(n int) Option {
	return func(s *Store) { s.pageSize = n }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithBus(b *events.Bus) Option {
	return func(s *Store) { s.bus = b }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTable overrides the queried table name.
func WithTable(name string) Option {
	return func(s *Store) { s.table = name }
}

// NewStore builds a store over querier. A non-positive page size is a
// programming error.
func NewStore(querier query.Querier, opts ...Option) (*Store, error) {
	s := &Store{
		querier:  querier,
		notifier: notify.Discard,
		logger:   log.New(io.Discard, "", 0),
		table:    listingrepo.Table,
		pageSize: DefaultPageSize,
		filters:  domain.NewFilterState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if querier == nil {
		return nil, fmt.Errorf("%w: listing store needs a querier", domain.ErrInvalidRequest)
	}
	if s.pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", domain.ErrInvalidRequest, s.pageSize)
	}
	s.pagination = domain.PaginationState{PageSize: s.pageSize, Page: 1, HasMore: true}
	return s, nil
}

// Subscribe attaches the store to a bus: filter changes recompute the
// derived views and reset pagination.
func (s *Store) Subscribe(bus *events.Bus) func() {
	return bus.Subscribe(events.TopicFiltersChanged, func(ctx context.Context, ev events.Event) {
		if fc, ok := ev.(events.FiltersChanged); ok {
			s.ApplyFilters(ctx, fc.State)
		}
	})
}

type fetch struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc
	req    Request
}

// FetchPage queries one page and merges it into the store. Data source
// failures are absorbed into state plus a notification; the returned error
// only reports a malformed request. The returned slice is the store's
// listing collection after the fetch.
func (s *Store) FetchPage(ctx context.Context, req Request) ([]domain.Listing, error) {
	if req.Page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrInvalidRequest, req.Page)
	}
	if !req.Append {
		req.Page = 1
	}
	s.mu.Lock()
	f := s.beginLocked(ctx, req)
	s.mu.Unlock()
	return s.run(f), nil
}

// LoadMore fetches the next page with the current bounds, filters and
// search. It is a no-op while loading or once the end has been reached.
func (s *Store) LoadMore(ctx context.Context) ([]domain.Listing, error) {
	s.mu.Lock()
	if s.pagination.IsLoading || !s.pagination.HasMore {
		all := clone(s.all)
		s.mu.Unlock()
		return all, nil
	}
	req := Request{
		Page:    s.pagination.Page + 1,
		Append:  true,
		Bounds:  s.bounds,
		Filters: s.filters.Clone(),
		Search:  s.search,
	}
	if !s.loaded {
		req.Page, req.Append = 1, false
	}
	f := s.beginLocked(ctx, req)
	s.mu.Unlock()
	return s.run(f), nil
}

// beginLocked registers a new in-flight request, superseding any pending
// one. Callers hold s.mu.
func (s *Store) beginLocked(ctx context.Context, req Request) fetch {
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	fctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.pagination.IsLoading = true
	return fetch{id: s.seq, ctx: fctx, cancel: cancel, req: req}
}

func (s *Store) run(f fetch) []domain.Listing {
	defer f.cancel()

	started := time.Now()
	res, err := s.querier.Query(f.ctx, s.buildQuery(f.req))
	metrics.ListingFetchDuration.Observe(time.Since(started).Seconds())

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()

	if f.id != s.seq {
		all := clone(s.all)
		s.mu.Unlock()
		metrics.ListingFetches.WithLabelValues(metrics.OutcomeStale).Inc()
		s.logger.Printf("listing store: discard stale request id=%d current=%d", f.id, s.seq)
		return all
	}
	s.cancel = nil
	s.pagination.IsLoading = false

	switch {
	case errors.Is(err, query.ErrRangeNotSatisfiable):
		s.pagination.HasMore = false
		metrics.ListingFetches.WithLabelValues(metrics.OutcomeEndOfData).Inc()
		s.logger.Printf("listing store: end of data page=%d", f.req.Page)
	case err != nil:
		canceled := errors.Is(err, context.Canceled) && f.ctx.Err() != nil
		if !canceled {
			s.pagination.HasMore = false
		}
		metrics.ListingFetches.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Printf("listing store: fetch page=%d error=%v", f.req.Page, err)
		if !canceled {
			s.notifier.Notify(notify.KindError, fetchFailedMessage)
		}
	default:
		s.mergeLocked(f.req, res)
		metrics.ListingFetches.WithLabelValues(metrics.OutcomeSuccess).Inc()
		s.logger.Printf("listing store: fetched page=%d rows=%d total=%d has_more=%t", f.req.Page, len(res.Rows), res.TotalCount, s.pagination.HasMore)
	}

	all := clone(s.all)
	ev := s.eventLocked()
	s.mu.Unlock()
	s.bus.Publish(f.ctx, ev)
	return all
}

func (s *Store) mergeLocked(req Request, res query.Result) {
	rows := make([]domain.Listing, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, Normalize(r))
	}
	if req.Append {
		index := make(map[int64]int, len(s.all))
		for i, l := range s.all {
			index[l.ID] = i
		}
		merged := clone(s.all)
		for _, l := range rows {
			if i, ok := index[l.ID]; ok {
				merged[i] = l
				continue
			}
			index[l.ID] = len(merged)
			merged = append(merged, l)
		}
		s.all = merged
	} else {
		s.all = rows
		s.bounds = cloneBounds(req.Bounds)
		s.filters = req.Filters.Clone()
		s.search = req.Search
	}
	s.loaded = true
	s.pagination.Page = req.Page
	s.pagination.TotalCount = res.TotalCount
	s.pagination.HasMore = len(res.Rows) == s.pageSize
	s.recomputeLocked()
}

// ApplyFilters swaps the filter state, recomputes the derived views and
// resets pagination so the next fetch starts from the first page. Any
// in-flight request is superseded.
func (s *Store) ApplyFilters(ctx context.Context, state domain.FilterState) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	s.supersedeLocked()
	s.filters = state.Clone()
	s.resetPaginationLocked()
	s.recomputeLocked()
	ev := s.eventLocked()
	s.mu.Unlock()
	s.bus.Publish(ctx, ev)
}

// SetAll replaces the collection with rows from a non-paginated load.
func (s *Store) SetAll(ctx context.Context, rows []query.Row) {
	listings := make([]domain.Listing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, Normalize(r))
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	s.supersedeLocked()
	s.all = listings
	s.loaded = true
	s.pagination.Page = 1
	s.pagination.TotalCount = len(listings)
	s.pagination.HasMore = false
	s.recomputeLocked()
	ev := s.eventLocked()
	s.mu.Unlock()
	s.bus.Publish(ctx, ev)
}

func (s *Store) supersedeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.pagination.IsLoading = false
}

func (s *Store) resetPaginationLocked() {
	s.pagination.Page = 1
	s.pagination.HasMore = true
	s.loaded = false
}

func (s *Store) recomputeLocked() {
	filtered := make([]domain.Listing, 0, len(s.all))
	for _, l := range s.all {
		if l.IsActive && filter.Matches(l, s.filters) {
			filtered = append(filtered, l)
		}
	}
	visible := filtered
	if s.bounds != nil {
		visible = make([]domain.Listing, 0, len(filtered))
		for _, l := range filtered {
			if geo.Contains(*s.bounds, l.Position) {
				visible = append(visible, l)
			}
		}
	}
	s.filtered = filtered
	s.visible = visible
}

func (s *Store) eventLocked() events.ListingsChanged {
	ids := make(map[int64]struct{}, len(s.filtered))
	for _, l := range s.filtered {
		ids[l.ID] = struct{}{}
	}
	return events.ListingsChanged{FilteredIDs: ids, Pagination: s.pagination}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		All:        clone(s.all),
		Filtered:   clone(s.filtered),
		Visible:    clone(s.visible),
		Pagination: s.pagination,
		Bounds:     cloneBounds(s.bounds),
		Filters:    s.filters.Clone(),
		Search:     s.search,
	}
}

// Pagination returns the current pagination state.
func (s *Store) Pagination() domain.PaginationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Listing looks up id in the filtered view.
func (s *Store) Listing(id int64) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.filtered {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Listing{}, domain.ErrNotFound
}

func (s *Store) buildQuery(req Request) query.Request {
	offset := (req.Page - 1) * s.pageSize
	preds := []query.Predicate{{Column: "is_active", Op: query.OpEq, Value: true}}
	if b := req.Bounds; b != nil {
		preds = append(preds,
			query.Predicate{Column: "lat", Op: query.OpGte, Value: b.SouthWest.Lat},
			query.Predicate{Column: "lat", Op: query.OpLte, Value: b.NorthEast.Lat},
			query.Predicate{Column: "lng", Op: query.OpGte, Value: b.SouthWest.Lng},
			query.Predicate{Column: "lng", Op: query.OpLte, Value: b.NorthEast.Lng},
		)
	}
	for _, c := range domain.Categories {
		if selected := req.Filters[c]; len(selected) > 0 {
			preds = append(preds, query.Predicate{Column: string(c), Op: query.OpOverlaps, Value: selected.Values()})
		}
	}
	if term := strings.TrimSpace(req.Search); term != "" {
		preds = append(preds, query.Predicate{Column: "name", Op: query.OpILike, Value: "%" + query.EscapeLike(term) + "%"})
	}
	return query.Request{
		Table:      s.table,
		Filters:    preds,
		RangeStart: offset,
		RangeEnd:   offset + s.pageSize - 1,
		OrderBy:    "id",
	}
}

func clone(in []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, len(in))
	copy(out, in)
	return out
}

func cloneBounds(b *domain.BoundingBox) *domain.BoundingBox {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

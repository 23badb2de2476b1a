// Package session bundles the engines one client drives and keeps them
// isolated from other clients.
package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"producermap/internal/domain"
	"producermap/internal/events"
	"producermap/internal/metrics"
	"producermap/internal/notify"
	"producermap/internal/persist"
	"producermap/internal/repository/query"
	"producermap/internal/service/cart"
	"producermap/internal/service/filter"
	"producermap/internal/service/interaction"
	"producermap/internal/service/listing"
	"producermap/internal/service/viewport"
)

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// Session is the engine set of one client.
type Session struct {
	ID          string
	Bus         *events.Bus
	Filters     *filter.Engine
	Listings    *listing.Store
	Viewport    *viewport.Controller
	Interaction *interaction.State
	Cart        *cart.Service
	Inbox       *notify.Inbox

	cancel   context.CancelFunc
	unsubs   []func()
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close stops background work. Persisted state is kept.
func (s *Session) close() {
	s.Viewport.Stop()
	for _, u := range s.unsubs {
		u()
	}
	s.cancel()
}

// Options configures the engines of every session.
type Options struct {
	Querier   query.Querier
	Products  productRepo
	Store     persist.Store
	Namespace string
	PageSize  int
	Debounce  time.Duration
	Notifier  notify.Notifier
	Logger    *log.Logger
	// Limit caps live sessions; the least recently used is closed first.
	Limit     int
	InboxSize int
}

type Manager struct {
	opts Options
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Querier == nil {
		return nil, fmt.Errorf("%w: session manager needs a querier", domain.ErrInvalidRequest)
	}
	if opts.PageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", domain.ErrInvalidRequest, opts.PageSize)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Namespace == "" {
		opts.Namespace = "producermap"
	}
	return &Manager{opts: opts, now: time.Now, sessions: make(map[string]*Session)}, nil
}

// Create starts a session with a fresh id.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	return m.Open(ctx, uuid.NewString())
}

// Open returns the live session for id, or rebuilds it from persisted
// state. ids must be UUIDs.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session id", domain.ErrInvalidRequest)
	}
	id = parsed.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.touch(m.now())
		return s, nil
	}
	s, err := m.build(ctx, id)
	if err != nil {
		return nil, err
	}
	m.evictLocked()
	m.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.opts.Logger.Printf("session manager: opened id=%s live=%d", id, len(m.sessions))
	return s, nil
}

// Get returns a live session without restoring.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Close stops a live session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if ok {
		s.close()
		metrics.ActiveSessions.Set(float64(n))
	}
}

// CloseAll stops every live session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.close()
	}
	metrics.ActiveSessions.Set(0)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) evictLocked() {
	if m.opts.Limit <= 0 || len(m.sessions) < m.opts.Limit {
		return
	}
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].seen().Before(live[j].seen()) })
	for _, s := range live[:len(live)-m.opts.Limit+1] {
		delete(m.sessions, s.ID)
		s.close()
		m.opts.Logger.Printf("session manager: evicted id=%s", s.ID)
	}
}

func (m *Manager) build(ctx context.Context, id string) (*Session, error) {
	base, cancel := context.WithCancel(context.Background())
	key := func(part string) string { return persist.Key(m.opts.Namespace, id, part) }
	logger := m.opts.Logger

	bus := events.NewBus()
	inbox := notify.NewInbox(m.opts.InboxSize)
	notifier := notify.Multi(inbox, notify.ForSession(m.opts.Notifier, id))

	filters := filter.NewEngine(ctx,
		filter.WithBus(bus),
		filter.WithStore(m.opts.Store, key("filters")),
		filter.WithLogger(logger),
	)
	store, err := listing.NewStore(m.opts.Querier,
		listing.WithPageSize(m.opts.PageSize),
		listing.WithNotifier(notifier),
		listing.WithBus(bus),
		listing.WithLogger(logger),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	vp := viewport.NewController(base, store, filters,
		viewport.WithDebounce(m.opts.Debounce),
		viewport.WithBus(bus),
		viewport.WithStore(m.opts.Store, key("viewport")),
		viewport.WithLogger(logger),
	)
	inter := interaction.New()
	engine := cart.NewEngine(ctx,
		cart.WithNotifier(notifier),
		cart.WithBus(bus),
		cart.WithStore(m.opts.Store, key("cart")),
		cart.WithLogger(logger),
	)

	s := &Session{
		ID:          id,
		Bus:         bus,
		Filters:     filters,
		Listings:    store,
		Viewport:    vp,
		Interaction: inter,
		Cart:        cart.NewService(engine, m.opts.Products),
		Inbox:       inbox,
		cancel:      cancel,
		lastSeen:    m.now(),
	}
	// store first: derived views are recomputed before the refetch is scheduled
	s.unsubs = append(s.unsubs,
		store.Subscribe(bus),
		vp.Subscribe(bus),
		inter.Subscribe(bus),
	)
	store.ApplyFilters(ctx, filters.State())
	return s, nil
}

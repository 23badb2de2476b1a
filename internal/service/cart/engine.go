// Package cart manages a cart bound to at most one vendor at a time.
package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"producermap/internal/domain"
	"producermap/internal/events"
	"producermap/internal/metrics"
	"producermap/internal/notify"
	"producermap/internal/persist"
)

// Engine owns one session's cart. The single-vendor rule is checked at
// every mutation so a violating cart is never observable.
type Engine struct {
	notifier notify.Notifier
	bus      *events.Bus
	store    persist.Store
	key      string
	logger   *log.Logger

	pubMu sync.Mutex

	mu   sync.Mutex
	cart domain.Cart
}

type Option func(*Engine)

func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func WithBus(b *events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithStore persists the cart at key.
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

// NewEngine restores a persisted cart, discarding anything that breaks the
// cart rules, or starts empty.
func NewEngine(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{notifier: notify.Discard, logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(e)
	}
	e.cart = sanitize(persist.Restore(ctx, e.store, e.key, domain.Cart{}, e.logger))
	return e
}

// MaxLineQuantity caps the quantity of a single line.
const MaxLineQuantity = 999

// ErrVendorConflict reports an add rejected by the single-vendor rule.
var ErrVendorConflict = errors.New("cart holds another vendor's products")

// AddItem adds quantity of product. It is a no-op returning false when the
// cart holds another vendor's items or the quantity is out of range.
func (e *Engine) AddItem(ctx context.Context, p domain.Product, quantity int) bool {
	return e.Add(ctx, p, quantity) == nil
}

// Add is AddItem reporting why an add was rejected: ErrVendorConflict, or
// ErrInvalidRequest when the line would leave 1..MaxLineQuantity.
func (e *Engine) Add(ctx context.Context, p domain.Product, quantity int) error {
	if quantity <= 0 || quantity > MaxLineQuantity {
		e.logger.Printf("cart engine: add product_id=%d rejected quantity=%d", p.ID, quantity)
		return fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrInvalidRequest, MaxLineQuantity)
	}
	var (
		rejectedFor string
		reason      error
	)
	ok := e.mutate(ctx, func(c *domain.Cart) bool {
		if c.VendorID != nil && *c.VendorID != p.VendorID && len(c.Items) > 0 {
			if c.VendorName != nil {
				rejectedFor = *c.VendorName
			}
			reason = ErrVendorConflict
			return false
		}
		for i := range c.Items {
			if c.Items[i].Product.ID == p.ID {
				if c.Items[i].Quantity+quantity > MaxLineQuantity {
					reason = fmt.Errorf("%w: at most %d of one product per cart", domain.ErrInvalidRequest, MaxLineQuantity)
					return false
				}
				c.Items[i].Quantity += quantity
				return true
			}
		}
		if c.VendorID == nil || len(c.Items) == 0 {
			id, name := p.VendorID, p.VendorName
			c.VendorID, c.VendorName = &id, &name
		}
		c.Items = append(c.Items, domain.CartItem{Product: p, Quantity: quantity})
		return true
	})
	if !ok {
		if errors.Is(reason, ErrVendorConflict) {
			metrics.CartRejections.Inc()
			e.logger.Printf("cart engine: add product_id=%d vendor_id=%d rejected, cart bound to %q", p.ID, p.VendorID, rejectedFor)
			e.notifier.Notify(notify.KindError, fmt.Sprintf("Your cart already holds products from %s. Empty it before ordering from another producer.", vendorLabel(rejectedFor)))
		} else {
			e.logger.Printf("cart engine: add product_id=%d rejected quantity=%d over line limit", p.ID, quantity)
			e.notifier.Notify(notify.KindError, fmt.Sprintf("You can order at most %d of %s.", MaxLineQuantity, p.Name))
		}
		return reason
	}
	e.notifier.Notify(notify.KindSuccess, fmt.Sprintf("%s added to cart", p.Name))
	return nil
}

// SetQuantity sets the quantity of a line; quantity <= 0 removes it.
// Quantities above MaxLineQuantity are rejected and leave the line as is.
func (e *Engine) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		e.RemoveItem(ctx, productID)
		return nil
	}
	if quantity > MaxLineQuantity {
		return fmt.Errorf("%w: quantity must be at most %d", domain.ErrInvalidRequest, MaxLineQuantity)
	}
	e.mutate(ctx, func(c *domain.Cart) bool {
		for i := range c.Items {
			if c.Items[i].Product.ID == productID {
				c.Items[i].Quantity = quantity
				return true
			}
		}
		return false
	})
	return nil
}

// RemoveItem drops a line. Removing the last line unbinds the vendor.
func (e *Engine) RemoveItem(ctx context.Context, productID int64) {
	e.mutate(ctx, func(c *domain.Cart) bool {
		for i := range c.Items {
			if c.Items[i].Product.ID == productID {
				c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SetDeliveryMode records the chosen mode. Whether the vendor offers it is
// the caller's concern.
func (e *Engine) SetDeliveryMode(ctx context.Context, mode domain.DeliveryMode) error {
	if _, ok := domain.ParseDeliveryMode(string(mode)); !ok {
		return fmt.Errorf("%w: unknown delivery mode %q", domain.ErrInvalidRequest, mode)
	}
	e.mutate(ctx, func(c *domain.Cart) bool {
		if c.DeliveryMode == mode {
			return false
		}
		c.DeliveryMode = mode
		return true
	})
	return nil
}

// Clear empties the cart.
func (e *Engine) Clear(ctx context.Context) {
	e.mutate(ctx, func(c *domain.Cart) bool {
		*c = domain.Cart{}
		return true
	})
}

// CanAddToCart reports whether vendorID's products may be added.
func (e *Engine) CanAddToCart(vendorID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.VendorID == nil || *e.cart.VendorID == vendorID
}

func (e *Engine) TotalItems() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return TotalItems(e.cart)
}

// TotalPrice is the cart total in cents.
func (e *Engine) TotalPrice() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return TotalPrice(e.cart)
}

func (e *Engine) Snapshot() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Clone()
}

func TotalItems(c domain.Cart) int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func TotalPrice(c domain.Cart) int64 {
	var total int64
	for _, it := range c.Items {
		total += it.Product.PriceCents * int64(it.Quantity)
	}
	return total
}

// mutate applies fn under the lock; fn reports whether it changed the cart.
// The empty-cart reset runs after every change.
func (e *Engine) mutate(ctx context.Context, fn func(*domain.Cart) bool) bool {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()

	e.mu.Lock()
	next := e.cart.Clone()
	if !fn(&next) {
		e.mu.Unlock()
		return false
	}
	if len(next.Items) == 0 {
		next.VendorID = nil
		next.VendorName = nil
		next.Items = nil
	}
	e.cart = next
	snapshot := next.Clone()
	e.mu.Unlock()

	// An empty cart with no mode is the initial state; nothing to keep.
	var err error
	if len(snapshot.Items) == 0 && snapshot.DeliveryMode == domain.DeliveryNone {
		err = persist.Delete(ctx, e.store, e.key)
	} else {
		err = persist.Save(ctx, e.store, e.key, snapshot)
	}
	if err != nil {
		e.logger.Printf("cart engine: persist key=%s error=%v", e.key, err)
	}
	e.bus.Publish(ctx, events.CartChanged{Cart: snapshot})
	return true
}

// sanitize enforces the cart rules on restored data.
func sanitize(c domain.Cart) domain.Cart {
	if _, ok := domain.ParseDeliveryMode(string(c.DeliveryMode)); !ok {
		c.DeliveryMode = domain.DeliveryNone
	}
	if c.VendorID == nil {
		return domain.Cart{DeliveryMode: c.DeliveryMode}
	}
	items := make([]domain.CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Quantity >= 1 && it.Quantity <= MaxLineQuantity && it.Product.VendorID == *c.VendorID {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return domain.Cart{DeliveryMode: c.DeliveryMode}
	}
	c.Items = items
	return c.Clone()
}

func vendorLabel(name string) string {
	if name == "" {
		return "another producer"
	}
	return name
}

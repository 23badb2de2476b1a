package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"producermap/internal/domain"
)

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// Service applies batches of client actions to an engine, resolving
// product ids through the product repository.
type Service struct {
	engine   *Engine
	products productRepo
}

func NewService(engine *Engine, products productRepo) *Service {
	return &Service{engine: engine, products: products}
}

func (s *Service) Engine() *Engine { return s.engine }

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

type UpdateAction struct {
	Action       string `json:"action"`
	ProductID    int64  `json:"productId,omitempty"`
	Quantity     int    `json:"quantity,omitempty"`
	DeliveryMode string `json:"deliveryMode,omitempty"`
}

// Update runs actions in order and stops at the first failure. Actions
// already applied stay applied.
func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.Cart, error) {
	if len(in.Actions) == 0 {
		return domain.Cart{}, fmt.Errorf("%w: actions required", domain.ErrInvalidRequest)
	}
	for _, action := range in.Actions {
		switch strings.ToLower(strings.TrimSpace(action.Action)) {
		case "additem":
			if action.Quantity <= 0 || action.Quantity > MaxLineQuantity {
				return s.engine.Snapshot(), fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrInvalidRequest, MaxLineQuantity)
			}
			if s.products == nil {
				return s.engine.Snapshot(), errors.New("product lookup not configured")
			}
			p, err := s.products.GetByID(ctx, action.ProductID)
			if err != nil {
				return s.engine.Snapshot(), err
			}
			if err := s.engine.Add(ctx, *p, action.Quantity); err != nil {
				return s.engine.Snapshot(), err
			}
		case "setquantity":
			if err := s.engine.SetQuantity(ctx, action.ProductID, action.Quantity); err != nil {
				return s.engine.Snapshot(), err
			}
		case "removeitem":
			s.engine.RemoveItem(ctx, action.ProductID)
		case "setdeliverymode":
			mode, ok := domain.ParseDeliveryMode(action.DeliveryMode)
			if !ok {
				return s.engine.Snapshot(), fmt.Errorf("%w: unknown delivery mode %q", domain.ErrInvalidRequest, action.DeliveryMode)
			}
			if err := s.engine.SetDeliveryMode(ctx, mode); err != nil {
				return s.engine.Snapshot(), err
			}
		case "clear":
			s.engine.Clear(ctx)
		default:
			return s.engine.Snapshot(), fmt.Errorf("%w: unsupported action %q", domain.ErrInvalidRequest, action.Action)
		}
	}
	return s.engine.Snapshot(), nil
}

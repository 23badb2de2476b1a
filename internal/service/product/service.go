package product

import (
	"context"
	"fmt"

	"producermap/internal/domain"
)

type repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	ListByVendor(ctx context.Context, vendorID int64) ([]domain.Product, error)
}

// Service is the read side of the product catalog used by the cart and
// the vendor product listing.
type Service struct {
	repo repository
}

func New(repo repository) *Service {
	return &Service{repo: repo}
}

// ListByVendor returns the vendor's products ordered by id; unknown vendors
// yield an empty list.
func (s *Service) ListByVendor(ctx context.Context, vendorID int64) ([]domain.Product, error) {
	if vendorID <= 0 {
		return nil, fmt.Errorf("%w: vendor id must be positive", domain.ErrInvalidRequest)
	}
	products, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// GetByID resolves a product. Products with a negative price or no vendor
// cannot be sold and are reported as not found.
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: product id must be positive", domain.ErrInvalidRequest)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.VendorID <= 0 || p.PriceCents < 0 {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

package product

import (
	"context"

	"producermap/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	ListByVendor(ctx context.Context, vendorID int64) ([]domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) error
}

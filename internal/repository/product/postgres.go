package product

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"producermap/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `
SELECT p.id, p.listing_id, l.name, p.name, p.price_cents, p.unit
FROM products p
JOIN listings l ON l.id = p.listing_id
WHERE p.id = $1
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.VendorID, &p.VendorName, &p.Name, &p.PriceCents, &p.Unit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%d not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%d error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) ListByVendor(ctx context.Context, vendorID int64) ([]domain.Product, error) {
	const q = `
SELECT p.id, p.listing_id, l.name, p.name, p.price_cents, p.unit
FROM products p
JOIN listings l ON l.id = p.listing_id
WHERE p.listing_id = $1
ORDER BY p.id
`
	rows, err := r.pool.Query(ctx, q, vendorID)
	if err != nil {
		r.logger.Printf("product repo: list vendor_id=%d error=%v", vendorID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.VendorID, &p.VendorName, &p.Name, &p.PriceCents, &p.Unit); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows vendor_id=%d error=%v", vendorID, err)
		return nil, err
	}
	r.logger.Printf("product repo: list vendor_id=%d count=%d", vendorID, len(result))
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) error {
	const q = `
INSERT INTO products (id, listing_id, name, price_cents, unit)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    listing_id = EXCLUDED.listing_id,
    name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    unit = EXCLUDED.unit
`
	if _, err := r.pool.Exec(ctx, q, p.ID, p.VendorID, p.Name, p.PriceCents, p.Unit); err != nil {
		r.logger.Printf("product repo: upsert id=%d vendor_id=%d error=%v", p.ID, p.VendorID, err)
		return err
	}
	r.logger.Printf("product repo: upserted id=%d vendor_id=%d", p.ID, p.VendorID)
	return nil
}

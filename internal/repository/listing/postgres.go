package listing

import (
	"context"
	"io"
	"log"

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

func (r *postgresRepo) Upsert(ctx context.Context, l domain.Listing) error {
	const q = `
INSERT INTO listings (id, name, lat, lng, product_type, certification, purchase_mode, production_method, additional_service, availability, images, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    lat = EXCLUDED.lat,
    lng = EXCLUDED.lng,
    product_type = EXCLUDED.product_type,
    certification = EXCLUDED.certification,
    purchase_mode = EXCLUDED.purchase_mode,
    production_method = EXCLUDED.production_method,
    additional_service = EXCLUDED.additional_service,
    availability = EXCLUDED.availability,
    images = EXCLUDED.images,
    is_active = EXCLUDED.is_active
`
	images := l.Images
	if images == nil {
		images = []string{}
	}
	_, err := r.pool.Exec(ctx, q,
		l.ID,
		l.Name,
		l.Position.Lat,
		l.Position.Lng,
		l.TagsFor(domain.CategoryProductType).Values(),
		l.TagsFor(domain.CategoryCertification).Values(),
		l.TagsFor(domain.CategoryPurchaseMode).Values(),
		l.TagsFor(domain.CategoryProductionMethod).Values(),
		l.TagsFor(domain.CategoryAdditionalService).Values(),
		l.TagsFor(domain.CategoryAvailability).Values(),
		images,
		l.IsActive,
	)
	if err != nil {
		r.logger.Printf("listing repo: upsert id=%d error=%v", l.ID, err)
		return err
	}
	r.logger.Printf("listing repo: upserted id=%d name=%s", l.ID, l.Name)
	return nil
}

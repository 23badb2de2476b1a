package listing

import (
	"context"

	"producermap/internal/domain"
	"producermap/internal/repository/query"
)

// Table is the paged-query table holding listings.
const Table = "listings"

// Repository writes listings. Reads go through query.Querier.
type Repository interface {
	Upsert(ctx context.Context, l domain.Listing) error
}

// Row renders a listing in the column layout of the listings table.
func Row(l domain.Listing) query.Row {
	row := query.Row{
		"id":        l.ID,
		"name":      l.Name,
		"lat":       l.Position.Lat,
		"lng":       l.Position.Lng,
		"images":    append([]string{}, l.Images...),
		"is_active": l.IsActive,
	}
	for _, c := range domain.Categories {
		row[string(c)] = l.TagsFor(c).Values()
	}
	return row
}

type memoryRepo struct {
	mem *query.Memory
}

// NewMemory writes listings into an in-process query table.
func NewMemory(mem *query.Memory) Repository {
	return &memoryRepo{mem: mem}
}

func (r *memoryRepo) Upsert(_ context.Context, l domain.Listing) error {
	r.mem.Upsert(Table, "id", Row(l))
	return nil
}

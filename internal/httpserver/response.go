package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"producermap/internal/domain"
	"producermap/internal/service/cart"
	"producermap/internal/service/listing"
)

// writeError maps domain errors to status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrVendorConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// listingView is the wire form of a listing. Normalization can leave NaN
// coordinates, which JSON cannot carry, so the position becomes null.
type listingView struct {
	ID       int64                             `json:"id"`
	Name     string                            `json:"name"`
	Position *domain.LatLng                    `json:"position"`
	Tags     map[domain.Category]domain.TagSet `json:"tags"`
	Images   []string                          `json:"images"`
	IsActive bool                              `json:"isActive"`
}

func toListingView(l domain.Listing) listingView {
	v := listingView{ID: l.ID, Name: l.Name, Tags: l.Tags, Images: l.Images, IsActive: l.IsActive}
	if l.Position.Valid() {
		p := l.Position
		v.Position = &p
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	return v
}

func toListingViews(in []domain.Listing) []listingView {
	out := make([]listingView, 0, len(in))
	for _, l := range in {
		out = append(out, toListingView(l))
	}
	return out
}

type listingsResponse struct {
	Listings      []listingView          `json:"listings"`
	VisibleCount  int                    `json:"visibleCount"`
	FilteredCount int                    `json:"filteredCount"`
	LoadedCount   int                    `json:"loadedCount"`
	Pagination    domain.PaginationState `json:"pagination"`
	Bounds        *domain.BoundingBox    `json:"bounds"`
	Filters       domain.FilterState     `json:"filters"`
}

// toListingsResponse renders the view named by scope: visible (default),
// filtered or all.
func toListingsResponse(s listing.Snapshot, scope string) listingsResponse {
	rows := s.Visible
	switch scope {
	case "filtered":
		rows = s.Filtered
	case "all":
		rows = s.All
	}
	return listingsResponse{
		Listings:      toListingViews(rows),
		VisibleCount:  len(s.Visible),
		FilteredCount: len(s.Filtered),
		LoadedCount:   len(s.All),
		Pagination:    s.Pagination,
		Bounds:        s.Bounds,
		Filters:       s.Filters,
	}
}

type cartResponse struct {
	Cart       domain.Cart `json:"cart"`
	TotalItems int         `json:"totalItems"`
	TotalPrice int64       `json:"totalPriceCents"`
}

func toCartResponse(c domain.Cart) cartResponse {
	return cartResponse{Cart: c, TotalItems: cart.TotalItems(c), TotalPrice: cart.TotalPrice(c)}
}

package httpserver

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"producermap/internal/domain"
	"producermap/internal/service/cart"
	"producermap/internal/service/filter"
	"producermap/internal/service/interaction"
	"producermap/internal/service/listing"
	"producermap/internal/session"
)

type handlers struct {
	sessions *session.Manager
	products productLister
	logger   *log.Logger
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (h *handlers) createSession(c *gin.Context) {
	s, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		h.logger.Printf("http: create session error=%v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": s.ID})
}

func (h *handlers) getSession(c *gin.Context) {
	s := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"id":          s.ID,
		"filters":     s.Filters.State(),
		"viewport":    s.Viewport.State(),
		"interaction": s.Interaction.Get(),
		"cart":        toCartResponse(s.Cart.Engine().Snapshot()),
		"pagination":  s.Listings.Pagination(),
	})
}

func (h *handlers) closeSession(c *gin.Context) {
	h.sessions.Close(sessionFrom(c).ID)
	c.Status(http.StatusNoContent)
}

func (h *handlers) listProducts(c *gin.Context) {
	if h.products == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "products not configured"})
		return
	}
	vendorID, err := strconv.ParseInt(c.Query("vendorId"), 10, 64)
	if err != nil {
		badRequest(c, "vendorId query parameter required")
		return
	}
	products, err := h.products.ListByVendor(c.Request.Context(), vendorID)
	if err != nil {
		writeError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}

// listings

func (h *handlers) getListings(c *gin.Context) {
	c.JSON(http.StatusOK, toListingsResponse(sessionFrom(c).Listings.Snapshot(), c.Query("scope")))
}

func (h *handlers) getListing(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("listingID"), 10, 64)
	if err != nil {
		badRequest(c, "invalid listing id")
		return
	}
	l, err := sessionFrom(c).Listings.Listing(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingView(l))
}

type fetchRequest struct {
	Page   int                 `json:"page"`
	Append bool                `json:"append"`
	Bounds *domain.BoundingBox `json:"bounds"`
	// UseViewport fetches with the viewport's effective bounds when Bounds
	// is absent.
	UseViewport bool    `json:"useViewport"`
	Search      *string `json:"search"`
}

func (h *handlers) fetchListings(c *gin.Context) {
	s := sessionFrom(c)
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid body")
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Bounds != nil && !req.Bounds.Valid() {
		badRequest(c, "invalid bounds")
		return
	}
	bounds := req.Bounds
	if bounds == nil && req.UseViewport {
		bounds = s.Viewport.EffectiveBounds()
	}
	search := s.Viewport.State().Search
	if req.Search != nil {
		search = *req.Search
	}
	if _, err := s.Listings.FetchPage(c.Request.Context(), listing.Request{
		Page:    req.Page,
		Append:  req.Append,
		Bounds:  bounds,
		Filters: s.Filters.State(),
		Search:  search,
	}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingsResponse(s.Listings.Snapshot(), c.Query("scope")))
}

func (h *handlers) loadMore(c *gin.Context) {
	s := sessionFrom(c)
	if _, err := s.Listings.LoadMore(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingsResponse(s.Listings.Snapshot(), c.Query("scope")))
}

// filters

func (h *handlers) getFilters(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).Filters.State())
}

// getFacets counts tag values over the loaded listings.
func (h *handlers) getFacets(c *gin.Context) {
	s := sessionFrom(c)
	c.JSON(http.StatusOK, filter.Facets(s.Listings.Snapshot().All, s.Filters.State()))
}

type toggleRequest struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

func (h *handlers) toggleFilter(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Value) == "" {
		badRequest(c, "category and value required")
		return
	}
	cat, err := domain.ParseCategory(req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := sessionFrom(c).Filters.Toggle(c.Request.Context(), cat, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type setFilterRequest struct {
	Values []string `json:"values"`
}

func (h *handlers) setFilter(c *gin.Context) {
	cat, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req setFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	state, err := sessionFrom(c).Filters.Set(c.Request.Context(), cat, req.Values)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) resetFilters(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).Filters.Reset(c.Request.Context()))
}

// viewport

func (h *handlers) getViewport(c *gin.Context) {
	s := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"state":           s.Viewport.State(),
		"effectiveBounds": s.Viewport.EffectiveBounds(),
		"pending":         s.Viewport.Pending(),
	})
}

type settleRequest struct {
	Bounds domain.BoundingBox `json:"bounds"`
}

func (h *handlers) settleViewport(c *gin.Context) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	s := sessionFrom(c)
	if err := s.Viewport.OnViewportSettled(req.Bounds); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.Viewport.State())
}

type centerRequest struct {
	Coordinates domain.LatLng `json:"coordinates"`
	Zoom        *int          `json:"zoom"`
}

func (h *handlers) centerViewport(c *gin.Context) {
	var req centerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	s := sessionFrom(c)
	zoom := s.Viewport.State().Zoom
	if req.Zoom != nil {
		zoom = *req.Zoom
	}
	if err := s.Viewport.SetCenter(req.Coordinates, zoom); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.Viewport.State())
}

type searchRequest struct {
	Text string `json:"text"`
}

func (h *handlers) searchViewport(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	s := sessionFrom(c)
	s.Viewport.OnSearchChanged(req.Text)
	c.JSON(http.StatusAccepted, s.Viewport.State())
}

// flushViewport runs a pending debounced fetch now and returns the result.
func (h *handlers) flushViewport(c *gin.Context) {
	s := sessionFrom(c)
	flushed := s.Viewport.Flush()
	resp := toListingsResponse(s.Listings.Snapshot(), c.Query("scope"))
	c.JSON(http.StatusOK, gin.H{"flushed": flushed, "listings": resp})
}

type apiLoadedRequest struct {
	Loaded bool `json:"loaded"`
}

func (h *handlers) setAPILoaded(c *gin.Context) {
	var req apiLoadedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	s := sessionFrom(c)
	s.Viewport.SetAPILoaded(req.Loaded)
	c.JSON(http.StatusOK, s.Viewport.State())
}

// interaction

func (h *handlers) getInteraction(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).Interaction.Get())
}

type idRequest struct {
	ID *int64 `json:"id"`
}

func (h *handlers) hover(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	s := sessionFrom(c)
	if err := s.Interaction.Hover(req.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Interaction.Get())
}

func (h *handlers) selectListing(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	s := sessionFrom(c)
	if err := s.Interaction.Select(req.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Interaction.Get())
}

type overlayRequest struct {
	Overlay string `json:"overlay"`
}

func (h *handlers) openOverlay(c *gin.Context) {
	var req overlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	o, err := interaction.ParseOverlay(req.Overlay)
	if err != nil {
		writeError(c, err)
		return
	}
	s := sessionFrom(c)
	if err := s.Interaction.Open(o); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Interaction.Get())
}

func (h *handlers) closeOverlay(c *gin.Context) {
	s := sessionFrom(c)
	s.Interaction.Close()
	c.JSON(http.StatusOK, s.Interaction.Get())
}

// cart

func (h *handlers) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, toCartResponse(sessionFrom(c).Cart.Engine().Snapshot()))
}

func (h *handlers) updateCart(c *gin.Context) {
	var req cart.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	updated, err := sessionFrom(c).Cart.Update(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, cart.ErrVendorConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "cart": toCartResponse(updated)})
			return
		}
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidRequest) {
			h.logger.Printf("http: cart update error=%v", err)
		}
		writeError(c, fmt.Errorf("cart update: %w", err))
		return
	}
	c.JSON(http.StatusOK, toCartResponse(updated))
}

// notifications

func (h *handlers) drainNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": sessionFrom(c).Inbox.Drain()})
}

package httpserver

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"producermap/internal/domain"
	"producermap/internal/metrics"
	"producermap/internal/session"
)

// productLister is satisfied by the product catalog service.
type productLister interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	ListByVendor(ctx context.Context, vendorID int64) ([]domain.Product, error)
}

// Deps are the collaborators the router exposes.
type Deps struct {
	Sessions    *session.Manager
	Products    productLister
	CORSOrigins []string
	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit float64
	RateBurst int
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil {
		return nil, errors.New("httpserver: session manager required")
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	if deps.RateLimit > 0 {
		router.Use(newIPRateLimiter(rate.Limit(deps.RateLimit), deps.RateBurst, logger).middleware())
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := &handlers{sessions: deps.Sessions, products: deps.Products, logger: logger}
	router.GET("/products", h.listProducts)
	router.POST("/sessions", h.createSession)

	s := router.Group("/sessions/:sessionID", sessionMiddleware(deps.Sessions))
	s.GET("", h.getSession)
	s.DELETE("", h.closeSession)

	s.GET("/listings", h.getListings)
	s.GET("/listings/:listingID", h.getListing)
	s.POST("/listings/fetch", h.fetchListings)
	s.POST("/listings/more", h.loadMore)

	s.GET("/filters", h.getFilters)
	s.GET("/filters/facets", h.getFacets)
	s.POST("/filters/toggle", h.toggleFilter)
	s.PUT("/filters/:category", h.setFilter)
	s.DELETE("/filters", h.resetFilters)

	s.GET("/viewport", h.getViewport)
	s.POST("/viewport/settle", h.settleViewport)
	s.POST("/viewport/center", h.centerViewport)
	s.POST("/viewport/search", h.searchViewport)
	s.POST("/viewport/flush", h.flushViewport)
	s.PUT("/viewport/api-loaded", h.setAPILoaded)

	s.GET("/interaction", h.getInteraction)
	s.PUT("/interaction/hover", h.hover)
	s.PUT("/interaction/select", h.selectListing)
	s.PUT("/interaction/overlay", h.openOverlay)
	s.DELETE("/interaction/overlay", h.closeOverlay)

	s.GET("/cart", h.getCart)
	s.POST("/cart", h.updateCart)

	s.GET("/notifications", h.drainNotifications)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

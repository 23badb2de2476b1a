package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"producermap/internal/domain"
	"producermap/internal/session"
)

type ctxKey string

const sessionCtxKey ctxKey = "session"

type sessionOpener interface {
	Open(ctx context.Context, id string) (*session.Session, error)
}

// sessionMiddleware resolves :sessionID, restoring persisted state for
// sessions that are not live.
func sessionMiddleware(sessions sessionOpener) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("sessionID"))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "session id required"})
			return
		}
		s, err := sessions.Open(c.Request.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidRequest):
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			case errors.Is(err, domain.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to open session"})
			}
			return
		}
		ctx := context.WithValue(c.Request.Context(), sessionCtxKey, s)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	s, _ := c.Request.Context().Value(sessionCtxKey).(*session.Session)
	return s
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	logger   *log.Logger
}

func newIPRateLimiter(r rate.Limit, burst int, logger *log.Logger) *ipRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{rate: r, burst: burst, logger: logger}
}

func (i *ipRateLimiter) limiter(ip string) *rate.Limiter {
	if l, ok := i.limiters.Load(ip); ok {
		return l.(*rate.Limiter)
	}
	l, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.rate, i.burst))
	return l.(*rate.Limiter)
}

func (i *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !i.limiter(ip).Allow() {
			if i.logger != nil {
				i.logger.Printf("http: rate limit exceeded ip=%s path=%s", ip, c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

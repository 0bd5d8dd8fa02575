package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/salon-api/pkg/httputil"
)

type RateLimiterConfig struct {
	// Rate is the steady number of requests per second allowed per client.
	Rate  rate.Limit
	Burst int
	// IdleTTL is how long an idle client's limiter is kept.
	IdleTTL time.Duration
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	cfg      RateLimiterConfig
	limiters *cache.Cache
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		cfg:      cfg,
		limiters: cache.New(cfg.IdleTTL, 2*cfg.IdleTTL),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, found := rl.limiters.Get(key); found {
		rl.limiters.Set(key, l, cache.DefaultExpiration)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)
	if err := rl.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if existing, found := rl.limiters.Get(key); found {
			return existing.(*rate.Limiter)
		}
	}
	return l
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			httputil.RespondWithStatus(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

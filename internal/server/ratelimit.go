package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig bounds the request rate per client IP. Zero values
// disable limiting, which keeps tests and local runs unthrottled.
type RateLimitConfig struct {
	PerSecond int
	Burst     int
}

func rateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.PerSecond <= 0 || cfg.Burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		mu.Lock()
		limiter, ok := limiters[clientIP]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst)
			limiters[clientIP] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"status": "fail", "message": "too many requests"})
			return
		}
		c.Next()
	}
}

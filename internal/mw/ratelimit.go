package mw

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters holds one token bucket per client address.
type clientLimiters struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	r       rate.Limit
	b       int
}

func newClientLimiters(r rate.Limit, b int) *clientLimiters {
	return &clientLimiters{
		buckets: make(map[string]*rate.Limiter),
		r:       r,
		b:       b,
	}
}

func (l *clientLimiters) get(addr string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.buckets[addr]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok := l.buckets[addr]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.r, l.b)
	l.buckets[addr] = limiter
	return limiter
}

// RateLimiter throttles requests per client address. When ipHeader is
// set the client is identified by that header (the address the reverse
// proxy saw), otherwise by the connection's remote address.
func RateLimiter(r rate.Limit, b int, ipHeader string) gin.HandlerFunc {
	limiters := newClientLimiters(r, b)
	return func(c *gin.Context) {
		addr := ""
		if ipHeader != "" {
			addr = strings.TrimSpace(c.GetHeader(ipHeader))
		}
		if addr == "" {
			addr = c.ClientIP()
		}
		if !limiters.get(addr).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

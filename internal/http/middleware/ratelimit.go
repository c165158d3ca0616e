// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with per-caller
// buckets and opportunistic eviction of idle buckets. It is process-local,
// intended for edge abuse control in a single-node deployment; horizontally
// scaled deployments should enforce global limits in a shared store instead.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// bucketTTL is how long an idle bucket survives before eviction.
const bucketTTL = 10 * time.Minute

// cleanupEvery controls how often lookups sweep for idle buckets.
const cleanupEvery = 256

// bucket pairs a limiter with its last use for idle eviction.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token-bucket limit per caller identity: the verified
// user id when present, otherwise the client IP. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64
}

// NewRateLimiter constructs a limiter with the given tokens-per-second and
// burst size.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*bucket),
	}
}

// key derives the bucket identity for a request. User and IP keys are
// prefixed so the namespaces cannot collide.
func key(c *gin.Context) string {
	if uid := UserID(c); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}

// allow reports whether the caller identified by k may proceed now.
func (rl *RateLimiter) allow(k string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.lookups++
	if rl.lookups%cleanupEvery == 0 {
		for id, b := range rl.buckets {
			if now.Sub(b.lastSeen) > bucketTTL {
				delete(rl.buckets, id)
			}
		}
	}

	b, ok := rl.buckets[k]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[k] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// Handler returns the Gin middleware enforcing the limit. Rejections are 429
// with the standard error envelope and a Retry-After hint.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 {
			c.Next()
			return
		}
		if !rl.allow(key(c)) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"request_id": c.GetString(requestIDKey),
				"code":       "too_many_requests",
				"message":    "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

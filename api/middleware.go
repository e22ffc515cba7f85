package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// Every mutating endpoint takes a small JSON body; anything bigger is a
	// client error.
	maxRequestBody = 64 * 1024

	defaultRateLimitRPS = 10

	limiterSweepInterval = 5 * time.Minute
	limiterIdleAfter     = 10 * time.Minute
)

// limiterRegistry tracks one token bucket per client IP and evicts buckets
// that have been idle longer than limiterIdleAfter.
type limiterRegistry struct {
	clients sync.Map
	stop    chan struct{}
	once    sync.Once
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterRegistry() *limiterRegistry {
	return &limiterRegistry{stop: make(chan struct{})}
}

// Middleware returns a per-client rate limit handler. The eviction loop
// starts on first use and runs until Close.
func (r *limiterRegistry) Middleware(rps, burst int) gin.HandlerFunc {
	r.once.Do(func() {
		go r.evictIdle()
	})

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		entry, _ := r.clients.LoadOrStore(clientIP, &clientLimiter{
			limiter:  rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), burst),
			lastSeen: time.Now(),
		})

		cl := entry.(*clientLimiter)
		cl.lastSeen = time.Now()

		if !cl.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please slow down your requests.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *limiterRegistry) evictIdle() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			r.clients.Range(func(key, value interface{}) bool {
				if now.Sub(value.(*clientLimiter).lastSeen) > limiterIdleAfter {
					r.clients.Delete(key)
				}
				return true
			})
		case <-r.stop:
			return
		}
	}
}

// Close stops the eviction loop
func (r *limiterRegistry) Close() {
	close(r.stop)
}

// CORS lets browser clients on other origins call the API. Only the methods
// the routes actually serve are advertised.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// RequestSizeLimit caps request bodies at the default size
func RequestSizeLimit() gin.HandlerFunc {
	return RequestSizeLimitWithSize(maxRequestBody)
}

func RequestSizeLimitWithSize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost ||
			c.Request.Method == http.MethodPut ||
			c.Request.Method == http.MethodPatch {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

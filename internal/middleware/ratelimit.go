package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultRateLimit  = 100
	DefaultRateWindow = 15 * time.Minute

	// clients tracked at once; the least recently seen are forgotten first
	rateTableSize = 10_000
)

// RateLimiter allows each client IP a burst of limit requests, refilled
// evenly over window.
type RateLimiter struct {
	limit   int
	window  time.Duration
	clients *lru.Cache[string, *rate.Limiter]
}

func NewRateLimiter(limit int, window time.Duration) (*RateLimiter, error) {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}

	clients, err := lru.New[string, *rate.Limiter](rateTableSize)
	if err != nil {
		return nil, fmt.Errorf("rate limiter table: %w", err)
	}
	return &RateLimiter{limit: limit, window: window, clients: clients}, nil
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.clients.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)
	// a concurrent request may have stored one first
	if prev, ok, _ := rl.clients.PeekOrAdd(key, l); ok {
		return prev
	}
	return l
}

// Middleware answers 429 with Retry-After once a client exhausts its budget.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := rl.limiter(c.ClientIP()).Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later.",
			})
			return
		}
		c.Next()
	}
}

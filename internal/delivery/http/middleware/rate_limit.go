package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/pkg/redis"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis
	KeyPrefix string
	// Reject instead of falling back to memory when Redis errors
	FailClosed bool
	// Client overrides the shared Redis client (tests)
	Client goredis.Scripter
}

// rateLimitEntry tracks request count for a key (in-memory fallback)
type rateLimitEntry struct {
	count   int
	resetAt time.Time
	mu      sync.Mutex
}

type memoryStore struct {
	entries sync.Map
	once    sync.Once
}

var fallbackStore = &memoryStore{}

// sweep drops expired entries every few minutes
func (s *memoryStore) sweep() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		for range ticker.C {
			now := time.Now()
			s.entries.Range(func(key, value interface{}) bool {
				entry := value.(*rateLimitEntry)
				entry.mu.Lock()
				if now.After(entry.resetAt) {
					s.entries.Delete(key)
				}
				entry.mu.Unlock()
				return true
			})
		}
	}()
}

func (s *memoryStore) incr(key string, window time.Duration, now time.Time) (int, time.Time) {
	s.once.Do(s.sweep)

	entryI, _ := s.entries.LoadOrStore(key, &rateLimitEntry{resetAt: now.Add(window)})
	entry := entryI.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.resetAt) {
		entry.count = 0
		entry.resetAt = now.Add(window)
	}
	entry.count++
	return entry.count, entry.resetAt
}

func clientIP(c *gin.Context) string {
	return c.ClientIP()
}

// GlobalRateLimitConfig applies to every API route
func GlobalRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{Limit: limit, Window: window, KeyPrefix: "rl:ip:", KeyFunc: clientIP}
}

// LoginRateLimitConfig is the strict limit for credential endpoints
func LoginRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{Limit: limit, Window: window, KeyPrefix: "rl:login:", KeyFunc: clientIP, FailClosed: true}
}

// RateLimitMiddleware counts requests per key in a fixed window. Redis is
// used when available so limits hold across instances; otherwise counts are
// kept in memory.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = clientIP
	}

	return func(c *gin.Context) {
		fullKey := config.KeyPrefix + config.KeyFunc(c)
		now := time.Now()

		var count int
		var resetAt time.Time

		var client goredis.Scripter = config.Client
		if client == nil {
			if shared := redis.Client(); shared != nil {
				client = shared
			}
		}

		if client != nil {
			var err error
			count, resetAt, err = redis.IncrWindow(c.Request.Context(), client, fullKey, config.Window)
			if err != nil {
				logRateLimitError(c, err)
				if config.FailClosed {
					response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
					c.Abort()
					return
				}
				count, resetAt = fallbackStore.incr(fullKey, config.Window, now)
			}
		} else {
			count, resetAt = fallbackStore.incr(fullKey, config.Window, now)
		}

		remaining := config.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > config.Limit {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			security.DefaultLogger().LogRateLimitTriggered(
				c.Request.Context(), c.ClientIP(), c.Request.UserAgent(), requestIDFrom(c), c.FullPath(),
			)
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

func logRateLimitError(c *gin.Context, err error) {
	security.DefaultLogger().Log(c.Request.Context(), security.SecurityEvent{
		Event:       security.EventRateLimitTriggered,
		SubjectType: "system",
		IP:          c.ClientIP(),
		RequestID:   requestIDFrom(c),
		Details: map[string]interface{}{
			"error_type": "redis_error",
			"error":      err.Error(),
		},
	})
}

package middlewares

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// WindowCounter counts hits in fixed windows that start at the first hit.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type RedisWindowCounter struct {
	client *redis.Client
}

func NewRedisWindowCounter(client *redis.Client) *RedisWindowCounter {
	return &RedisWindowCounter{client: client}
}

func (r *RedisWindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// Set TTL only for the first increment
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (r *RedisWindowCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.client.TTL(ctx, key).Result()
}

type RateLimit struct {
	Prefix string
	Limit  int
	Window time.Duration
	// Key identifies the caller; an empty key skips limiting.
	Key func(c *gin.Context) string
}

// ByUser keys on the authenticated user and must run after AuthMiddleware.
func ByUser(c *gin.Context) string { return c.GetString(userIDKey) }

func ByIP(c *gin.Context) string { return c.ClientIP() }

// RateLimiter rejects callers over the limit with 429. Counter failures are
// logged and the request is let through.
func RateLimiter(counter WindowCounter, rl RateLimit, log zerolog.Logger, m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := rl.Key(c)
		if id == "" {
			c.Next()
			return
		}
		key := rl.Prefix + ":" + id
		ctx := c.Request.Context()

		count, err := counter.Hit(ctx, key, rl.Window)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		remaining := int64(rl.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.Limit) {
			retryAfter, err := counter.TTL(ctx, key)
			if err != nil || retryAfter < 0 {
				retryAfter = rl.Window
			}
			secs := int64(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			if m != nil {
				m.RateLimited.WithLabelValues(rl.Prefix).Inc()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Too many requests, please try again later.",
				"retry_after": secs,
			})
			return
		}
		c.Next()
	}
}

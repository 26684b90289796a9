package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig configures the rate limiter
type RateLimitConfig struct {
	// Max requests per window
	Max int
	// Window duration
	Window time.Duration
	// Key generator function
	KeyGenerator func(*fiber.Ctx) string
	// Skip function
	Skip func(*fiber.Ctx) bool
	// Custom limit exceeded handler
	LimitReached fiber.Handler
}

// DefaultRateLimitConfig returns default rate limit config
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Max:    100,
		Window: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if apiKeyID, ok := GetAPIKeyID(c); ok {
				return "apikey:" + apiKeyID.String()
			}
			if userID, ok := GetUserID(c); ok {
				return "user:" + userID.String()
			}
			return "ip:" + c.IP()
		},
		Skip: nil,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Too Many Requests",
				"message": "Rate limit exceeded. Please try again later.",
			})
		},
	}
}

// RateLimitMiddleware is a fixed-window rate limiter backed by Redis.
// Redis being down never blocks a request; a home server losing its
// cache should degrade to unlimited, not to broken.
type RateLimitMiddleware struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(redisClient *redis.Client, config ...RateLimitConfig) *RateLimitMiddleware {
	cfg := DefaultRateLimitConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return &RateLimitMiddleware{
		redis:  redisClient,
		config: cfg,
	}
}

// Handler returns the rate limit handler
func (m *RateLimitMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		allowed, remaining, reset := m.allow(c.Context(), m.config.KeyGenerator(c), m.config.Max, m.config.Window)

		c.Set("X-RateLimit-Limit", strconv.Itoa(m.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

		if !allowed {
			c.Set("Retry-After", strconv.FormatInt(reset-time.Now().Unix(), 10))
			return m.config.LimitReached(c)
		}

		return c.Next()
	}
}

// PerAPIKey limits each API key independently. Requests without a key
// in context pass through; the auth middleware ahead of this one
// already rejected them.
func (m *RateLimitMiddleware) PerAPIKey(maxPerMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKeyID, ok := GetAPIKeyID(c)
		if !ok {
			return c.Next()
		}

		allowed, remaining, reset := m.allow(c.Context(), "apikey:"+apiKeyID.String(), maxPerMinute, time.Minute)

		c.Set("X-RateLimit-Limit", strconv.Itoa(maxPerMinute))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

		if !allowed {
			c.Set("Retry-After", strconv.FormatInt(reset-time.Now().Unix(), 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Too Many Requests",
				"message": "API key rate limit exceeded",
			})
		}

		return c.Next()
	}
}

// PerUser limits each dashboard session independently, falling back to
// the client IP before authentication
func (m *RateLimitMiddleware) PerUser(maxPerMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if userID, ok := GetUserID(c); ok {
			key = "user:" + userID.String()
		}

		allowed, remaining, reset := m.allow(c.Context(), key, maxPerMinute, time.Minute)

		c.Set("X-RateLimit-Limit", strconv.Itoa(maxPerMinute))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

		if !allowed {
			c.Set("Retry-After", strconv.FormatInt(reset-time.Now().Unix(), 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Too Many Requests",
				"message": "Rate limit exceeded. Please try again later.",
			})
		}

		return c.Next()
	}
}

// allow counts the request against a window-aligned key. The window
// index in the key makes expiry races harmless: a new window means a
// new key.
func (m *RateLimitMiddleware) allow(ctx context.Context, key string, max int, window time.Duration) (allowed bool, remaining int, reset int64) {
	windowSecs := int64(window.Seconds())
	idx := time.Now().Unix() / windowSecs
	reset = (idx + 1) * windowSecs

	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, idx)

	count, err := m.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		// Fail open
		return true, max, reset
	}
	if count == 1 {
		m.redis.Expire(ctx, redisKey, window+time.Second)
	}

	remaining = max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return count <= int64(max), remaining, reset
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"

	"github.com/mihas-katc/admissions-api/internal/utils"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimit creates a per-user rate limiter. A non-nil store shares counters
// between API instances; without one the limiter keeps them in memory.
func RateLimit(identifier string, max int, window time.Duration, store fiber.Storage) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Storage:    store,
		KeyGenerator: func(c *fiber.Ctx) string {
			userID := fmt.Sprintf("%v", c.Locals("user_id"))
			if c.Locals("user_id") == nil || userID == "0" {
				userID = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, userID)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Fail(c, fiber.StatusTooManyRequests, "too many assessment requests", fiber.Map{
				"retry_after_seconds": int(window.Seconds()),
			})
		},
	})
}

// RedisLimiterStorage adapts a go-redis client to fiber's limiter storage.
type RedisLimiterStorage struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisLimiterStorage returns nil when client is nil so callers can pass the
// result straight to RateLimit.
func NewRedisLimiterStorage(client *redis.Client) fiber.Storage {
	if client == nil {
		return nil
	}
	return &RedisLimiterStorage{client: client, timeout: time.Second}
}

func (s *RedisLimiterStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns nil without error for unknown keys.
func (s *RedisLimiterStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	value, err := s.client.Get(ctx, rateLimitKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

func (s *RedisLimiterStorage) Set(key string, value []byte, exp time.Duration) error {
	if key == "" || len(value) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	return s.client.Set(ctx, rateLimitKeyPrefix+key, value, exp).Err()
}

func (s *RedisLimiterStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	return s.client.Del(ctx, rateLimitKeyPrefix+key).Err()
}

// Reset removes every limiter key.
func (s *RedisLimiterStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.client.Scan(ctx, 0, rateLimitKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client is owned by the caller.
func (s *RedisLimiterStorage) Close() error {
	return nil
}

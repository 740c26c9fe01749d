package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// RetryAttempts is the number of connection attempts before giving up.
	// Defaults to 3 when zero.
	RetryAttempts int
	// RetryBaseWait is the first backoff delay; each retry doubles it.
	// Defaults to 1s when zero.
	RetryBaseWait time.Duration
}

// DefaultRedisConfig returns sensible defaults for a local Redis.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:          "localhost:6379",
		RetryAttempts: defaultRetryAttempts,
		RetryBaseWait: defaultRetryBaseWait,
	}
}

const (
	defaultRetryAttempts = 3
	defaultRetryBaseWait = 1 * time.Second
	retryJitterFraction  = 0.25
)

// retryBackoff returns the backoff for the given attempt (0-indexed) with
// ±25% jitter around base << attempt.
func retryBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base << attempt
	jitter := time.Duration(float64(d) * retryJitterFraction * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
	return d + jitter
}

// NewRedisClient creates a Redis client and verifies the connection with PING,
// retrying with exponential backoff. logger may be nil.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	base := cfg.RetryBaseWait
	if base <= 0 {
		base = defaultRetryBaseWait
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		wait := retryBackoff(base, attempt)
		if logger != nil {
			logger.Warn("redis ping failed, retrying",
				slog.String("addr", cfg.Addr),
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", attempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("connect to redis after %d attempts: %w", attempts, lastErr)
}

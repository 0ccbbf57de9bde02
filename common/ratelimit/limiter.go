package ratelimit

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/redis/go-redis/v9"
)

//go:embed rate_limit.lua
var rateLimitScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed           bool
	CurrentCount      int64
	Limit             int64
	RetryAfterSeconds int64
}

// Limiter throttles queue-mutating requests using Redis + Lua so the count
// is atomic across service replicas.
type Limiter struct {
	redis  *redis.Client
	script *redis.Script
	logger Logger
}

// NewLimiter creates a new rate limiter with the embedded Lua script
func NewLimiter(redisClient *redis.Client, logger Logger) *Limiter {
	return &Limiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// CheckActorLimit checks the mutation rate limit for a single actor
func (l *Limiter) CheckActorLimit(ctx context.Context, actor string, limit int64, windowSec int) (*Result, error) {
	key := fmt.Sprintf("rate_limit:actor:%s", actor)
	return l.check(ctx, key, limit, windowSec)
}

func (l *Limiter) check(ctx context.Context, key string, limit int64, windowSec int) (*Result, error) {
	raw, err := l.script.Run(ctx, l.redis, []string{key}, limit, windowSec).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("unexpected rate limit script result: %v", raw)
	}

	allowed, _ := values[0].(int64)
	count, _ := values[1].(int64)
	ttl, _ := values[2].(int64)

	result := &Result{
		Allowed:      allowed == 1,
		CurrentCount: count,
		Limit:        limit,
	}
	if !result.Allowed {
		result.RetryAfterSeconds = ttl
		l.logger.Warn("rate limit exceeded", "key", key, "count", count, "limit", limit)
	}

	return result, nil
}

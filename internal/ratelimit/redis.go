package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chat:rl:"

//go:embed fixed_window.lua
var fixedWindowSrc string

var fixedWindow = redis.NewScript(fixedWindowSrc)

// RedisLimiter allows max events per window for a key, shared by every
// connection using that key.
type RedisLimiter struct {
	rdb    redis.Scripter
	max    int64
	window time.Duration
}

func NewRedisLimiter(rdb redis.Scripter, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: int64(max), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := fixedWindow.Run(ctx, l.rdb, []string{keyPrefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return n <= l.max, nil
}

// Scripts lists the Lua scripts the limiter runs, for preloading at boot.
func Scripts() []*redis.Script { return []*redis.Script{fixedWindow} }

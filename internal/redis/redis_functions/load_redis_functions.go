package redis_functions

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoadAll caches every script in Redis so the first EVALSHA does not miss.
func LoadAll(ctx context.Context, rdb redis.Scripter, scripts ...*redis.Script) error {
	for _, s := range scripts {
		if err := s.Load(ctx, rdb).Err(); err != nil {
			return fmt.Errorf("load lua %s: %w", s.Hash(), err)
		}
		zap.L().Info("lua script loaded", zap.String("sha", s.Hash()))
	}
	return nil
}

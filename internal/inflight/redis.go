package inflight

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fatkhan05/ai-try-on/internal/logging"
)

// releaseScript deletes the marker only if it still holds our token, so an
// expired marker re-acquired by another request is left alone.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// Locker is the subset of *redis.Client used by RedisGuard.
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisGuard shares in-flight markers between server instances. Markers
// expire after ttl so a crashed instance cannot wedge a session forever.
type RedisGuard struct {
	client Locker
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisGuard builds a guard storing markers under "tryon:inflight:".
func NewRedisGuard(client Locker, ttl time.Duration, logger *zap.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{
		client: client,
		ttl:    ttl,
		prefix: "tryon:inflight:",
		logger: logger.Named("inflight"),
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := g.prefix + key
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, logging.NewOperationError("inflight.acquire", key, err)
	}
	if !ok {
		return nil, ErrBusy
	}

	return func() {
		// The request context may already be done; release must still run.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.client.Eval(releaseCtx, releaseScript, []string{redisKey}, token).Err(); err != nil {
			g.logger.Warn("failed to release in-flight marker", zap.String("key", redisKey), zap.Error(err))
		}
	}, nil
}

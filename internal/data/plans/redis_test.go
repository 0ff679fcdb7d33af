package plans

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/omex-backend/internal/platform/logger"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis plan store tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, logger.Nop())
}

func TestRedisStore(t *testing.T) {
	exerciseStore(t, newRedisStore(t))
}

func TestRedisStoreConcurrentAwards(t *testing.T) {
	exerciseConcurrentAwards(t, newRedisStore(t), 20)
}

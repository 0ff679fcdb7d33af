package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/omex-backend/internal/data/plans"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

const (
	planStoreMemory = "memory"
	planStoreRedis  = "redis"
	planStoreSQL    = "sql"
)

// resolvePlanStore picks the study plan backend named by PLAN_STORE.
func resolvePlanStore(log *logger.Logger, kind string, db *gorm.DB, rdb *goredis.Client) (plans.Store, error) {
	switch kind {
	case "", planStoreMemory:
		log.Warn("Study plans are kept in memory and will be lost on restart")
		return plans.NewMemoryStore(), nil
	case planStoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("PLAN_STORE=%s requires a redis client", planStoreRedis)
		}
		return plans.NewRedisStore(rdb, log), nil
	case planStoreSQL:
		if db == nil {
			return nil, fmt.Errorf("PLAN_STORE=%s requires a database", planStoreSQL)
		}
		return plans.NewSQLStore(db, log), nil
	default:
		return nil, fmt.Errorf("invalid PLAN_STORE=%q", kind)
	}
}

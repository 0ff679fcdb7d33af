package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/omex-backend/internal/domain/study"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

const (
	redisKeyPrefix    = "studyplan:"
	redisMaxTxRetries = 64
)

// RedisStore keeps each plan as a JSON string under studyplan:<user id>.
// Updates run as WATCH/MULTI transactions and retry when the key changes underneath.
type RedisStore struct {
	log *logger.Logger
	rdb goredis.UniversalClient
}

func NewRedisStore(rdb goredis.UniversalClient, baseLog *logger.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, log: baseLog.With("store", "RedisPlanStore")}
}

func redisKey(userID uuid.UUID) string { return redisKeyPrefix + userID.String() }

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID) (study.StudyPlan, error) {
	raw, err := s.rdb.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return study.StudyPlan{}, ErrPlanNotFound
	}
	if err != nil {
		return study.StudyPlan{}, fmt.Errorf("redis get plan: %w", err)
	}
	return decodePlan(userID, raw)
}

func (s *RedisStore) Put(ctx context.Context, userID uuid.UUID, plan study.StudyPlan) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set plan: %w", err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, userID uuid.UUID, fn UpdateFunc) (study.StudyPlan, error) {
	key := redisKey(userID)
	var result study.StudyPlan

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return ErrPlanNotFound
		}
		if err != nil {
			return err
		}
		plan, err := decodePlan(userID, raw)
		if err != nil {
			return err
		}
		if err := fn(&plan); err != nil {
			return err
		}
		encoded, err := json.Marshal(plan)
		if err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err == nil {
			result = plan
		}
		return err
	}

	for attempt := 0; attempt < redisMaxTxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return study.StudyPlan{}, err
	}
	s.log.Warn("plan update gave up after retries", "user_id", userID, "retries", redisMaxTxRetries)
	return study.StudyPlan{}, ErrConflict
}

func (s *RedisStore) AwardTokens(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	return awardTokens(ctx, s, userID, amount)
}

func decodePlan(userID uuid.UUID, raw []byte) (study.StudyPlan, error) {
	var plan study.StudyPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return study.StudyPlan{}, fmt.Errorf("decode plan: %w", err)
	}
	plan.UserID = userID
	return plan, nil
}

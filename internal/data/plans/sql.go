package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/omex-backend/internal/domain/study"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

const sqlMaxCASRetries = 64

// StudyPlanRecord is the relational row behind SQLStore.
type StudyPlanRecord struct {
	UserID       uuid.UUID      `gorm:"type:uuid;primaryKey;column:user_id"`
	Plan         datatypes.JSON `gorm:"not null;column:plan"`
	TokenBalance int            `gorm:"not null;default:0;column:token_balance"`
	Version      int64          `gorm:"not null;default:0;column:version"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

func (StudyPlanRecord) TableName() string { return "study_plan" }

// SQLStore persists plans through gorm. Updates are compare-and-swap on Version.
type SQLStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLStore(db *gorm.DB, baseLog *logger.Logger) *SQLStore {
	return &SQLStore{db: db, log: baseLog.With("store", "SQLPlanStore")}
}

func (s *SQLStore) load(ctx context.Context, userID uuid.UUID) (*StudyPlanRecord, error) {
	var rec StudyPlanRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	return &rec, nil
}

func (s *SQLStore) Get(ctx context.Context, userID uuid.UUID) (study.StudyPlan, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return study.StudyPlan{}, err
	}
	return recordPlan(rec)
}

func (s *SQLStore) Put(ctx context.Context, userID uuid.UUID, plan study.StudyPlan) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	rec := StudyPlanRecord{
		UserID:       userID,
		Plan:         datatypes.JSON(raw),
		TokenBalance: plan.TokenBalance,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"plan":          rec.Plan,
			"token_balance": rec.TokenBalance,
			"version":       gorm.Expr("study_plan.version + 1"),
			"updated_at":    time.Now(),
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, userID uuid.UUID, fn UpdateFunc) (study.StudyPlan, error) {
	for attempt := 0; attempt < sqlMaxCASRetries; attempt++ {
		rec, err := s.load(ctx, userID)
		if err != nil {
			return study.StudyPlan{}, err
		}
		plan, err := recordPlan(rec)
		if err != nil {
			return study.StudyPlan{}, err
		}
		if err := fn(&plan); err != nil {
			return study.StudyPlan{}, err
		}
		raw, err := json.Marshal(plan)
		if err != nil {
			return study.StudyPlan{}, fmt.Errorf("encode plan: %w", err)
		}
		res := s.db.WithContext(ctx).
			Model(&StudyPlanRecord{}).
			Where("user_id = ? AND version = ?", userID, rec.Version).
			Updates(map[string]any{
				"plan":          datatypes.JSON(raw),
				"token_balance": plan.TokenBalance,
				"version":       rec.Version + 1,
			})
		if res.Error != nil {
			return study.StudyPlan{}, fmt.Errorf("update plan: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return plan, nil
		}
	}
	s.log.Warn("plan update gave up after retries", "user_id", userID, "retries", sqlMaxCASRetries)
	return study.StudyPlan{}, ErrConflict
}

func (s *SQLStore) AwardTokens(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	return awardTokens(ctx, s, userID, amount)
}

func recordPlan(rec *StudyPlanRecord) (study.StudyPlan, error) {
	var plan study.StudyPlan
	if err := json.Unmarshal(rec.Plan, &plan); err != nil {
		return study.StudyPlan{}, fmt.Errorf("decode plan: %w", err)
	}
	plan.UserID = rec.UserID
	plan.TokenBalance = rec.TokenBalance
	return plan, nil
}

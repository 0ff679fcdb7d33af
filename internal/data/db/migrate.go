package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/omex-backend/internal/data/plans"
	types "github.com/yungbote/omex-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.User{},
		&plans.StudyPlanRecord{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error { return AutoMigrateAll(s.db) }

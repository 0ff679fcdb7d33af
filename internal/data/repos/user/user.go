package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/omex-backend/internal/domain"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error)
	RecordFailedLogin(ctx context.Context, tx *gorm.DB, userID uuid.UUID, policy LockoutPolicy) (*types.User, error)
	ResetLoginAttempts(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	UpdateAvatarFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, avatarKey, avatarURL string) error
}

// LockoutPolicy decides when repeated failed logins lock an account.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
	Now          time.Time
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if len(userEmails) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("email IN ?", userEmails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", userEmail).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordFailedLogin bumps the attempt counter and locks the account once it
// reaches policy.MaxAttempts. A failure after an expired lock starts a fresh count.
func (ur *userRepo) RecordFailedLogin(ctx context.Context, tx *gorm.DB, userID uuid.UUID, policy LockoutPolicy) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var updated *types.User
	err := transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		var u types.User
		if err := inner.Where("id = ?", userID).Take(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		updates := map[string]any{}
		if u.LockUntil != nil && !u.LockUntil.After(policy.Now) {
			u.LoginAttempts = 1
			u.LockUntil = nil
			updates["login_attempts"] = 1
			updates["lock_until"] = nil
		} else {
			u.LoginAttempts++
			updates["login_attempts"] = gorm.Expr("login_attempts + ?", 1)
		}
		if u.LockUntil == nil && policy.MaxAttempts > 0 && u.LoginAttempts >= policy.MaxAttempts {
			lockUntil := policy.Now.Add(policy.LockDuration)
			u.LockUntil = &lockUntil
			updates["lock_until"] = lockUntil
		}

		if err := inner.Model(&types.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update login attempts: %w", err)
		}
		updated = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (ur *userRepo) ResetLoginAttempts(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"login_attempts": 0,
			"lock_until":     nil,
		}).Error
}

func (ur *userRepo) UpdateAvatarFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, avatarKey, avatarURL string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"avatar_key": avatarKey,
			"avatar_url": avatarURL,
		}).Error
}

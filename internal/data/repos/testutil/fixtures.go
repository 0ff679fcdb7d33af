package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/omex-backend/internal/domain"
)

// SeedUser inserts a user with a placeholder password hash.
func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedLockedUser inserts a user already locked out until lockUntil.
func SeedLockedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, attempts int, lockUntil time.Time) *types.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	if err := tx.WithContext(ctx).Model(u).Updates(map[string]interface{}{
		"login_attempts": attempts,
		"lock_until":     lockUntil,
	}).Error; err != nil {
		tb.Fatalf("seed lock: %v", err)
	}
	u.LoginAttempts = attempts
	u.LockUntil = PtrTime(lockUntil)
	return u
}

func PtrTime(v time.Time) *time.Time { return &v }

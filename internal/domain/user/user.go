package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered learner. IDs are assigned in code so the table works on
// both Postgres and SQLite.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password      string     `gorm:"not null;column:password" json:"-"`
	FirstName     string     `gorm:"not null;default:'';column:first_name" json:"firstName"`
	LastName      string     `gorm:"not null;default:'';column:last_name" json:"lastName"`
	AvatarKey     string     `gorm:"column:avatar_key" json:"-"`
	AvatarURL     string     `gorm:"column:avatar_url" json:"avatarUrl,omitempty"`
	LoginAttempts int        `gorm:"not null;default:0;column:login_attempts" json:"-"`
	LockUntil     *time.Time `gorm:"column:lock_until" json:"-"`

	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

// IsLocked reports whether a lockout is in force at now.
func (u *User) IsLocked(now time.Time) bool {
	return u != nil && u.LockUntil != nil && u.LockUntil.After(now)
}

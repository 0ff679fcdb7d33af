package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/omex-backend/internal/data/repos/user"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type LockoutPolicy = user.LockoutPolicy

var ErrUserNotFound = user.ErrUserNotFound

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

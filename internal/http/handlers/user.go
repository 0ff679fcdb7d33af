package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/omex-backend/internal/http/response"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{log: log.With("handler", "UserHandler"), userService: userService}
}

// GET /api/auth/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondError(c, uh.log, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, gin.H{"user": me})
}

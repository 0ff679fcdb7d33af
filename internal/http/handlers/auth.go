package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/omex-backend/internal/http/response"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/services"
)

const msgInvalidBody = "Invalid request body"

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, ah.log, apierr.Validation(msgInvalidBody))
		return
	}
	user, token, err := ah.authService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, gin.H{"user": user, "token": token})
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, ah.log, apierr.Validation(msgInvalidBody))
		return
	}
	user, token, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, gin.H{"user": user, "token": token})
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

const msgServerError = "Server error"

type ErrorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type SuccessEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// RespondError renders err in the error envelope. Errors without an
// *apierr.Error in their chain are logged and reported as a generic 500.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	ae, ok := apierr.As(err)
	if !ok {
		if log != nil {
			log.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorEnvelope{
			Status:  "error",
			Message: msgServerError,
			Code:    "internal",
		})
		return
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{
		Status:  "error",
		Message: ae.Error(),
		Code:    ae.Code,
		Details: ae.Detail,
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondSuccess wraps data as {"status":"success","data":...}.
func RespondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessEnvelope{Status: "success", Data: data})
}

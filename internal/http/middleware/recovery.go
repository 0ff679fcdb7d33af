package middleware

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/omex-backend/internal/http/response"
	"github.com/yungbote/omex-backend/internal/platform/ctxutil"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

// Recovery turns a handler panic into the standard 500 envelope. The panic is
// reported through log only, so it passes the same redaction as every other line.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("middleware", "Recovery")
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		fields := append([]interface{}{
			"panic", fmt.Sprint(recovered),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"stack", string(debug.Stack()),
		}, ctxutil.LogFields(c.Request.Context())...)
		log.Error("Handler panicked", fields...)
		response.RespondError(c, log, fmt.Errorf("panic: %v", recovered))
	})
}

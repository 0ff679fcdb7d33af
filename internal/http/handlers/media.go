package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/omex-backend/internal/http/response"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/platform/objectstorage"
)

// MediaHandler serves avatars out of a local bucket. GCS-backed deployments
// link to the bucket directly and never mount it.
type MediaHandler struct {
	log    *logger.Logger
	bucket objectstorage.Bucket
}

func NewMediaHandler(log *logger.Logger, bucket objectstorage.Bucket) *MediaHandler {
	return &MediaHandler{log: log.With("handler", "MediaHandler"), bucket: bucket}
}

// GET /media/avatar/*key
func (mh *MediaHandler) Avatar(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, err := mh.bucket.Download(c.Request.Context(), objectstorage.CategoryAvatar, key)
	if err != nil {
		if errors.Is(err, objectstorage.ErrObjectNotFound) || errors.Is(err, objectstorage.ErrInvalidKey) {
			response.RespondError(c, mh.log, apierr.NotFound("Not found"))
			return
		}
		response.RespondError(c, mh.log, err)
		return
	}
	defer rc.Close()
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		mh.log.Warn("avatar stream interrupted", "key", key, "error", err)
	}
}

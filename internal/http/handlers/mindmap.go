package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/omex-backend/internal/http/response"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/services"
)

// multipartOverhead leaves room for form boundaries and headers around the file part.
const multipartOverhead = 64 << 10

type MindmapHandler struct {
	log        *logger.Logger
	conversion services.ConversionService
}

func NewMindmapHandler(log *logger.Logger, conversion services.ConversionService) *MindmapHandler {
	return &MindmapHandler{log: log.With("handler", "MindmapHandler"), conversion: conversion}
}

// POST /api/mindmap/upload (multipart/form-data, field "file")
func (mh *MindmapHandler) Upload(c *gin.Context) {
	maxBytes := mh.conversion.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, mh.log, apierr.PayloadTooLarge(fmt.Sprintf("File too large. Maximum size is %dMB", maxBytes>>20)))
			return
		}
		response.RespondError(c, mh.log, apierr.Validation("No file uploaded"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, mh.log, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	mindmaps, err := mh.conversion.Convert(c.Request.Context(), services.UploadedFile{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		response.RespondError(c, mh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "mindmaps": mindmaps})
}

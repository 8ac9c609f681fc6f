package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/ai"
	"github.com/xxxsen/concierge/internal/middleware"
	"github.com/xxxsen/concierge/internal/pkg/errcode"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
	"github.com/xxxsen/concierge/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	if response.FailErr(c, err) {
		return
	}
	var genErr *ai.GenerationError
	var embErr *ai.EmbeddingError
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Fail(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Fail(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrUnsupported):
		response.Fail(c, errcode.ErrInvalidFile, "unsupported file type, use .pdf, .md or .txt")
	case errors.Is(err, appErr.ErrTooLarge):
		response.Fail(c, errcode.ErrFileTooLarge, "file too large")
	case errors.Is(err, appErr.ErrNotConfigured):
		response.Fail(c, errcode.ErrNotConfigured, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Fail(c, errcode.ErrConflict, "conflict")
	case errors.As(err, &embErr), errors.As(err, &genErr), errors.Is(err, ai.ErrUnavailable):
		response.Fail(c, errcode.ErrAIUnavailable, err.Error())
	default:
		response.Fail(c, errcode.ErrInternal, http.StatusText(http.StatusInternalServerError))
	}
}

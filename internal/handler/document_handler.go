package handler

import (
	"fmt"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/concierge/internal/pkg/errcode"
	"github.com/xxxsen/concierge/internal/pkg/response"
	"github.com/xxxsen/concierge/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
	maxUpload int64
}

func NewDocumentHandler(documents *service.DocumentService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxUpload: maxUpload}
}

// Upload accepts one or more multipart "file" parts and ingests them as a
// single batch.
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, errcode.ErrInvalidFile, "multipart form with file is required")
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		response.Fail(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	files := make([]service.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		if h.maxUpload > 0 && fh.Size > h.maxUpload {
			handleError(c, response.NewCodeError(errcode.ErrFileTooLarge, "file too large, max "+uploadLimit(h.maxUpload)))
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.Fail(c, errcode.ErrInvalidFile, "failed to open file")
			return
		}
		opened = append(opened, f)
		files = append(files, service.UploadFile{Name: fh.Filename, Size: fh.Size, Body: f})
	}
	res, err := h.documents.Upload(c.Request.Context(), files)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *DocumentHandler) Stats(c *gin.Context) {
	stats, err := h.documents.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

// uploadLimit renders a byte limit in whole megabytes, rounding up to 1MB.
func uploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	return fmt.Sprintf("%dMB", max(bytes/mb, 1))
}

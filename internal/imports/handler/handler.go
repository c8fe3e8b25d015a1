package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"medicore_backend/internal/imports/service"
	"medicore_backend/internal/imports/transport"
	"medicore_backend/internal/storage"
	"medicore_backend/platform/apperr"
	"medicore_backend/platform/httpkit"
	"medicore_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	importFolder = "imports"
)

// UploadSigner issues presigned PUT links into object storage.
type UploadSigner interface {
	GenerateUploadURL(ctx context.Context, folder, fileName string) (*storage.PresignedURL, error)
}

// MediaEnqueuer queues uploaded media objects for processing.
type MediaEnqueuer interface {
	EnqueueMediaProcess(ctx context.Context, objectKey string) error
}

type Handler struct {
	svc   *service.Service
	store UploadSigner
	queue MediaEnqueuer
	val   *validator.Validator
}

func New(svc *service.Service, store UploadSigner, queue MediaEnqueuer, val *validator.Validator) *Handler {
	return &Handler{svc: svc, store: store, queue: queue, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload-url", h.UploadURL)
	rg.POST("/leads", h.Start)
	rg.GET("/history", h.History)
}

// UploadURL hands the client a presigned PUT link so the file goes straight
// to object storage instead of through the API. Image uploads additionally
// enter the media processing queue.
func (h *Handler) UploadURL(c *gin.Context) {
	var req transport.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	url, err := h.store.GenerateUploadURL(c.Request.Context(), importFolder, req.FileName)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	if strings.HasPrefix(req.ContentType, "image/") {
		if err := h.queue.EnqueueMediaProcess(c.Request.Context(), url.ObjectKey); err != nil {
			httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to queue media processing", err))
			return
		}
	}

	httpkit.OK(c, url)
}

func (h *Handler) Start(c *gin.Context) {
	var req transport.StartImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Start(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusAccepted, resp)
}

func (h *Handler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	jobs, err := h.svc.ListHistory(c.Request.Context(), limit)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, jobs)
}

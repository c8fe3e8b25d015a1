package handler

import (
	"net/http"

	"medicore_backend/internal/audit"
	"medicore_backend/internal/locks"
	"medicore_backend/internal/locks/transport"
	"medicore_backend/platform/apperr"
	"medicore_backend/platform/httpkit"
	"medicore_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	store *locks.Store
	val   *validator.Validator
	audit *audit.Emitter
}

func New(store *locks.Store, val *validator.Validator, auditEmitter *audit.Emitter) *Handler {
	return &Handler{store: store, val: val, audit: auditEmitter}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:resourceId/acquire", h.Acquire)
	rg.DELETE("/:resourceId", h.Release)
	rg.GET("/:resourceId", h.Status)
}

// Acquire grants or refreshes the caller's lease. A record held by someone
// else yields 409 with the holder's name so the UI can show who is editing.
func (h *Handler) Acquire(c *gin.Context) {
	recordID := c.Param("resourceId")

	var req transport.AcquireLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	status, err := h.store.Acquire(recordID, req.UserID, req.UserName)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindConflict {
			resp := toLockResponse(status)
			resp.Message = err.Error()
			httpkit.JSON(c, http.StatusConflict, resp)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), "RECORD_LOCKED", audit.Options{
		UserID:   req.UserID,
		TargetID: recordID,
	})

	httpkit.OK(c, toLockResponse(status))
}

// Release clears the caller's lease. Releasing an unlocked record succeeds;
// releasing another user's lease is 403.
func (h *Handler) Release(c *gin.Context) {
	recordID := c.Param("resourceId")

	var req transport.ReleaseLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	status, err := h.store.Release(recordID, req.UserID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindForbidden {
			resp := toLockResponse(status)
			resp.Message = err.Error()
			httpkit.JSON(c, http.StatusForbidden, resp)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), "RECORD_UNLOCKED", audit.Options{
		UserID:   req.UserID,
		TargetID: recordID,
	})

	httpkit.OK(c, toLockResponse(status))
}

func (h *Handler) Status(c *gin.Context) {
	status := h.store.Status(c.Param("resourceId"))
	httpkit.OK(c, toLockResponse(status))
}

func toLockResponse(status locks.Status) transport.LockStatusResponse {
	resp := transport.LockStatusResponse{
		Locked:     status.Locked,
		HolderID:   status.HolderID,
		HolderName: status.HolderName,
	}
	if status.Locked {
		lockedAt := status.AcquiredAt
		resp.LockedAt = &lockedAt
	}
	return resp
}

// Package chatintake accepts qualified-lead payloads from the website chat
// widget and hands them to the event queue. The widget gets its 202 before
// the lead exists; creation, scoring, and dedup all happen downstream.
package chatintake

import (
	"context"
	"net/http"

	apphttp "medicore_backend/internal/http"
	"medicore_backend/internal/queue"
	"medicore_backend/platform/httpkit"
	"medicore_backend/platform/logger"
	"medicore_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// QualifiedLeadRequest is the chat widget's qualification payload.
type QualifiedLeadRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone" validate:"omitempty,max=30"`
}

// Enqueuer publishes intake candidates.
type Enqueuer interface {
	EnqueueLeadIntake(ctx context.Context, payload queue.LeadIntakePayload) error
}

// Module exposes the chatbot intake endpoint.
type Module struct {
	queue Enqueuer
	val   *validator.Validator
	log   *logger.Logger
}

func NewModule(q Enqueuer, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{queue: q, val: val, log: log}
}

func (m *Module) Name() string {
	return "chatintake"
}

// RegisterRoutes mounts the endpoint on the rate-limited intake group.
func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	rc.Intake.POST("/chat/qualified", m.Qualified)
}

func (m *Module) Qualified(c *gin.Context) {
	var req QualifiedLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	err := m.queue.EnqueueLeadIntake(c.Request.Context(), queue.LeadIntakePayload{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	m.log.Info("chat qualification accepted", "email", req.Email)
	httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "accepted"})
}

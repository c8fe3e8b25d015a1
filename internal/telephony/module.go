// Package telephony provides the PBX call event bounded context module.
package telephony

import (
	apphttp "medicore_backend/internal/http"
	"medicore_backend/internal/telephony/handler"
)

// Module exposes the PBX webhook and call log endpoints.
type Module struct {
	handler *handler.Handler
}

func NewModule(h *handler.Handler) *Module {
	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "telephony"
}

// RegisterRoutes mounts the webhook on the rate-limited intake group and the
// staff-facing call log listing under /calls.
func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	m.handler.RegisterWebhookRoutes(rc.Intake.Group("/pbx"))
	m.handler.RegisterRoutes(rc.V1.Group("/calls"))
}

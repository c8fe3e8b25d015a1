// Package leads provides the lead intake bounded context module.
package leads

import (
	apphttp "medicore_backend/internal/http"
	"medicore_backend/internal/leads/handler"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the leads HTTP surface around an already-constructed
// handler. The underlying service is built in the composition root because
// the queue worker shares it.
func NewModule(h *handler.Handler) *Module {
	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts the leads routes.
func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	m.handler.RegisterRoutes(rc.V1.Group("/leads"))
	m.handler.RegisterActivityRoutes(rc.V1.Group("/activities"))
}

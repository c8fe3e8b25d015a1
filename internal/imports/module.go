// Package imports provides the CSV bulk import bounded context module.
package imports

import (
	apphttp "medicore_backend/internal/http"
	"medicore_backend/internal/imports/handler"
)

// Module exposes the bulk import endpoints.
type Module struct {
	handler *handler.Handler
}

func NewModule(h *handler.Handler) *Module {
	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "imports"
}

// RegisterRoutes mounts the import routes.
func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	m.handler.RegisterRoutes(rc.V1.Group("/import"))
}

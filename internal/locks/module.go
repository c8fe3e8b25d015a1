package locks

import (
	apphttp "medicore_backend/internal/http"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by the locks HTTP handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Module exposes the record lease lock endpoints.
type Module struct {
	handler RouteRegistrar
}

func NewModule(h RouteRegistrar) *Module {
	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "locks"
}

// RegisterRoutes mounts the lock routes under /locks.
func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	m.handler.RegisterRoutes(rc.V1.Group("/locks"))
}

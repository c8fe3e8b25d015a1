package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"medicore_backend/internal/config"
	apphttp "medicore_backend/internal/http"
	"medicore_backend/platform/httpkit"
	"medicore_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// New builds the gin engine, wires shared middleware, and lets every module
// register its routes.
func New(cfg *config.Config, log *logger.Logger, health HealthChecker, modules ...apphttp.Module) *gin.Engine {
	if !strings.EqualFold(cfg.Env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(cfg)))

	engine.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	intakeLimiter := httpkit.NewIntakeRateLimiter(log)
	intake := v1.Group("")
	intake.Use(intakeLimiter.Middleware())

	rc := &apphttp.RouterContext{
		Engine: engine,
		V1:     v1,
		Intake: intake,
	}

	for _, module := range modules {
		module.RegisterRoutes(rc)
		log.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}

	if cfg.CORSAllowAll {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}

	corsCfg.AllowOrigins = cfg.CORSOrigins
	return corsCfg
}

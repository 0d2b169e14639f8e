package api

import (
	"github.com/gin-gonic/gin"

	monitoringhandlers "github.com/statusbeacon/engine/internal/api/handlers/monitoring"
	monitoringengine "github.com/statusbeacon/engine/internal/monitoring/engine"
)

// SetupRoutes mounts the uptime-monitoring HTTP surface under /api/v1. It is
// a thin wrapper over the engine; no business logic lives here.
func SetupRoutes(router *gin.Engine, uptimeEngine *monitoringengine.Engine) {
	v1 := router.Group("/api/v1")

	uptimeHandler := monitoringhandlers.NewHandler(uptimeEngine)
	uptimeHandler.RegisterRoutes(v1)
}

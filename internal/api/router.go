// Package api exposes the worker's local status endpoint.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/andrei/docscan/internal/api/handler"
	"github.com/andrei/docscan/internal/api/middleware"
	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/repository"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(workerID, version, mode string, attempts *repository.AttemptRepository, log *logger.Logger) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))

	healthHandler := handler.NewHealthHandler(version)
	statusHandler := handler.NewStatusHandler(workerID, attempts)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/stats", statusHandler.Stats)
		v1.GET("/documents/:id/attempts", statusHandler.Attempts)
	}

	return r
}

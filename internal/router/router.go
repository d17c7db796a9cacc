package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/nutrichef/backend/internal/api"
	"github.com/pageza/nutrichef/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(generateHandler *api.GenerateHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(),
	)

	apiGroup := router.Group("/api")
	generateHandler.RegisterRoutes(apiGroup)

	return router
}

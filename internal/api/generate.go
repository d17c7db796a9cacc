package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/nutrichef/backend/internal/middleware"
	"github.com/pageza/nutrichef/backend/internal/service"
	"github.com/pageza/nutrichef/backend/internal/types"
)

// GenerateHandler serves recipe generation requests
type GenerateHandler struct {
	recipes service.IRecipeService
	logger  *zap.Logger
}

// NewGenerateHandler creates a new GenerateHandler instance
func NewGenerateHandler(recipes service.IRecipeService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{recipes: recipes, logger: logger}
}

// RegisterRoutes registers the generation route
func (h *GenerateHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/generate", h.Generate)
}

// Generate handles POST /api/generate. Every failure collapses to the same 500
// body; the detail only goes to the log.
func (h *GenerateHandler) Generate(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	h.logger.Info("API route hit", zap.String("request_id", requestID), zap.String("path", c.FullPath()))

	var req types.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.String("request_id", requestID), zap.Error(err))
		_ = c.Error(err)
		middleware.AbortWithInternalError(c)
		return
	}
	req.RequestID = requestID
	h.logger.Debug("Received data",
		zap.String("request_id", requestID),
		zap.String("goal", req.Goal),
		zap.String("ingredients", req.Ingredients),
	)

	recipe, err := h.recipes.GenerateRecipe(c.Request.Context(), &req)
	if err != nil {
		h.logFailure(requestID, err)
		_ = c.Error(err)
		middleware.AbortWithInternalError(c)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *GenerateHandler) logFailure(requestID string, err error) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("kind", string(service.KindOf(err))),
		zap.Error(err),
	}
	// The raw model output is logged once, by the audit trail
	var genErr *service.GenerationError
	if errors.As(err, &genErr) && len(genErr.Fields) > 0 {
		fields = append(fields, zap.Strings("fields", genErr.Fields))
	}
	h.logger.Error("recipe generation failed", fields...)
}

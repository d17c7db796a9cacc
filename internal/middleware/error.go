package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/nutrichef/backend/internal/types"
)

// Recovery turns a panic into the generic 500 body so no internals leak to the client
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		logger.Error("panic recovered",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", err),
			zap.Stack("stack"),
		)
		AbortWithInternalError(c)
	})
}

// AbortWithInternalError writes the only error response the API ever returns
func AbortWithInternalError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: types.InternalErrorMessage})
}

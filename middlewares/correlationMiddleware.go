package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/eorder_backend/utils"
)

// CorrelationMiddleware propagates (or mints) the correlation id so one
// storefront action can be traced through the saga and both remote calls.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader("X-Correlation-ID")
		if correlationId == "" {
			correlationId = uuid.New().String()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Correlation-ID", correlationId)
		c.Next()
	}
}

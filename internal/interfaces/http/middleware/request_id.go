package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"rete.backend/pkg/logger"
)

const RequestIDKey = "request_id"

// RequestIDMiddleware generates a unique ID for each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(logger.With(c.Request.Context(), logger.RequestIDKey, id))

		c.Next()
	}
}

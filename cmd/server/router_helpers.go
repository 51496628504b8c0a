package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"rete.backend/internal/infrastructure/metrics"
	"rete.backend/internal/interfaces/http/handlers"
	"rete.backend/internal/interfaces/http/middleware"
)

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.SessionHeader+", "+middleware.IdempotencyHeader+", X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine, h *handlers.HealthHandler) {
	r.GET("/health", h.Health)
}

func registerMetricsRoute(r *gin.Engine, m *metrics.Metrics) {
	r.GET("/metrics", gin.WrapH(m.Handler()))
}

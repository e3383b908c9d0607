package main

import (
	"call-relay/internal/httpapi"
	"call-relay/internal/ws"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, wsHandler *ws.Handler, registry *ws.Registry) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "ok",
			"service":     "call-relay",
			"connections": registry.Count(),
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// WebSocket endpoint for observers and operators.
	r.GET("/ws", wsHandler.Serve)

	api := r.Group("/api")
	{
		api.POST("/calls/initiate", h.InitiateCall)
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:session_id", h.GetSession)

		// Provider webhooks (public).
		// NOTE: These endpoints should be protected by Twilio signature
		// validation in production.
		twilio := api.Group("/twilio")
		{
			twilio.POST("/twiml", h.Voice)
			twilio.POST("/status-callback", h.StatusCallback)
			twilio.POST("/gather", h.Gather)
			twilio.POST("/no-input", h.NoInput)
		}
	}
}

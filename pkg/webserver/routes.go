package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Public routes (signature-based authentication)
		public := v1.Group("")
		{
			// Inbound webhook receiver, verified against the integration's
			// webhook signing secret
			hooks := public.Group("/hooks")
			{
				hooks.POST("/:uuid", s.handleIncomingHook)
			}
		}

		// Protected routes (admin JWT required)
		protected := v1.Group("")
		protected.Use(s.authMiddleware())
		{
			// Integration management
			integrations := protected.Group("/integrations")
			{
				integrations.GET("", s.listIntegrations)
				integrations.POST("", s.registerIntegration)
				integrations.GET("/templates", s.getTemplates)
				integrations.GET("/:id", s.getIntegrationStatus)
				integrations.PUT("/:id", s.updateIntegration)
				integrations.DELETE("/:id", s.deleteIntegration)
				integrations.POST("/:id/activate", s.activateIntegration)
				integrations.POST("/:id/deactivate", s.deactivateIntegration)
				integrations.POST("/:id/send", s.sendToAPI)

				// Webhook subscriptions
				integrations.GET("/:id/webhooks", s.listWebhooks)
				integrations.POST("/:id/webhooks", s.createWebhook)
				integrations.POST("/:id/webhooks/reload", s.reloadWebhooks)
			}

			// Webhook management
			webhooks := protected.Group("/webhooks")
			{
				webhooks.PUT("/:id", s.updateWebhook)
				webhooks.DELETE("/:id", s.deleteWebhook)
				webhooks.POST("/:id/test", s.testWebhook)
			}

			// Event dispatch
			events := protected.Group("/events")
			{
				events.POST("/trigger", s.triggerEvent)
			}

			// Analytics and statistics
			analytics := protected.Group("/analytics")
			{
				analytics.GET("/deliveries", s.getDeliveryStats)
				analytics.GET("/errors", s.getErrorRates)
				analytics.GET("/volume", s.getLogVolume)
				analytics.GET("/events", s.getEventTypeBreakdown)
			}
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

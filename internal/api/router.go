package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"threat-monitor/internal/config"
	"threat-monitor/internal/logging"
)

// NewRouter builds the HTTP surface over the monitoring engine.
func NewRouter(h *Handler, hub *Hub, logger *logging.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		// Monitoring rules
		api.GET("/rules", h.ListRules)
		api.POST("/rules", h.CreateRule)
		api.GET("/rules/:id", h.GetRule)
		api.PUT("/rules/:id", h.UpdateRule)
		api.DELETE("/rules/:id", h.DeleteRule)

		// Alerts
		api.GET("/alerts", h.ListAlerts)
		api.PUT("/alerts/:id/status", h.UpdateAlertStatus)
		api.POST("/alerts/:id/notes", h.AddAlertNote)

		// Engine
		api.POST("/monitor/run", h.RunCycle)
		api.GET("/dashboard", h.GetDashboard)
	}

	r.GET("/ws/alerts", hub.Serve)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// Package api assembles the gin engine serving /api/v1.
package api

import (
	"civicdesk/backend/internal/api/handler"
	"civicdesk/backend/internal/models"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires middleware and routes onto a fresh engine.
func NewRouter(h *handler.Handler, allowOrigins []string) *gin.Engine {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	r := gin.New()
	r.Use(gin.Recovery(), handler.AccessLog(h.Logger))
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware())
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	authed := h.Authenticate()
	admins := handler.RequireRole(models.RoleGod, models.RoleKing)
	gods := handler.RequireRole(models.RoleGod)

	r.GET("/ws", authed, admins, h.ServeWebSocket)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)

		protected := api.Group("")
		protected.Use(authed, admins)

		protected.GET("/complaints", h.ListComplaints)
		protected.GET("/complaints/export", h.ExportComplaints)
		protected.GET("/complaints/:id", h.GetComplaint)
		protected.PATCH("/complaints/:id/status", h.UpdateStatus)

		protected.GET("/dashboard/stats", h.Stats)
		protected.GET("/dashboard/sentiment", h.Sentiment)
		protected.GET("/dashboard/heatmap", h.Heatmap)
		protected.GET("/leaderboard", h.Leaderboard)

		protected.GET("/profile", h.GetProfile)
		protected.PATCH("/profile", h.UpdateProfile)

		god := protected.Group("")
		god.Use(gods)
		god.GET("/kings", h.Kings)
		god.GET("/assignments", h.ListAssignments)
		god.PUT("/assignments/:category", h.Assign)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

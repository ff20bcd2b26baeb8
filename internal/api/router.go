package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/spots-backend-go/internal/config"
	"github.com/jengzang/spots-backend-go/internal/handler"
	"github.com/jengzang/spots-backend-go/internal/middleware"
	"github.com/jengzang/spots-backend-go/internal/service"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// Deps are the services the router exposes
type Deps struct {
	Config    *config.Config
	Logger    logger.Logger
	Metrics   *metrics.Manager
	Limiter   *middleware.RateLimiter
	Discovery *service.DiscoveryService
	Sessions  *service.SessionService
}

// SetupRouter builds the HTTP router
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(d.Logger.Named("http"), d.Metrics))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Theme")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Spots Backend API is running",
		})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	spots := handler.NewSpotHandler(d.Discovery)
	heat := handler.NewHeatmapHandler(d.Discovery)
	sessions := handler.NewSessionHandler(d.Sessions)

	api := r.Group("/api/v1")
	if d.Limiter != nil {
		api.Use(middleware.RateLimit(d.Limiter))
	}
	api.Use(middleware.Auth(d.Config.JWTSecret, d.Config.AuthRequired))
	{
		api.GET("/spots", spots.ListSpots)
		api.GET("/filters/options", spots.GetFilterOptions)
		api.GET("/distance", spots.GetDistance)

		heatmap := api.Group("/heatmap")
		{
			heatmap.GET("", heat.GetHeatmap)
			heatmap.GET("/render-config", heat.GetRenderConfig)
		}

		s := api.Group("/sessions")
		{
			s.POST("", sessions.CreateSession)
			s.GET("/:id", sessions.GetSession)
			s.DELETE("/:id", sessions.DeleteSession)

			s.POST("/:id/filters/techniques", sessions.ToggleTechnique)
			s.POST("/:id/filters/species", sessions.ToggleSpecies)
			s.PUT("/:id/filters/radius", sessions.SetRadius)
			s.PUT("/:id/filters/search", sessions.SetSearchTerm)
			s.DELETE("/:id/filters", sessions.ClearFilters)

			s.POST("/:id/recenter", sessions.Recenter)
			s.PUT("/:id/mode", sessions.SetMode)
			s.PUT("/:id/heatmap", sessions.SetHeatmapQuery)
			s.PUT("/:id/zoom", sessions.SetZoom)
			s.POST("/:id/events", sessions.DispatchEvent)

			s.POST("/:id/picker", sessions.ArmPicker)
			s.POST("/:id/picker/confirm", sessions.ConfirmPicker)
			s.POST("/:id/picker/cancel", sessions.CancelPicker)
		}
	}

	return r
}

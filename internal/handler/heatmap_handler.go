package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/spots-backend-go/internal/heatmap"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/service"
	"github.com/jengzang/spots-backend-go/pkg/response"
)

// HeatmapHandler handles HTTP requests for the catch heatmap
type HeatmapHandler struct {
	service *service.DiscoveryService
}

// NewHeatmapHandler creates a new heatmap handler
func NewHeatmapHandler(service *service.DiscoveryService) *HeatmapHandler {
	return &HeatmapHandler{service: service}
}

// GetHeatmap handles GET /api/v1/heatmap
func (h *HeatmapHandler) GetHeatmap(c *gin.Context) {
	var filter models.HeatmapFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	if filter.Month < 0 || filter.Month > 12 {
		response.BadRequest(c, "Invalid month", heatmap.ErrInvalidMonth)
		return
	}

	resp, err := h.service.GetHeatmap(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "Failed to get heatmap", err)
		return
	}
	response.Success(c, resp)
}

// GetRenderConfig handles GET /api/v1/heatmap/render-config
func (h *HeatmapHandler) GetRenderConfig(c *gin.Context) {
	zoom, err := strconv.Atoi(c.DefaultQuery("zoom", "12"))
	if err != nil || zoom < 0 {
		response.BadRequest(c, "zoom must be a non-negative integer", err)
		return
	}
	response.Success(c, h.service.RenderConfig(zoom))
}

package handler

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/spots-backend-go/internal/filter"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/service"
	"github.com/jengzang/spots-backend-go/pkg/response"
)

// SpotHandler handles HTTP requests for spot discovery
type SpotHandler struct {
	service *service.DiscoveryService
}

// NewSpotHandler creates a new spot handler
func NewSpotHandler(service *service.DiscoveryService) *SpotHandler {
	return &SpotHandler{service: service}
}

// ListSpots handles GET /api/v1/spots
func (h *SpotHandler) ListSpots(c *gin.Context) {
	var q models.SpotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	if q.RadiusKm != nil && (*q.RadiusKm < 0 || !finite(*q.RadiusKm)) {
		response.BadRequest(c, "Invalid radius", filter.ErrInvalidRadius)
		return
	}
	if (q.Lat == nil) != (q.Lon == nil) {
		response.BadRequest(c, "lat and lon must be given together", nil)
		return
	}
	if q.Lat != nil && (!finite(*q.Lat) || !finite(*q.Lon)) {
		response.BadRequest(c, "Coordinates must be finite", nil)
		return
	}

	spots, err := h.service.ListSpots(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c, "Failed to list spots", err)
		return
	}

	if q.Format == "geojson" {
		c.JSON(http.StatusOK, service.MarkersToGeoJSON(spots))
		return
	}
	response.Success(c, gin.H{
		"data":  spots,
		"count": len(spots),
	})
}

// GetFilterOptions handles GET /api/v1/filters/options
func (h *SpotHandler) GetFilterOptions(c *gin.Context) {
	techniques, species, err := h.service.FilterOptions(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to load filter options", err)
		return
	}

	response.Success(c, gin.H{
		"techniques": techniques,
		"species":    species,
	})
}

// GetDistance handles GET /api/v1/distance
func (h *SpotHandler) GetDistance(c *gin.Context) {
	var q struct {
		FromLat float64 `form:"fromLat" binding:"min=-90,max=90"`
		FromLon float64 `form:"fromLon" binding:"min=-180,max=180"`
		ToLat   float64 `form:"toLat" binding:"min=-90,max=90"`
		ToLon   float64 `form:"toLon" binding:"min=-180,max=180"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	leg := h.service.Measure(
		models.LatLng{Lat: q.FromLat, Lng: q.FromLon},
		models.LatLng{Lat: q.ToLat, Lng: q.ToLon},
	)
	response.Success(c, leg)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

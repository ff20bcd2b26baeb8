package service

import (
	"context"
	"fmt"

	"github.com/jengzang/spots-backend-go/internal/discovery"
	"github.com/jengzang/spots-backend-go/internal/heatmap"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/spatial"
)

// Catalog is everything the discovery endpoints read
type Catalog interface {
	discovery.Catalog
	discovery.OptionsCatalog
	heatmap.Source
}

// DiscoveryService handles stateless spot discovery and heatmap queries
type DiscoveryService struct {
	catalog Catalog
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(catalog Catalog) *DiscoveryService {
	return &DiscoveryService{catalog: catalog}
}

// ListSpots fetches the (server-filtered) spot list and resolves the
// candidate set once for the given query
func (s *DiscoveryService) ListSpots(ctx context.Context, q models.SpotQuery) ([]models.SpotMarker, error) {
	criteria := models.FilterCriteria{Techniques: q.Techniques, Species: q.Species}

	var (
		spots []models.SpotMarker
		err   error
	)
	if criteria.HasServerFilter() {
		spots, err = s.catalog.ListSpotsFiltered(ctx, q.Techniques, q.Species)
	} else {
		spots, err = s.catalog.ListSpots(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}

	var pos *models.Position
	if q.Lat != nil && q.Lon != nil {
		pos = &models.Position{Latitude: *q.Lat, Longitude: *q.Lon, IsUserLocation: true}
	}
	if q.RadiusKm == nil && q.Q == "" {
		return spots, nil
	}
	// One-shot resolution, the memoized resolver is per session
	return discovery.Resolve(spots, q.RadiusKm, q.Q, pos), nil
}

// FilterOptions lists techniques and species concurrently
func (s *DiscoveryService) FilterOptions(ctx context.Context) ([]models.Technique, []models.Species, error) {
	return discovery.LoadFilterOptions(ctx, s.catalog)
}

// GetHeatmap returns the heat points for a species and month
func (s *DiscoveryService) GetHeatmap(ctx context.Context, filter models.HeatmapFilter) (models.HeatmapResponse, error) {
	return s.catalog.GetHeatmap(ctx, filter.SpeciesID, filter.Month)
}

// RenderConfig returns the heat layer configuration for a zoom level
func (s *DiscoveryService) RenderConfig(zoom int) heatmap.RenderConfig {
	return heatmap.ConfigForZoom(zoom)
}

// Measure returns the distance, initial bearing and midpoint from a to b
func (s *DiscoveryService) Measure(a, b models.LatLng) models.Leg {
	return models.Leg{
		DistanceKm: spatial.DistanceKm(a, b),
		BearingDeg: spatial.Bearing(a, b),
		Midpoint:   spatial.Midpoint(a, b),
	}
}

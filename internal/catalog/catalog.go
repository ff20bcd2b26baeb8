// Package catalog serves the spot catalog to the discovery engine.
package catalog

import (
	"context"

	"github.com/jengzang/spots-backend-go/internal/discovery"
	"github.com/jengzang/spots-backend-go/internal/heatmap"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/repository"
)

var (
	_ discovery.Catalog        = (*Local)(nil)
	_ discovery.OptionsCatalog = (*Local)(nil)
	_ heatmap.Source           = (*Local)(nil)
)

// Local answers catalog queries from the local database.
type Local struct {
	spots *repository.SpotRepository
	heat  *repository.HeatmapRepository
}

// NewLocal creates a catalog over the given repositories.
func NewLocal(spots *repository.SpotRepository, heat *repository.HeatmapRepository) *Local {
	return &Local{spots: spots, heat: heat}
}

func (l *Local) ListSpots(ctx context.Context) ([]models.SpotMarker, error) {
	return l.spots.ListSpots(ctx)
}

func (l *Local) ListSpotsFiltered(ctx context.Context, techniques, species []string) ([]models.SpotMarker, error) {
	return l.spots.ListSpotsFiltered(ctx, techniques, species)
}

func (l *Local) ListTechniques(ctx context.Context) ([]models.Technique, error) {
	return l.spots.ListTechniques(ctx)
}

func (l *Local) ListSpecies(ctx context.Context) ([]models.Species, error) {
	return l.spots.ListSpecies(ctx)
}

// GetHeatmap rejects months outside 0..12 before querying.
func (l *Local) GetHeatmap(ctx context.Context, speciesID string, month int) (models.HeatmapResponse, error) {
	if month < 0 || month > 12 {
		return models.HeatmapResponse{}, heatmap.ErrInvalidMonth
	}
	return l.heat.GetHeatmap(ctx, models.HeatmapFilter{SpeciesID: speciesID, Month: month})
}

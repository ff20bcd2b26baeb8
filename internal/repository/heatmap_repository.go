package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/spatial"
)

// HeatmapRepository aggregates catches into heat cells
type HeatmapRepository struct {
	db *sql.DB
}

// NewHeatmapRepository creates a new heatmap repository
func NewHeatmapRepository(db *sql.DB) *HeatmapRepository {
	return &HeatmapRepository{db: db}
}

// GetHeatmap buckets catches into geohash cells and normalizes each cell's
// count by the busiest cell, so intensities fall in (0, 1].
func (r *HeatmapRepository) GetHeatmap(ctx context.Context, filter models.HeatmapFilter) (models.HeatmapResponse, error) {
	query := `SELECT substr(c.geohash, 1, ?) AS cell, COUNT(*) AS n FROM catches c WHERE 1 = 1`
	args := []interface{}{spatial.HeatCellPrecision}

	if filter.SpeciesID != "" {
		query += ` AND c.species_id IN (SELECT id FROM species WHERE id = ? OR name_key = ?)`
		args = append(args, filter.SpeciesID, nameKey(filter.SpeciesID))
	}
	if filter.Month > 0 {
		query += ` AND CAST(strftime('%m', c.caught_at, 'unixepoch') AS INTEGER) = ?`
		args = append(args, filter.Month)
	}
	query += ` GROUP BY cell ORDER BY cell`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.HeatmapResponse{}, fmt.Errorf("failed to query heatmap: %w", err)
	}
	defer rows.Close()

	type cell struct {
		hash  string
		count int
	}
	var (
		cells    []cell
		maxCount int
	)
	for rows.Next() {
		var c cell
		if err := rows.Scan(&c.hash, &c.count); err != nil {
			return models.HeatmapResponse{}, fmt.Errorf("failed to scan heat cell: %w", err)
		}
		if c.count > maxCount {
			maxCount = c.count
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return models.HeatmapResponse{}, fmt.Errorf("failed to read heat cells: %w", err)
	}

	points := make([]models.HeatPoint, 0, len(cells))
	for _, c := range cells {
		lat, lng := spatial.DecodeGeohash(c.hash)
		points = append(points, models.HeatPoint{
			Lat:       lat,
			Lng:       lng,
			Intensity: float64(c.count) / float64(maxCount),
		})
	}

	return models.HeatmapResponse{
		Points:    points,
		Count:     len(points),
		MaxValue:  maxCount,
		SpeciesID: filter.SpeciesID,
		Month:     filter.Month,
	}, nil
}

package models

// HeatPoint represents a single weighted point of the catch heatmap
type HeatPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"` // Normalized 0-1
}

// HeatmapResponse represents the heatmap API response
type HeatmapResponse struct {
	Points    []HeatPoint `json:"points"`
	Count     int         `json:"count"`
	MaxValue  int         `json:"max_value"`
	SpeciesID string      `json:"species_id,omitempty"`
	Month     int         `json:"month,omitempty"`
}

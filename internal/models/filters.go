package models

// FilterCriteria is a snapshot of the user's selected filters.
// Every field is optional; the zero value means "show everything".
type FilterCriteria struct {
	Techniques []string `json:"techniques"` // Sorted
	Species    []string `json:"species"`    // Sorted
	RadiusKm   *float64 `json:"radiusKm"`
	SearchTerm string   `json:"searchTerm"`
}

// HasServerFilter reports whether the catalog must be asked for a filtered list
func (c FilterCriteria) HasServerFilter() bool {
	return len(c.Techniques) > 0 || len(c.Species) > 0
}

// IsEmpty reports whether no filter dimension is set
func (c FilterCriteria) IsEmpty() bool {
	return !c.HasServerFilter() && c.RadiusKm == nil && c.SearchTerm == ""
}

// SpotQuery represents filter parameters for the stateless spot discovery endpoint
type SpotQuery struct {
	Techniques []string `form:"technique"`
	Species    []string `form:"species"`
	RadiusKm   *float64 `form:"radiusKm"`
	Q          string   `form:"q"`
	Lat        *float64 `form:"lat"`
	Lon        *float64 `form:"lon"`
	Format     string   `form:"format"` // json, geojson
}

// HeatmapFilter represents filter parameters for heatmap queries
type HeatmapFilter struct {
	SpeciesID string `form:"speciesId"`
	Month     int    `form:"month"` // 1-12, 0 means all months
}

package models

// CreateSessionRequest opens a map session. Fix is what the device
// reported; FixError names why there is none ("denied", "timeout",
// "unavailable").
type CreateSessionRequest struct {
	Fix      *DeviceFix `json:"fix"`
	FixError string     `json:"fixError"`
	Theme    string     `json:"theme"`
}

// RecenterRequest carries a fresh device reading
type RecenterRequest struct {
	Fix      *DeviceFix `json:"fix"`
	FixError string     `json:"fixError"`
}

// NameRequest names a technique or species to toggle
type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

// RadiusRequest sets the radius filter, null clears it
type RadiusRequest struct {
	RadiusKm *float64 `json:"radiusKm"`
}

// SearchRequest sets the free text search term
type SearchRequest struct {
	Term string `json:"term"`
}

// ModeRequest switches between "markers" and "heatmap"
type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// HeatmapQueryRequest selects the heatmap species and month
type HeatmapQueryRequest struct {
	SpeciesID string `json:"speciesId"`
	Month     int    `json:"month" binding:"min=0,max=12"`
}

// ZoomRequest sets the map zoom level
type ZoomRequest struct {
	Zoom int `json:"zoom" binding:"min=0,max=22"`
}

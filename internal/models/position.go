package models

// LatLng is a bare coordinate pair in degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Leg describes the great-circle path between two points
type Leg struct {
	DistanceKm float64 `json:"distanceKm"`
	BearingDeg float64 `json:"bearingDeg"`
	Midpoint   LatLng  `json:"midpoint"`
}

// Position is the reconciled "current position" of a map session.
// A Position is replaced wholesale, never mutated in place.
type Position struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Accuracy       float64 `json:"accuracy,omitempty"` // Meters, 0 when unknown
	IsUserLocation bool    `json:"isUserLocation"`     // false for the fallback coordinate
	Seq            uint64  `json:"seq"`                // Increases on every replacement
}

// LatLng returns the coordinate pair of the position
func (p Position) LatLng() LatLng {
	return LatLng{Lat: p.Latitude, Lng: p.Longitude}
}

// PositionState is the position together with its loading/error provenance
type PositionState struct {
	Position *Position `json:"position,omitempty"`
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
	// Approximate is the non-blocking "approximate location" indicator
	Approximate bool `json:"approximate"`
}

// DeviceFix is what a device geolocation capability reports
type DeviceFix struct {
	Lat      float64 `json:"lat" binding:"min=-90,max=90"`
	Lon      float64 `json:"lon" binding:"min=-180,max=180"`
	Accuracy float64 `json:"accuracy"`
}

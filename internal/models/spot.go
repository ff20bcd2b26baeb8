package models

import (
	"math"

	"github.com/paulmach/orb"
)

// Spot moderation states
const (
	SpotStatePending  = "PENDING"
	SpotStateApproved = "APPROVED"
	SpotStateRejected = "REJECTED"
)

// SpotMarker represents a fishing spot as shown on the map.
// Coordinates are [lon, lat] as delivered by the catalog and may be malformed.
type SpotMarker struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Coordinates []float64 `json:"coordinates"`
	State       string    `json:"state"`
}

// Point returns the marker location, ok is false when the coordinates are
// not a finite [lon, lat] pair inside the valid degree ranges.
func (s SpotMarker) Point() (orb.Point, bool) {
	if len(s.Coordinates) != 2 {
		return orb.Point{}, false
	}
	lon, lat := s.Coordinates[0], s.Coordinates[1]
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return orb.Point{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

// Technique is a fishing method
type Technique struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Species is a fish species with its common names
type Species struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	CommonNames []string `json:"commonNames" yaml:"commonNames"`
}

// Catch is a catch record anchored to a coordinate
type Catch struct {
	ID        string  `json:"id" yaml:"id"`
	SpotID    string  `json:"spotId,omitempty" yaml:"spotId"`
	SpeciesID string  `json:"speciesId" yaml:"speciesId"`
	Lat       float64 `json:"lat" yaml:"lat"`
	Lng       float64 `json:"lng" yaml:"lng"`
	CaughtAt  int64   `json:"caughtAt" yaml:"caughtAt"` // Unix timestamp
	WeightKg  float64 `json:"weightKg,omitempty" yaml:"weightKg"`
}

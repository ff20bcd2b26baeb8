package service

import (
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/paulmach/orb/geojson"
)

// MarkersToGeoJSON converts markers to a FeatureCollection. Markers
// without valid coordinates have no geometry and are left out.
func MarkersToGeoJSON(spots []models.SpotMarker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range spots {
		pt, ok := s.Point()
		if !ok {
			continue
		}
		f := geojson.NewFeature(pt)
		f.ID = s.ID
		f.Properties["name"] = s.Name
		f.Properties["description"] = s.Description
		f.Properties["state"] = s.State
		fc.Append(f)
	}
	return fc
}

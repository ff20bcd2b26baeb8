package spatial

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/jengzang/spots-backend-go/internal/models"
)

// EarthRadiusKm is Earth's mean radius in kilometers
const EarthRadiusKm = 6371.0

// boundMargin pads prefilter rectangles so float noise never drops a spot
// sitting exactly on the radius.
const boundMargin = 1e-6 * s1.Degree

var validLat = r1.Interval{Lo: -math.Pi / 2, Hi: math.Pi / 2}

// DistanceKm calculates the great-circle distance between two points in
// kilometers using the haversine formula
func DistanceKm(a, b models.LatLng) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon
	// Rounding can push h a hair above 1 for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RadiusBound returns a lat/lng rectangle containing every point within
// radiusKm of center. It is a cheap prefilter, not a replacement for DistanceKm.
func RadiusBound(center models.LatLng, radiusKm float64) s2.Rect {
	angle := s1.Angle(radiusKm / EarthRadiusKm)
	c := s2.CapFromCenterAngle(s2.PointFromLatLng(s2.LatLngFromDegrees(center.Lat, center.Lng)), angle)
	rb := c.RectBound()
	return s2.Rect{
		Lat: rb.Lat.Expanded(boundMargin.Radians()).Intersection(validLat),
		Lng: rb.Lng.Expanded(boundMargin.Radians()),
	}
}

// RectContains reports whether the point lies inside the rectangle
func RectContains(r s2.Rect, p models.LatLng) bool {
	return r.ContainsLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng))
}

// Bearing calculates the initial bearing (forward azimuth) from point 1 to point 2
// Returns bearing in degrees (0-360), where 0 is North, 90 is East, etc.
func Bearing(from, to models.LatLng) float64 {
	lat1Rad := from.Lat * math.Pi / 180
	lat2Rad := to.Lat * math.Pi / 180
	lonDiff := (to.Lng - from.Lng) * math.Pi / 180

	y := math.Sin(lonDiff) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)

	bearingDeg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(bearingDeg+360, 360)
}

// Midpoint calculates the midpoint between two points on the great circle joining them
func Midpoint(a, b models.LatLng) models.LatLng {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)

	mid := s2.LatLngFromPoint(s2.Interpolate(0.5, s2.PointFromLatLng(p1), s2.PointFromLatLng(p2)))
	return models.LatLng{Lat: mid.Lat.Degrees(), Lng: mid.Lng.Degrees()}
}

// Package discovery turns the catalog's spot list and the user's filters
// into the set of markers visible on the map.
package discovery

import (
	"strings"
	"sync"

	"github.com/golang/geo/s2"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/spatial"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// distanceEpsilonKm keeps spots lying exactly on the radius inside it.
const distanceEpsilonKm = 1e-9

// DistanceFunc computes kilometers between two coordinates.
type DistanceFunc func(a, b models.LatLng) float64

// Resolve filters spots by search term and radius. It is a pure function:
// identical inputs give an identical list in input order.
//
// The search term matches name or description case-insensitively. The
// radius applies only when both radiusKm and pos are set; spots without
// valid coordinates are then excluded.
func Resolve(spots []models.SpotMarker, radiusKm *float64, searchTerm string, pos *models.Position) []models.SpotMarker {
	return resolve(spots, radiusKm, searchTerm, pos, spatial.DistanceKm)
}

func resolve(spots []models.SpotMarker, radiusKm *float64, searchTerm string, pos *models.Position, distance DistanceFunc) []models.SpotMarker {
	term := strings.ToLower(strings.TrimSpace(searchTerm))
	useRadius := radiusKm != nil && pos != nil

	var (
		center models.LatLng
		limit  float64
		bound  s2.Rect
	)
	if useRadius {
		center = pos.LatLng()
		limit = *radiusKm + distanceEpsilonKm
		bound = spatial.RadiusBound(center, limit)
	}

	out := make([]models.SpotMarker, 0, len(spots))
	for _, s := range spots {
		if term != "" && !matchesTerm(s, term) {
			continue
		}
		if useRadius {
			pt, ok := s.Point()
			if !ok {
				continue
			}
			ll := models.LatLng{Lat: pt.Lat(), Lng: pt.Lon()}
			if !spatial.RectContains(bound, ll) || distance(center, ll) > limit {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func matchesTerm(s models.SpotMarker, term string) bool {
	return strings.Contains(strings.ToLower(s.Name), term) ||
		strings.Contains(strings.ToLower(s.Description), term)
}

// Input is everything the candidate set depends on. SpotsVersion must change
// whenever Spots does.
type Input struct {
	Spots        []models.SpotMarker
	SpotsVersion uint64
	RadiusKm     *float64
	SearchTerm   string
	Position     *models.Position
}

type memoKey struct {
	version   uint64
	hasRadius bool
	radius    float64
	term      string
	hasPos    bool
	lat, lng  float64
}

func keyOf(in Input) memoKey {
	k := memoKey{version: in.SpotsVersion, term: in.SearchTerm}
	if in.RadiusKm != nil {
		k.hasRadius = true
		k.radius = *in.RadiusKm
	}
	if in.Position != nil {
		k.hasPos = true
		k.lat, k.lng = in.Position.Latitude, in.Position.Longitude
	}
	return k
}

// Resolver memoizes Resolve on its four inputs so unrelated reads do not
// recompute distances.
type Resolver struct {
	distance DistanceFunc
	metrics  *metrics.Manager

	mu     sync.Mutex
	valid  bool
	key    memoKey
	result []models.SpotMarker
}

// NewResolver creates a memoizing resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{distance: spatial.DistanceKm}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the candidate set for in. The returned slice is shared
// with later calls and must not be modified.
func (r *Resolver) Resolve(in Input) []models.SpotMarker {
	k := keyOf(in)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.valid && r.key == k {
		r.metrics.IncCandidateCacheHits()
		return r.result
	}
	r.result = resolve(in.Spots, in.RadiusKm, in.SearchTerm, in.Position, r.distance)
	r.key = k
	r.valid = true
	r.metrics.IncCandidateResolutions()
	return r.result
}

package discovery_test

import (
	"math"
	"testing"

	"github.com/jengzang/spots-backend-go/internal/discovery"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/spatial"
	. "github.com/smartystreets/goconvey/convey"
)

func km(v float64) *float64 { return &v }

// offset walks distanceKm from start along the given initial bearing
func offset(start models.LatLng, bearing, distanceKm float64) models.LatLng {
	lat := start.Lat * math.Pi / 180
	lon := start.Lng * math.Pi / 180
	brg := bearing * math.Pi / 180
	d := distanceKm / spatial.EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat)*math.Cos(d) + math.Cos(lat)*math.Sin(d)*math.Cos(brg))
	lon2 := lon + math.Atan2(math.Sin(brg)*math.Sin(d)*math.Cos(lat), math.Cos(d)-math.Sin(lat)*math.Sin(lat2))
	return models.LatLng{Lat: lat2 * 180 / math.Pi, Lng: lon2 * 180 / math.Pi}
}

func spotAt(id, name string, lat, lon float64) models.SpotMarker {
	return models.SpotMarker{ID: id, Name: name, Coordinates: []float64{lon, lat}, State: models.SpotStateApproved}
}

func TestResolve(t *testing.T) {
	Convey("Given a user near Montevideo", t, func() {
		user := &models.Position{Latitude: -34.90, Longitude: -56.16, IsUserLocation: true}
		nearby := spotAt("1", "Bahía del Pescador", -34.91, -56.17)

		Convey("When the radius is 5 km", func() {
			got := discovery.Resolve([]models.SpotMarker{nearby}, km(5), "", user)

			Convey("Then the spot 1.3 km away is included", func() {
				So(got, ShouldHaveLength, 1)
			})
		})

		Convey("When the radius is 1 km", func() {
			got := discovery.Resolve([]models.SpotMarker{nearby}, km(1), "", user)

			Convey("Then the spot is excluded", func() {
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When a spot lies exactly on the radius", func() {
			edge := offset(user.LatLng(), 123, 3)
			onEdge := spotAt("edge", "Edge", edge.Lat, edge.Lng)
			r := spatial.DistanceKm(user.LatLng(), edge)

			Convey("Then the boundary is inclusive", func() {
				So(discovery.Resolve([]models.SpotMarker{onEdge}, km(r), "", user), ShouldHaveLength, 1)
				So(discovery.Resolve([]models.SpotMarker{onEdge}, km(3), "", user), ShouldHaveLength, 1)
			})
		})

		Convey("When searching for a term", func() {
			spots := []models.SpotMarker{
				nearby,
				spotAt("2", "Laguna Norte", -34.5, -56.0),
				{ID: "3", Name: "Muelle", Description: "Cerca de la BAHÍA", Coordinates: []float64{-56.2, -34.9}},
			}
			got := discovery.Resolve(spots, nil, "bahía", user)

			Convey("Then name and description match case-insensitively", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, "1")
				So(got[1].ID, ShouldEqual, "3")
			})
		})

		Convey("When spots have malformed coordinates", func() {
			spots := []models.SpotMarker{
				{ID: "short", Name: "Short", Coordinates: []float64{-56.17}},
				{ID: "none", Name: "None"},
				{ID: "range", Name: "Range", Coordinates: []float64{-56.17, 134.0}},
				nearby,
			}

			Convey("Then they are excluded only while a radius is active", func() {
				withRadius := discovery.Resolve(spots, km(50), "", user)
				So(withRadius, ShouldHaveLength, 1)
				So(withRadius[0].ID, ShouldEqual, "1")

				So(discovery.Resolve(spots, nil, "", user), ShouldHaveLength, 4)
			})
		})

		Convey("When no position is available", func() {
			far := spotAt("far", "Far", 10, 10)
			got := discovery.Resolve([]models.SpotMarker{far}, km(1), "", nil)

			Convey("Then the radius is not applied", func() {
				So(got, ShouldHaveLength, 1)
			})
		})

		Convey("When search and radius combine", func() {
			spots := []models.SpotMarker{
				nearby,
				spotAt("far-bahia", "Bahía lejana", -30.0, -50.0),
				spotAt("near-other", "Otro", -34.905, -56.165),
			}
			got := discovery.Resolve(spots, km(5), "bahía", user)

			Convey("Then both rules must hold", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, "1")
			})
		})

		Convey("When resolving twice with identical inputs", func() {
			spots := []models.SpotMarker{
				spotAt("c", "C", -34.92, -56.15),
				nearby,
				spotAt("a", "A", -34.89, -56.16),
			}
			first := discovery.Resolve(spots, km(10), "", user)
			second := discovery.Resolve(spots, km(10), "", user)

			Convey("Then the output is identical and in input order", func() {
				So(second, ShouldResemble, first)
				So([]string{first[0].ID, first[1].ID, first[2].ID}, ShouldResemble, []string{"c", "1", "a"})
			})
		})
	})
}

func TestResolverMemo(t *testing.T) {
	Convey("Given a memoizing resolver with a counting distance", t, func() {
		calls := 0
		r := discovery.NewResolver(discovery.WithDistance(func(a, b models.LatLng) float64 {
			calls++
			return spatial.DistanceKm(a, b)
		}))
		user := &models.Position{Latitude: -34.90, Longitude: -56.16, Seq: 1}
		in := discovery.Input{
			Spots:        []models.SpotMarker{spotAt("1", "A", -34.91, -56.17), spotAt("2", "B", -34.92, -56.18)},
			SpotsVersion: 1,
			RadiusKm:     km(5),
			Position:     user,
		}

		first := r.Resolve(in)
		So(calls, ShouldEqual, 2)

		Convey("When called again with the same inputs", func() {
			again := r.Resolve(in)

			Convey("Then no distance is recomputed", func() {
				So(calls, ShouldEqual, 2)
				So(again, ShouldResemble, first)
			})
		})

		Convey("When the radius changes", func() {
			in.RadiusKm = km(4)
			r.Resolve(in)

			Convey("Then distances are recomputed", func() {
				So(calls, ShouldEqual, 4)
			})
		})

		Convey("When the spot version changes", func() {
			in.SpotsVersion = 2
			r.Resolve(in)

			Convey("Then the memo is invalidated", func() {
				So(calls, ShouldEqual, 4)
			})
		})

		Convey("When a new position value arrives", func() {
			in.Position = &models.Position{Latitude: -34.905, Longitude: -56.165, Seq: 2}
			r.Resolve(in)

			Convey("Then the memo is invalidated", func() {
				So(calls, ShouldEqual, 4)
			})
		})
	})
}

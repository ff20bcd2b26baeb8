package spatial_test

import (
	"math"
	"testing"

	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/spatial"
	. "github.com/smartystreets/goconvey/convey"
)

// destination walks distanceKm from start along the given initial bearing
func destination(start models.LatLng, bearing, distanceKm float64) models.LatLng {
	lat := start.Lat * math.Pi / 180
	lon := start.Lng * math.Pi / 180
	brg := bearing * math.Pi / 180
	d := distanceKm / spatial.EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat)*math.Cos(d) + math.Cos(lat)*math.Sin(d)*math.Cos(brg))
	lon2 := lon + math.Atan2(math.Sin(brg)*math.Sin(d)*math.Cos(lat), math.Cos(d)-math.Sin(lat)*math.Sin(lat2))
	return models.LatLng{Lat: lat2 * 180 / math.Pi, Lng: lon2 * 180 / math.Pi}
}

var samples = []models.LatLng{
	{Lat: -34.90, Lng: -56.16},
	{Lat: -34.91, Lng: -56.17},
	{Lat: 51.5074, Lng: -0.1278},
	{Lat: 40.7128, Lng: -74.0060},
	{Lat: 89.9, Lng: 179.9},
	{Lat: -89.9, Lng: -179.9},
	{Lat: 0, Lng: 0},
	{Lat: 0, Lng: 180},
}

func TestDistanceKm(t *testing.T) {
	Convey("Given the haversine distance", t, func() {
		Convey("Then a point is at zero distance from itself", func() {
			for _, a := range samples {
				So(spatial.DistanceKm(a, a), ShouldEqual, 0)
			}
		})

		Convey("Then it is symmetric", func() {
			for _, a := range samples {
				for _, b := range samples {
					So(spatial.DistanceKm(a, b), ShouldAlmostEqual, spatial.DistanceKm(b, a), 1e-9)
				}
			}
		})

		Convey("Then it matches known distances", func() {
			london := models.LatLng{Lat: 51.5074, Lng: -0.1278}
			newYork := models.LatLng{Lat: 40.7128, Lng: -74.0060}
			So(spatial.DistanceKm(london, newYork), ShouldAlmostEqual, 5570, 10)

			user := models.LatLng{Lat: -34.90, Lng: -56.16}
			spot := models.LatLng{Lat: -34.91, Lng: -56.17}
			d := spatial.DistanceKm(user, spot)
			So(d, ShouldBeBetween, 1.0, 2.0)
		})

		Convey("Then antipodal points are half the circumference apart", func() {
			d := spatial.DistanceKm(models.LatLng{Lat: 0, Lng: 0}, models.LatLng{Lat: 0, Lng: 180})
			So(d, ShouldAlmostEqual, spatial.EarthRadiusKm*math.Pi, 1e-6)
		})

		Convey("Then distances add up along a great circle", func() {
			a := models.LatLng{Lat: -34.90, Lng: -56.16}
			c := destination(a, 37, 120)
			b := spatial.Midpoint(a, c)

			ab := spatial.DistanceKm(a, b)
			bc := spatial.DistanceKm(b, c)
			ac := spatial.DistanceKm(a, c)
			So(ac, ShouldAlmostEqual, 120, 1e-6)
			So(ab+bc, ShouldAlmostEqual, ac, 1e-6)

			third := destination(a, spatial.Bearing(a, c), 40)
			So(spatial.DistanceKm(a, third)+spatial.DistanceKm(third, c), ShouldAlmostEqual, ac, 1e-6)
		})
	})
}

func TestRadiusBound(t *testing.T) {
	Convey("Given a radius bound around a center", t, func() {
		center := models.LatLng{Lat: -34.90, Lng: -56.16}
		bound := spatial.RadiusBound(center, 5)

		Convey("Then points on the circle are inside", func() {
			for bearing := 0.0; bearing < 360; bearing += 15 {
				p := destination(center, bearing, 5)
				So(spatial.RectContains(bound, p), ShouldBeTrue)
			}
		})

		Convey("Then far points are outside", func() {
			So(spatial.RectContains(bound, destination(center, 90, 50)), ShouldBeFalse)
		})

		Convey("Then circles over a pole contain the pole", func() {
			polar := spatial.RadiusBound(models.LatLng{Lat: 89.99, Lng: 10}, 20)
			So(spatial.RectContains(polar, models.LatLng{Lat: 90, Lng: -170}), ShouldBeTrue)
		})

		Convey("Then the padding keeps the rectangle valid", func() {
			So(bound.IsValid(), ShouldBeTrue)
			polar := spatial.RadiusBound(models.LatLng{Lat: 89.99, Lng: 10}, 20)
			So(polar.IsValid(), ShouldBeTrue)
			So(polar.Lat.Hi, ShouldBeLessThanOrEqualTo, math.Pi/2)
			So(polar.Lng.IsFull(), ShouldBeTrue)
		})

		Convey("Then a zero radius still contains its center", func() {
			So(spatial.RectContains(spatial.RadiusBound(center, 0), center), ShouldBeTrue)
		})
	})
}

func TestGeohash(t *testing.T) {
	Convey("Given a coordinate", t, func() {
		lat, lon := -34.9011, -56.1645

		Convey("When it is encoded and decoded", func() {
			hash := spatial.EncodeGeohash(lat, lon, spatial.HeatCellPrecision)
			cLat, cLon := spatial.DecodeGeohash(hash)
			minLat, minLon, maxLat, maxLon := spatial.GeohashBounds(hash)

			Convey("Then the cell contains the coordinate", func() {
				So(len(hash), ShouldEqual, spatial.HeatCellPrecision)
				So(lat, ShouldBeBetweenOrEqual, minLat, maxLat)
				So(lon, ShouldBeBetweenOrEqual, minLon, maxLon)
				So(cLat, ShouldAlmostEqual, lat, 0.01)
				So(cLon, ShouldAlmostEqual, lon, 0.01)
			})
		})

		Convey("Then a known hash is produced", func() {
			So(spatial.EncodeGeohash(57.64911, 10.40744, 11), ShouldEqual, "u4pruydqqvj")
		})

		Convey("Then precision is clamped", func() {
			So(len(spatial.EncodeGeohash(lat, lon, 0)), ShouldEqual, 1)
			So(len(spatial.EncodeGeohash(lat, lon, 40)), ShouldEqual, 12)
		})
	})
}

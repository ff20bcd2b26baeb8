package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jengzang/spots-backend-go/internal/geolocation"
	"github.com/jengzang/spots-backend-go/internal/mapview"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/session"
	. "github.com/smartystreets/goconvey/convey"
)

type catalog struct {
	mu      sync.Mutex
	species [][]string
}

func (c *catalog) ListSpots(context.Context) ([]models.SpotMarker, error) {
	return []models.SpotMarker{{ID: "1", Name: "Bahía", Coordinates: []float64{-56.17, -34.91}}}, nil
}

func (c *catalog) ListSpotsFiltered(_ context.Context, _, species []string) ([]models.SpotMarker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.species = append(c.species, species)
	return []models.SpotMarker{}, nil
}

type heat struct{}

func (heat) GetHeatmap(context.Context, string, int) (models.HeatmapResponse, error) {
	return models.HeatmapResponse{}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestManager(t *testing.T) {
	Convey("Given a session manager with a manual clock", t, func() {
		cat := &catalog{}
		clk := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
		factory := func(viewer mapview.Viewer, loc geolocation.Locator) *mapview.Orchestrator {
			return mapview.New(viewer,
				mapview.Deps{Catalog: cat, Heatmap: heat{}, Locator: loc},
				mapview.Settings{Fallback: models.LatLng{Lat: -34.9011, Lng: -56.1645}, InitialZoom: 12},
			)
		}
		m := session.NewManager(factory,
			session.WithTTL(10*time.Minute),
			session.WithSweepInterval(-1),
			session.WithClock(clk.Now),
		)
		Reset(m.Close)

		Convey("When a session is created with a device fix and a species deep link", func() {
			s, err := m.Create(context.Background(), session.CreateRequest{
				Viewer:  mapview.Viewer{UserID: "alice"},
				Fix:     &models.DeviceFix{Lat: -34.9, Lon: -56.16},
				Species: "Dorado",
			})
			So(err, ShouldBeNil)

			Convey("Then the map is ready and seeded", func() {
				So(s.ID, ShouldNotBeEmpty)
				v := s.Map.View()
				So(v.Position.Position.IsUserLocation, ShouldBeTrue)
				So(v.Filters.Species, ShouldResemble, []string{"Dorado"})
				So(cat.species, ShouldResemble, [][]string{{"Dorado"}})
				So(m.Len(), ShouldEqual, 1)
			})

			Convey("Then only its owner can see it", func() {
				_, err := m.Get(s.ID, "bob")
				So(err, ShouldEqual, session.ErrNotFound)
				got, err := m.Get(s.ID, "alice")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, s)
			})

			Convey("Then it expires after the idle TTL", func() {
				clk.Advance(9 * time.Minute)
				_, err := m.Get(s.ID, "alice")
				So(err, ShouldBeNil)
				So(m.Sweep(), ShouldEqual, 0)

				clk.Advance(11 * time.Minute)
				So(m.Sweep(), ShouldEqual, 1)
				_, err = m.Get(s.ID, "alice")
				So(err, ShouldEqual, session.ErrNotFound)
				So(s.Map.Viewport().ListenerCount(), ShouldEqual, 0)
			})

			Convey("Then deleting it tears the map down", func() {
				So(m.Delete(s.ID, "alice"), ShouldBeNil)
				So(m.Delete(s.ID, "alice"), ShouldEqual, session.ErrNotFound)
				So(s.Map.Dispatch(mapview.Event{Type: mapview.EventClick}), ShouldEqual, mapview.ErrClosed)
			})
		})

		Convey("When a session is created after the device denied access", func() {
			s, err := m.Create(context.Background(), session.CreateRequest{FixErr: geolocation.ErrDenied})
			So(err, ShouldBeNil)

			Convey("Then it starts at the fallback coordinate", func() {
				st := s.Map.View().Position
				So(st.Approximate, ShouldBeTrue)
				So(st.Position.Latitude, ShouldEqual, -34.9011)
			})

			Convey("Then an anonymous session is reachable without a user", func() {
				_, err := m.Get(s.ID, "")
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a manager with a background sweeper", t, func() {
		m := session.NewManager(nil, session.WithTTL(time.Millisecond), session.WithSweepInterval(5*time.Millisecond))

		Convey("When it is closed", func() {
			m.Close()
			m.Close()

			Convey("Then the sweeper stops and no session remains", func() {
				So(m.Len(), ShouldEqual, 0)
			})
		})
	})
}

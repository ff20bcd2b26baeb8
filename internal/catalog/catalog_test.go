package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jengzang/spots-backend-go/internal/catalog"
	"github.com/jengzang/spots-backend-go/internal/database"
	"github.com/jengzang/spots-backend-go/internal/discovery"
	"github.com/jengzang/spots-backend-go/internal/heatmap"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLocal(t *testing.T) {
	Convey("Given a local catalog", t, func() {
		ctx := context.Background()
		db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "spots.db")})
		So(err, ShouldBeNil)
		Reset(func() { db.Close() })
		_, err = database.NewMigrationManager(db).RunMigrations(ctx)
		So(err, ShouldBeNil)

		lat, lon := -34.91, -56.17
		_, err = repository.NewSeedRepository(db).Import(ctx, models.SeedFile{
			Techniques: []models.Technique{{ID: "fly", Name: "Fly"}},
			Species:    []models.Species{{ID: "dorado", Name: "Dorado"}},
			Spots: []models.SeedSpot{
				{ID: "s1", Name: "Bahía del Pescador", Lat: &lat, Lon: &lon, Species: []string{"dorado"}},
				{ID: "s2", Name: "Laguna Norte", Lat: &lat, Lon: &lon},
			},
			Catches: []models.Catch{{SpeciesID: "dorado", Lat: lat, Lng: lon, CaughtAt: 1710072000}},
		})
		So(err, ShouldBeNil)

		cat := catalog.NewLocal(repository.NewSpotRepository(db), repository.NewHeatmapRepository(db))

		Convey("When a spot loader refreshes with a species filter", func() {
			loader := discovery.NewLoader(cat)
			err := loader.Refresh(ctx, models.FilterCriteria{Species: []string{"Dorado"}})

			Convey("Then only matching spots are committed", func() {
				So(err, ShouldBeNil)
				set := loader.Snapshot()
				So(len(set.Spots), ShouldEqual, 1)
				So(set.Spots[0].ID, ShouldEqual, "s1")
			})
		})

		Convey("When the filter options are loaded", func() {
			techniques, species, err := discovery.LoadFilterOptions(ctx, cat)
			So(err, ShouldBeNil)
			So(len(techniques), ShouldEqual, 1)
			So(species[0].Name, ShouldEqual, "Dorado")
		})

		Convey("When a heatmap is requested", func() {
			got, err := cat.GetHeatmap(ctx, "dorado", 3)
			So(err, ShouldBeNil)
			So(len(got.Points), ShouldEqual, 1)

			_, err = cat.GetHeatmap(ctx, "", 13)
			So(err, ShouldEqual, heatmap.ErrInvalidMonth)
		})
	})
}

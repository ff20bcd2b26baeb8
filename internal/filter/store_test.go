package filter_test

import (
	"math"
	"testing"

	"github.com/jengzang/spots-backend-go/internal/filter"
	"github.com/jengzang/spots-backend-go/internal/models"
	. "github.com/smartystreets/goconvey/convey"
)

func radius(km float64) *float64 { return &km }

func TestStore(t *testing.T) {
	Convey("Given an empty filter store", t, func() {
		s := filter.NewStore()
		var changes []filter.Change
		s.Subscribe(func(c filter.Change) { changes = append(changes, c) })

		Convey("Then the criteria are empty", func() {
			c := s.Criteria()
			So(c.IsEmpty(), ShouldBeTrue)
			So(c.Techniques, ShouldBeEmpty)
			So(c.Species, ShouldBeEmpty)
			So(c.RadiusKm, ShouldBeNil)
		})

		Convey("When a technique is toggled twice", func() {
			before := s.Criteria()
			s.ToggleTechnique("Spinning")
			So(s.Criteria().Techniques, ShouldResemble, []string{"Spinning"})
			after := s.ToggleTechnique("Spinning")

			Convey("Then the criteria return to the original state", func() {
				So(after, ShouldResemble, before)
				So(len(changes), ShouldEqual, 2)
				So(changes[0].ServerFilterChanged, ShouldBeTrue)
			})
		})

		Convey("When species are toggled", func() {
			s.ToggleSpecies("Tararira")
			s.ToggleSpecies("Dorado")

			Convey("Then they are reported sorted", func() {
				So(s.Criteria().Species, ShouldResemble, []string{"Dorado", "Tararira"})
			})

			Convey("Then the snapshot carries the version of those criteria", func() {
				c, v := s.Snapshot()
				So(c.Species, ShouldResemble, []string{"Dorado", "Tararira"})
				So(v, ShouldEqual, 2)
				So(v, ShouldEqual, changes[len(changes)-1].Version)
			})
		})

		Convey("When an empty name is toggled", func() {
			s.ToggleTechnique("  ")

			Convey("Then nothing changes", func() {
				So(changes, ShouldBeEmpty)
				So(s.Version(), ShouldEqual, 0)
			})
		})

		Convey("When the radius and search term change", func() {
			_, err := s.SetRadius(radius(5))
			So(err, ShouldBeNil)
			s.SetSearchTerm("  bahía ")

			Convey("Then no catalog refetch is requested", func() {
				So(len(changes), ShouldEqual, 2)
				So(changes[0].ServerFilterChanged, ShouldBeFalse)
				So(changes[1].ServerFilterChanged, ShouldBeFalse)
				So(*s.Criteria().RadiusKm, ShouldEqual, 5)
				So(s.Criteria().SearchTerm, ShouldEqual, "bahía")
			})
		})

		Convey("When an invalid radius is set", func() {
			_, errNeg := s.SetRadius(radius(-1))
			_, errNaN := s.SetRadius(radius(math.NaN()))

			Convey("Then it is rejected", func() {
				So(errNeg, ShouldEqual, filter.ErrInvalidRadius)
				So(errNaN, ShouldEqual, filter.ErrInvalidRadius)
				So(s.Criteria().RadiusKm, ShouldBeNil)
			})
		})

		Convey("When everything is cleared", func() {
			s.ToggleTechnique("Fly")
			s.ToggleSpecies("Dorado")
			_, _ = s.SetRadius(radius(10))
			s.SetSearchTerm("laguna")
			changes = nil

			got := s.ClearAll()

			Convey("Then all fields reset in one change", func() {
				want := models.FilterCriteria{Techniques: []string{}, Species: []string{}}
				So(got, ShouldResemble, want)
				So(s.Criteria(), ShouldResemble, want)
				So(len(changes), ShouldEqual, 1)
				So(changes[0].Criteria, ShouldResemble, want)
				So(changes[0].ServerFilterChanged, ShouldBeTrue)
			})
		})

		Convey("When only local filters are cleared", func() {
			s.SetSearchTerm("laguna")
			changes = nil
			s.ClearAll()

			Convey("Then no catalog refetch is requested", func() {
				So(len(changes), ShouldEqual, 1)
				So(changes[0].ServerFilterChanged, ShouldBeFalse)
			})
		})

		Convey("When seeded from a deep link", func() {
			applied := s.SeedSpecies("Dorado")
			again := s.SeedSpecies("Dorado")

			Convey("Then the seed applies once per parameter value", func() {
				So(applied, ShouldBeTrue)
				So(again, ShouldBeFalse)
				So(s.Criteria().Species, ShouldResemble, []string{"Dorado"})
				So(len(changes), ShouldEqual, 1)
			})

			Convey("And the user deselects the seeded species", func() {
				s.ToggleSpecies("Dorado")
				So(s.SeedSpecies("Dorado"), ShouldBeFalse)

				Convey("Then re-rendering does not re-apply the seed", func() {
					So(s.Criteria().Species, ShouldBeEmpty)
				})
			})

			Convey("And the parameter changes", func() {
				So(s.SeedSpecies("Pejerrey"), ShouldBeTrue)

				Convey("Then the new value is applied", func() {
					So(s.Criteria().Species, ShouldResemble, []string{"Pejerrey"})
				})
			})
		})
	})
}

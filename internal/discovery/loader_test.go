package discovery_test

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/jengzang/spots-backend-go/internal/discovery"
	"github.com/jengzang/spots-backend-go/internal/models"
	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	filtered   bool
	techniques []string
	species    []string
}

type fakeCatalog struct {
	mu       sync.Mutex
	calls    []call
	all      []models.SpotMarker
	filtered []models.SpotMarker
	err      error
	// gates holds per-call release channels, keyed by call index.
	gates map[int]chan struct{}
}

func (f *fakeCatalog) record(c call) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return len(f.calls) - 1
}

func (f *fakeCatalog) wait(i int) {
	f.mu.Lock()
	g := f.gates[i]
	f.mu.Unlock()
	if g != nil {
		<-g
	}
}

func (f *fakeCatalog) ListSpots(context.Context) ([]models.SpotMarker, error) {
	i := f.record(call{})
	f.wait(i)
	return f.all, f.err
}

func (f *fakeCatalog) ListSpotsFiltered(_ context.Context, techniques, species []string) ([]models.SpotMarker, error) {
	i := f.record(call{filtered: true, techniques: techniques, species: species})
	f.wait(i)
	if f.err != nil {
		return nil, f.err
	}
	return f.filtered, nil
}

func (f *fakeCatalog) ListTechniques(context.Context) ([]models.Technique, error) {
	return []models.Technique{{ID: "t1", Name: "Spinning"}}, f.err
}

func (f *fakeCatalog) ListSpecies(context.Context) ([]models.Species, error) {
	return []models.Species{{ID: "s1", Name: "Dorado", CommonNames: []string{"Salminus"}}}, nil
}

func TestLoader(t *testing.T) {
	Convey("Given a loader over a catalog", t, func() {
		ctx := context.Background()
		cat := &fakeCatalog{
			all:      []models.SpotMarker{{ID: "all-1"}, {ID: "all-2"}},
			filtered: []models.SpotMarker{{ID: "dorado-1"}},
			gates:    map[int]chan struct{}{},
		}
		l := discovery.NewLoader(cat)

		Convey("When no technique or species is selected", func() {
			err := l.Refresh(ctx, models.FilterCriteria{SearchTerm: "x"})

			Convey("Then the unfiltered list is fetched", func() {
				So(err, ShouldBeNil)
				So(cat.calls, ShouldHaveLength, 1)
				So(cat.calls[0].filtered, ShouldBeFalse)
				So(l.Snapshot().Spots, ShouldHaveLength, 2)
			})
		})

		Convey("When only a species is selected", func() {
			err := l.Refresh(ctx, models.FilterCriteria{Species: []string{"Dorado"}})

			Convey("Then the species-only filtered fetch is used", func() {
				So(err, ShouldBeNil)
				So(cat.calls, ShouldHaveLength, 1)
				So(cat.calls[0].filtered, ShouldBeTrue)
				So(cat.calls[0].techniques, ShouldBeEmpty)
				So(cat.calls[0].species, ShouldResemble, []string{"Dorado"})
				snap := l.Snapshot()
				So(snap.Spots[0].ID, ShouldEqual, "dorado-1")
				So(snap.Loading, ShouldBeFalse)
			})
		})

		Convey("When the fetch fails", func() {
			So(l.Refresh(ctx, models.FilterCriteria{}), ShouldBeNil)
			cat.err = errors.New("backend down")
			err := l.Refresh(ctx, models.FilterCriteria{Species: []string{"Dorado"}})

			Convey("Then the list is cleared and the error recorded", func() {
				So(err, ShouldNotBeNil)
				snap := l.Snapshot()
				So(snap.Spots, ShouldBeEmpty)
				So(snap.Err, ShouldNotBeNil)
			})
		})

		Convey("When an older fetch resolves after a newer one", func() {
			slow := make(chan struct{})
			cat.gates[0] = slow

			olderDone := make(chan error, 1)
			go func() { olderDone <- l.Refresh(ctx, models.FilterCriteria{}) }()
			waitForCalls(cat, 1)

			So(l.Snapshot().Loading, ShouldBeTrue)
			So(l.Refresh(ctx, models.FilterCriteria{Species: []string{"Dorado"}}), ShouldBeNil)
			close(slow)
			So(<-olderDone, ShouldBeNil)

			Convey("Then the stale response is discarded", func() {
				snap := l.Snapshot()
				So(snap.Spots, ShouldHaveLength, 1)
				So(snap.Spots[0].ID, ShouldEqual, "dorado-1")
				So(snap.Version, ShouldEqual, 2)
				So(snap.Loading, ShouldBeFalse)
			})
		})

		Convey("When newer criteria issue their fetch before older criteria", func() {
			slow := make(chan struct{})
			cat.gates[0] = slow

			newerDone := make(chan error, 1)
			go func() {
				newerDone <- l.RefreshVersion(ctx, models.FilterCriteria{Species: []string{"Dorado"}}, 2)
			}()
			waitForCalls(cat, 1)

			So(l.RefreshVersion(ctx, models.FilterCriteria{}, 1), ShouldBeNil)
			So(l.Snapshot().Spots, ShouldHaveLength, 2)
			So(l.Snapshot().Loading, ShouldBeTrue)
			close(slow)
			So(<-newerDone, ShouldBeNil)

			Convey("Then the list matches the newer criteria", func() {
				snap := l.Snapshot()
				So(snap.Spots, ShouldHaveLength, 1)
				So(snap.Spots[0].ID, ShouldEqual, "dorado-1")
				So(snap.Version, ShouldEqual, 3)
				So(snap.Loading, ShouldBeFalse)
			})
		})

		Convey("When older criteria resolve after newer ones", func() {
			slow := make(chan struct{})
			cat.gates[0] = slow

			olderDone := make(chan error, 1)
			go func() { olderDone <- l.RefreshVersion(ctx, models.FilterCriteria{}, 4) }()
			waitForCalls(cat, 1)

			So(l.RefreshVersion(ctx, models.FilterCriteria{Species: []string{"Dorado"}}, 5), ShouldBeNil)
			close(slow)
			So(<-olderDone, ShouldBeNil)

			Convey("Then the older response is discarded", func() {
				snap := l.Snapshot()
				So(snap.Spots[0].ID, ShouldEqual, "dorado-1")
				So(snap.Version, ShouldEqual, 6)
			})
		})
	})
}

func TestLoadFilterOptions(t *testing.T) {
	Convey("Given an options catalog", t, func() {
		cat := &fakeCatalog{}

		Convey("When both lists load", func() {
			techniques, species, err := discovery.LoadFilterOptions(context.Background(), cat)

			Convey("Then both are returned", func() {
				So(err, ShouldBeNil)
				So(techniques[0].Name, ShouldEqual, "Spinning")
				So(species[0].CommonNames, ShouldContain, "Salminus")
			})
		})

		Convey("When one list fails", func() {
			cat.err = errors.New("nope")
			_, _, err := discovery.LoadFilterOptions(context.Background(), cat)

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func waitForCalls(f *fakeCatalog, n int) {
	for {
		f.mu.Lock()
		got := len(f.calls)
		f.mu.Unlock()
		if got >= n {
			return
		}
		runtime.Gosched()
	}
}

package generation_test

import (
	"sync"
	"testing"

	"github.com/jengzang/spots-backend-go/internal/generation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGate(t *testing.T) {
	Convey("Given a gate", t, func() {
		var g generation.Gate

		Convey("When two requests are issued", func() {
			older := g.Issue()
			newer := g.Issue()
			So(newer, ShouldBeGreaterThan, older)
			So(g.Pending(), ShouldBeTrue)

			Convey("And the newer one resolves first", func() {
				applied := []generation.Token{}
				So(g.Commit(newer, func() { applied = append(applied, newer) }), ShouldBeTrue)
				ok := g.Commit(older, func() { applied = append(applied, older) })

				Convey("Then the older response is discarded", func() {
					So(ok, ShouldBeFalse)
					So(applied, ShouldResemble, []generation.Token{newer})
					So(g.Latest(), ShouldEqual, newer)
					So(g.Pending(), ShouldBeFalse)
				})
			})

			Convey("And the older one resolves first", func() {
				So(g.Commit(older, nil), ShouldBeTrue)
				So(g.Pending(), ShouldBeTrue)

				Convey("Then the newer one still replaces it", func() {
					So(g.Commit(newer, nil), ShouldBeTrue)
					So(g.Latest(), ShouldEqual, newer)
				})
			})
		})

		Convey("When tokens are chosen by the caller", func() {
			newer := g.IssueAt(7)
			older := g.IssueAt(3)
			So(g.Pending(), ShouldBeTrue)

			Convey("Then an older token issued later still loses", func() {
				So(g.Commit(older, nil), ShouldBeTrue)
				So(g.Pending(), ShouldBeTrue)
				So(g.Commit(newer, nil), ShouldBeTrue)
				So(g.Commit(older, nil), ShouldBeFalse)
				So(g.Latest(), ShouldEqual, generation.Token(7))
				So(g.Pending(), ShouldBeFalse)
			})
		})

		Convey("When many goroutines issue and commit", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					g.Commit(g.Issue(), nil)
				}()
			}
			wg.Wait()

			Convey("Then the last commit is the highest token", func() {
				So(g.Latest(), ShouldEqual, generation.Token(50))
				So(g.Pending(), ShouldBeFalse)
			})
		})
	})
}

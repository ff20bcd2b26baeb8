package database_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jengzang/spots-backend-go/internal/database"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMigrations(t *testing.T) {
	Convey("Given a fresh sqlite database", t, func() {
		db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "spots.db")})
		So(err, ShouldBeNil)
		Reset(func() { db.Close() })
		ctx := context.Background()

		Convey("When migrations run twice", func() {
			m := database.NewMigrationManager(db)
			first, err := m.RunMigrations(ctx)
			So(err, ShouldBeNil)
			second, err := m.RunMigrations(ctx)
			So(err, ShouldBeNil)

			Convey("Then every migration is applied exactly once", func() {
				So(first, ShouldEqual, 3)
				So(second, ShouldEqual, 0)

				var n int
				So(db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&n), ShouldBeNil)
				So(n, ShouldEqual, 3)
			})

			Convey("Then foreign keys are enforced", func() {
				_, err := db.Exec("INSERT INTO spot_species (spot_id, species_id) VALUES ('nope', 'nope')")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a transaction fails", func() {
			_, err := database.NewMigrationManager(db).RunMigrations(ctx)
			So(err, ShouldBeNil)

			err = database.Transaction(ctx, db, func(tx *sql.Tx) error {
				if _, err := tx.Exec("INSERT INTO techniques (id, name) VALUES ('t1', 'Fly')"); err != nil {
					return err
				}
				_, err := tx.Exec("INSERT INTO techniques (id, name) VALUES ('t2', 'Fly')")
				return err
			})

			Convey("Then nothing is committed", func() {
				So(err, ShouldNotBeNil)
				var n int
				So(db.QueryRow("SELECT COUNT(*) FROM techniques").Scan(&n), ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})
	})
}

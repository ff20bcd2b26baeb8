package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jengzang/spots-backend-go/internal/database"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/spatial"
)

// catchGeohashPrecision is the stored precision; heat cells use a prefix
const catchGeohashPrecision = 12

// SeedRepository writes catalog fixtures
type SeedRepository struct {
	db *sql.DB
}

// NewSeedRepository creates a new seed repository
func NewSeedRepository(db *sql.DB) *SeedRepository {
	return &SeedRepository{db: db}
}

// Import upserts the whole seed in one transaction. Missing spot and catch
// ids are generated.
func (r *SeedRepository) Import(ctx context.Context, seed models.SeedFile) (models.SeedResult, error) {
	var res models.SeedResult

	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		for _, t := range seed.Techniques {
			if _, err := tx.ExecContext(ctx, `INSERT INTO techniques (id, name, name_key) VALUES (?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name, name_key = excluded.name_key`, t.ID, t.Name, nameKey(t.Name)); err != nil {
				return fmt.Errorf("failed to upsert technique %s: %w", t.ID, err)
			}
			res.Techniques++
		}

		for _, s := range seed.Species {
			if _, err := tx.ExecContext(ctx, `INSERT INTO species (id, name, name_key) VALUES (?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name, name_key = excluded.name_key`, s.ID, s.Name, nameKey(s.Name)); err != nil {
				return fmt.Errorf("failed to upsert species %s: %w", s.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM species_common_names WHERE species_id = ?`, s.ID); err != nil {
				return fmt.Errorf("failed to reset common names of %s: %w", s.ID, err)
			}
			for _, name := range s.CommonNames {
				if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO species_common_names (species_id, name, name_key) VALUES (?, ?, ?)`,
					s.ID, name, nameKey(name)); err != nil {
					return fmt.Errorf("failed to insert common name of %s: %w", s.ID, err)
				}
			}
			res.Species++
		}

		for _, s := range seed.Spots {
			if err := insertSpot(ctx, tx, s); err != nil {
				return err
			}
			res.Spots++
		}

		for _, c := range seed.Catches {
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			var spotID interface{}
			if c.SpotID != "" {
				spotID = c.SpotID
			}
			var weight interface{}
			if c.WeightKg > 0 {
				weight = c.WeightKg
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO catches (id, spot_id, species_id, lat, lng, geohash, caught_at, weight_kg)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET spot_id = excluded.spot_id, species_id = excluded.species_id,
					lat = excluded.lat, lng = excluded.lng, geohash = excluded.geohash,
					caught_at = excluded.caught_at, weight_kg = excluded.weight_kg`,
				c.ID, spotID, c.SpeciesID, c.Lat, c.Lng,
				spatial.EncodeGeohash(c.Lat, c.Lng, catchGeohashPrecision), c.CaughtAt, weight); err != nil {
				return fmt.Errorf("failed to upsert catch %s: %w", c.ID, err)
			}
			res.Catches++
		}
		return nil
	})
	if err != nil {
		return models.SeedResult{}, err
	}
	return res, nil
}

func insertSpot(ctx context.Context, tx *sql.Tx, s models.SeedSpot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.State == "" {
		s.State = models.SpotStateApproved
	}

	var lon, lat interface{}
	if s.Lon != nil && s.Lat != nil {
		lon, lat = *s.Lon, *s.Lat
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO spots (id, name, description, lon, lat, state)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description,
			lon = excluded.lon, lat = excluded.lat, state = excluded.state`,
		s.ID, s.Name, s.Description, lon, lat, s.State); err != nil {
		return fmt.Errorf("failed to upsert spot %s: %w", s.ID, err)
	}

	for _, t := range s.Techniques {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO spot_techniques (spot_id, technique_id) VALUES (?, ?)`, s.ID, t); err != nil {
			return fmt.Errorf("failed to link technique %s to spot %s: %w", t, s.ID, err)
		}
	}
	for _, sp := range s.Species {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO spot_species (spot_id, species_id) VALUES (?, ?)`, s.ID, sp); err != nil {
			return fmt.Errorf("failed to link species %s to spot %s: %w", sp, s.ID, err)
		}
	}
	return nil
}

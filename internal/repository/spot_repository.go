package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/spots-backend-go/internal/models"
	"golang.org/x/text/unicode/norm"
)

// SpotRepository handles database operations for spots and their filter options
type SpotRepository struct {
	db *sql.DB
}

// NewSpotRepository creates a new spot repository
func NewSpotRepository(db *sql.DB) *SpotRepository {
	return &SpotRepository{db: db}
}

const spotColumns = `s.id, s.name, s.description, s.lon, s.lat, s.state`

// ListSpots retrieves every spot that was not rejected
func (r *SpotRepository) ListSpots(ctx context.Context) ([]models.SpotMarker, error) {
	query := `SELECT ` + spotColumns + ` FROM spots s
		WHERE s.state != ?
		ORDER BY s.name, s.id`

	return r.querySpots(ctx, query, models.SpotStateRejected)
}

// ListSpotsFiltered retrieves spots having any of the techniques AND any of
// the species. An empty dimension is unconstrained. Techniques match by id
// or name, species by id, name or common name, all case-insensitively.
// Names compare on name_key so non-ASCII letters fold too.
func (r *SpotRepository) ListSpotsFiltered(ctx context.Context, techniques, species []string) ([]models.SpotMarker, error) {
	query := `SELECT ` + spotColumns + ` FROM spots s WHERE s.state != ?`
	args := []interface{}{models.SpotStateRejected}

	if len(techniques) > 0 {
		in, inArgs := keyIn(techniques)
		query += ` AND EXISTS (
			SELECT 1 FROM spot_techniques st
			JOIN techniques t ON t.id = st.technique_id
			WHERE st.spot_id = s.id
			AND (LOWER(t.id) IN ` + in + ` OR t.name_key IN ` + in + `))`
		args = append(args, inArgs...)
		args = append(args, inArgs...)
	}
	if len(species) > 0 {
		in, inArgs := keyIn(species)
		query += ` AND EXISTS (
			SELECT 1 FROM spot_species ss
			JOIN species sp ON sp.id = ss.species_id
			WHERE ss.spot_id = s.id
			AND (LOWER(sp.id) IN ` + in + ` OR sp.name_key IN ` + in + `
				OR EXISTS (SELECT 1 FROM species_common_names cn
					WHERE cn.species_id = sp.id AND cn.name_key IN ` + in + `)))`
		args = append(args, inArgs...)
		args = append(args, inArgs...)
		args = append(args, inArgs...)
	}
	query += ` ORDER BY s.name, s.id`

	return r.querySpots(ctx, query, args...)
}

// ListTechniques retrieves all techniques ordered by name
func (r *SpotRepository) ListTechniques(ctx context.Context) ([]models.Technique, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM techniques ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query techniques: %w", err)
	}
	defer rows.Close()

	techniques := []models.Technique{}
	for rows.Next() {
		var t models.Technique
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan technique: %w", err)
		}
		techniques = append(techniques, t)
	}
	return techniques, rows.Err()
}

// ListSpecies retrieves all species with their common names
func (r *SpotRepository) ListSpecies(ctx context.Context) ([]models.Species, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT sp.id, sp.name, cn.name
		FROM species sp
		LEFT JOIN species_common_names cn ON cn.species_id = sp.id
		ORDER BY sp.name, sp.id, cn.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query species: %w", err)
	}
	defer rows.Close()

	species := []models.Species{}
	for rows.Next() {
		var (
			id, name   string
			commonName sql.NullString
		)
		if err := rows.Scan(&id, &name, &commonName); err != nil {
			return nil, fmt.Errorf("failed to scan species: %w", err)
		}
		// Rows arrive grouped by species
		if n := len(species); n == 0 || species[n-1].ID != id {
			species = append(species, models.Species{ID: id, Name: name, CommonNames: []string{}})
		}
		if commonName.Valid {
			last := &species[len(species)-1]
			last.CommonNames = append(last.CommonNames, commonName.String)
		}
	}
	return species, rows.Err()
}

func (r *SpotRepository) querySpots(ctx context.Context, query string, args ...interface{}) ([]models.SpotMarker, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spots: %w", err)
	}
	defer rows.Close()

	spots := []models.SpotMarker{}
	for rows.Next() {
		var (
			s        models.SpotMarker
			lon, lat sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &lon, &lat, &s.State); err != nil {
			return nil, fmt.Errorf("failed to scan spot: %w", err)
		}
		s.Coordinates = []float64{}
		if lon.Valid && lat.Valid {
			s.Coordinates = []float64{lon.Float64, lat.Float64}
		}
		spots = append(spots, s)
	}
	return spots, rows.Err()
}

// nameKey folds a name for lookups: trimmed, NFC-normalized, lower-cased
func nameKey(name string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
}

// keyIn builds "(?, ?, ...)" with the name keys of values
func keyIn(values []string) (string, []interface{}) {
	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = nameKey(v)
	}
	return "(" + strings.Join(placeholders, ", ") + ")", args
}

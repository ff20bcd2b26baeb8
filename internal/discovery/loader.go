package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/jengzang/spots-backend-go/internal/generation"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Catalog is the spot listing side of the external backend.
type Catalog interface {
	ListSpots(ctx context.Context) ([]models.SpotMarker, error)
	ListSpotsFiltered(ctx context.Context, techniques, species []string) ([]models.SpotMarker, error)
}

// OptionsCatalog lists the values the filters can take.
type OptionsCatalog interface {
	ListTechniques(ctx context.Context) ([]models.Technique, error)
	ListSpecies(ctx context.Context) ([]models.Species, error)
}

// SpotSet is one committed catalog response.
type SpotSet struct {
	Spots   []models.SpotMarker
	Version uint64
	Loading bool
	Err     error
}

// Loader fetches the base spot list for the current technique/species
// selection. Overlapping fetches are arbitrated by a generation gate, so the
// committed list always comes from a single request.
type Loader struct {
	catalog Catalog
	log     logger.Logger
	metrics *metrics.Manager
	gate    generation.Gate

	mu      sync.RWMutex
	spots   []models.SpotMarker
	version uint64
	err     error
}

// NewLoader creates a loader over catalog.
func NewLoader(catalog Catalog, opts ...LoaderOption) *Loader {
	l := &Loader{
		catalog: catalog,
		log:     logger.Discard(),
		spots:   []models.SpotMarker{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Refresh fetches the spots for criteria. Server-side filtering is used
// when techniques or species are selected, the unfiltered list otherwise.
// A response superseded by a newer committed one is dropped silently. A
// failed fetch clears the list and records the error.
func (l *Loader) Refresh(ctx context.Context, criteria models.FilterCriteria) error {
	return l.fetch(ctx, l.gate.Issue(), criteria)
}

// RefreshVersion is Refresh for criteria read at filter version v. The
// token is derived from v, so whichever call observed the newer criteria
// wins no matter which one issued first. Do not mix it with Refresh on the
// same loader.
func (l *Loader) RefreshVersion(ctx context.Context, criteria models.FilterCriteria, v uint64) error {
	return l.fetch(ctx, l.gate.IssueAt(generation.Token(v+1)), criteria)
}

func (l *Loader) fetch(ctx context.Context, tok generation.Token, criteria models.FilterCriteria) error {
	var (
		spots []models.SpotMarker
		err   error
	)
	if criteria.HasServerFilter() {
		spots, err = l.catalog.ListSpotsFiltered(ctx, criteria.Techniques, criteria.Species)
	} else {
		spots, err = l.catalog.ListSpots(ctx)
	}
	if spots == nil {
		spots = []models.SpotMarker{}
	}

	committed := l.gate.Commit(tok, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.version = uint64(tok)
		if err != nil {
			l.spots = []models.SpotMarker{}
			l.err = err
			return
		}
		l.spots = spots
		l.err = nil
	})
	if !committed {
		l.metrics.IncStaleResponses(metrics.SourceSpots)
		l.log.Debug(ctx, "discarding stale spot response", logger.Uint64("token", uint64(tok)))
		return nil
	}
	if err != nil {
		l.metrics.IncFetchErrors(metrics.SourceSpots)
		l.log.Warn(ctx, "spot fetch failed", logger.Error(err))
		return fmt.Errorf("list spots: %w", err)
	}
	return nil
}

// Snapshot returns the committed spot list.
func (l *Loader) Snapshot() SpotSet {
	// The gate lock is taken before l.mu everywhere.
	pending := l.gate.Pending()

	l.mu.RLock()
	defer l.mu.RUnlock()
	return SpotSet{
		Spots:   l.spots,
		Version: l.version,
		Loading: pending,
		Err:     l.err,
	}
}

// LoadFilterOptions fetches techniques and species concurrently.
func LoadFilterOptions(ctx context.Context, catalog OptionsCatalog) ([]models.Technique, []models.Species, error) {
	var (
		techniques []models.Technique
		species    []models.Species
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		techniques, err = catalog.ListTechniques(gctx)
		if err != nil {
			return fmt.Errorf("list techniques: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		species, err = catalog.ListSpecies(gctx)
		if err != nil {
			return fmt.Errorf("list species: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return techniques, species, nil
}

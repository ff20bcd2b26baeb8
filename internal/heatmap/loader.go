package heatmap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jengzang/spots-backend-go/internal/generation"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// ErrInvalidMonth is returned for months outside 1..12 (0 means all).
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// Source is the heatmap side of the external backend.
type Source interface {
	GetHeatmap(ctx context.Context, speciesID string, month int) (models.HeatmapResponse, error)
}

// HeatSet is one committed heatmap response.
type HeatSet struct {
	Points    []models.HeatPoint
	SpeciesID string
	Month     int
	Version   uint64
	Loading   bool
	Err       error
}

// Loader fetches heat points per (species, month). A newer committed
// response always wins over an older one resolving later.
type Loader struct {
	source   Source
	log      logger.Logger
	metrics  *metrics.Manager
	onCommit func(HeatSet)
	gate     generation.Gate

	mu  sync.RWMutex
	set HeatSet
}

// NewLoader creates a heatmap loader.
func NewLoader(source Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		source: source,
		log:    logger.Discard(),
		set:    HeatSet{Points: []models.HeatPoint{}},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the points for speciesID (empty for all species) and month
// (0 for all months). A failed fetch clears the points.
func (l *Loader) Load(ctx context.Context, speciesID string, month int) error {
	if month < 0 || month > 12 {
		return ErrInvalidMonth
	}
	tok := l.gate.Issue()

	resp, err := l.source.GetHeatmap(ctx, speciesID, month)
	points := resp.Points
	if err != nil || points == nil {
		points = []models.HeatPoint{}
	}

	committed := l.gate.Commit(tok, func() {
		set := HeatSet{
			Points:    points,
			SpeciesID: speciesID,
			Month:     month,
			Version:   uint64(tok),
			Err:       err,
		}
		l.mu.Lock()
		l.set = set
		l.mu.Unlock()
		if l.onCommit != nil {
			l.onCommit(set)
		}
	})
	if !committed {
		l.metrics.IncStaleResponses(metrics.SourceHeatmap)
		l.log.Debug(ctx, "discarding stale heatmap response", logger.Uint64("token", uint64(tok)))
		return nil
	}
	if err != nil {
		l.metrics.IncFetchErrors(metrics.SourceHeatmap)
		l.log.Warn(ctx, "heatmap fetch failed", logger.Error(err), logger.String("species", speciesID))
		return fmt.Errorf("get heatmap: %w", err)
	}
	return nil
}

// Snapshot returns the committed heat points.
func (l *Loader) Snapshot() HeatSet {
	pending := l.gate.Pending()

	l.mu.RLock()
	defer l.mu.RUnlock()
	set := l.set
	set.Loading = pending
	return set
}

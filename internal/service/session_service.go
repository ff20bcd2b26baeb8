package service

import (
	"context"
	"errors"

	"github.com/jengzang/spots-backend-go/internal/config"
	"github.com/jengzang/spots-backend-go/internal/geolocation"
	"github.com/jengzang/spots-backend-go/internal/mapview"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/picker"
	"github.com/jengzang/spots-backend-go/internal/session"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// NewMapFactory builds session maps over the catalog using the configured
// fallback coordinate, timeouts and zoom
func NewMapFactory(catalog Catalog, cfg *config.Config, log logger.Logger, m *metrics.Manager) session.Factory {
	settings := mapview.Settings{
		Fallback:           models.LatLng{Lat: cfg.DefaultLat, Lng: cfg.DefaultLon},
		InitialZoom:        cfg.InitialZoom,
		GeolocationOptions: []geolocation.Option{geolocation.WithTimeout(cfg.GeolocationTimeout())},
		PickerOptions:      []picker.Option{picker.WithLongPress(cfg.LongPress())},
	}
	return func(viewer mapview.Viewer, locator geolocation.Locator) *mapview.Orchestrator {
		return mapview.New(viewer,
			mapview.Deps{Catalog: catalog, Heatmap: catalog, Locator: locator},
			settings,
			mapview.WithLogger(log.Named("mapview")),
			mapview.WithMetrics(m),
		)
	}
}

// SessionService handles map session lifecycle
type SessionService struct {
	manager *session.Manager
	log     logger.Logger
}

// NewSessionService creates a new session service
func NewSessionService(manager *session.Manager, log logger.Logger) *SessionService {
	return &SessionService{manager: manager, log: log}
}

// Create opens a session for the viewer. species is an optional deep link.
func (s *SessionService) Create(ctx context.Context, viewer mapview.Viewer, req models.CreateSessionRequest, species string) (*session.Session, error) {
	if viewer.Theme == "" {
		viewer.Theme = req.Theme
	}
	fixErr := geolocation.ReasonError(req.FixError)
	if req.Fix == nil && fixErr == nil {
		fixErr = geolocation.ErrUnavailable
	}
	return s.manager.Create(ctx, session.CreateRequest{
		Viewer:  viewer,
		Fix:     req.Fix,
		FixErr:  fixErr,
		Species: species,
	})
}

// Get returns a live session owned by userID
func (s *SessionService) Get(id, userID string) (*session.Session, error) {
	return s.manager.Get(id, userID)
}

// Recenter records the fresh device reading and re-requests the position.
// A failed reading keeps the previous position and is reported on the view.
func (s *SessionService) Recenter(ctx context.Context, id, userID string, req models.RecenterRequest) (*session.Session, error) {
	sess, err := s.manager.Get(id, userID)
	if err != nil {
		return nil, err
	}
	sess.Locator.Report(req.Fix, geolocation.ReasonError(req.FixError))
	if _, err := sess.Map.Recenter(ctx); err != nil {
		if errors.Is(err, mapview.ErrClosed) {
			return nil, session.ErrNotFound
		}
		s.log.Warn(ctx, "recenter failed", logger.String("session_id", id), logger.Error(err))
	}
	return sess, nil
}

// Delete tears a session down
func (s *SessionService) Delete(id, userID string) error {
	return s.manager.Delete(id, userID)
}

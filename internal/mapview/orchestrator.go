// Package mapview composes the discovery engine around one map: position,
// filters, markers, heat layer and point selection.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jengzang/spots-backend-go/internal/discovery"
	"github.com/jengzang/spots-backend-go/internal/filter"
	"github.com/jengzang/spots-backend-go/internal/geolocation"
	"github.com/jengzang/spots-backend-go/internal/heatmap"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/picker"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// Mode selects what the map shows.
type Mode string

const (
	ModeMarkers Mode = "markers"
	ModeHeatmap Mode = "heatmap"
)

var (
	// ErrInvalidMode is returned for unknown modes.
	ErrInvalidMode = errors.New("mode must be markers or heatmap")
	// ErrClosed is returned once the map has been torn down.
	ErrClosed = errors.New("map closed")
)

// Viewer is the explicit per-map user context.
type Viewer struct {
	UserID string `json:"userId,omitempty"`
	Theme  string `json:"theme"`
}

// Deps are the collaborators of one map.
type Deps struct {
	Catalog   discovery.Catalog
	Heatmap   heatmap.Source
	Locator   geolocation.Locator // nil when the device has no geolocation
	Navigator picker.Navigator    // optional
}

// Settings are the tunables of one map.
type Settings struct {
	Fallback           models.LatLng
	InitialZoom        int
	GeolocationOptions []geolocation.Option
	PickerOptions      []picker.Option
}

// HeatmapView is the heat side of a View.
type HeatmapView struct {
	SpeciesID string                `json:"speciesId,omitempty"`
	Month     int                   `json:"month,omitempty"`
	Points    []models.HeatPoint    `json:"points"`
	Loading   bool                  `json:"loading"`
	Error     string                `json:"error,omitempty"`
	Layer     *heatmap.RenderConfig `json:"layer,omitempty"`
}

// MarkersView is the marker side of a View.
type MarkersView struct {
	Items   []models.SpotMarker `json:"items"`
	Total   int                 `json:"total"`
	Loading bool                `json:"loading"`
	Error   string              `json:"error,omitempty"`
}

// View is an immutable snapshot of the map. Loading flags and errors are
// scoped to their data source.
type View struct {
	Viewer         Viewer                `json:"viewer"`
	Position       models.PositionState  `json:"position"`
	Viewport       ViewportState         `json:"viewport"`
	Mode           Mode                  `json:"mode"`
	Filters        models.FilterCriteria `json:"filters"`
	Markers        MarkersView           `json:"markers"`
	Heatmap        HeatmapView           `json:"heatmap"`
	Picker         picker.Snapshot       `json:"picker"`
	LastNavigation *models.Navigation    `json:"lastNavigation,omitempty"`
}

// Orchestrator owns every engine component of one map.
type Orchestrator struct {
	viewer   Viewer
	log      logger.Logger
	metrics  *metrics.Manager
	viewport *Viewport
	geo      *geolocation.Provider
	filters  *filter.Store
	spots    *discovery.Loader
	resolver *discovery.Resolver
	heat     *heatmap.Loader
	renderer *heatmap.Renderer
	picker   *picker.Controller
	external picker.Navigator

	mu      sync.Mutex
	mode    Mode
	lastNav *models.Navigation
	unsubs  []func()
	closed  bool
}

// New wires a map. Nothing is fetched until Start.
func New(viewer Viewer, deps Deps, settings Settings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		viewer:   viewer,
		log:      logger.Discard(),
		mode:     ModeMarkers,
		external: deps.Navigator,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.viewport = NewViewport(settings.Fallback, settings.InitialZoom)
	o.geo = geolocation.New(deps.Locator, settings.Fallback, append([]geolocation.Option{
		geolocation.WithLogger(o.log.Named("geolocation")),
		geolocation.WithMetrics(o.metrics),
	}, settings.GeolocationOptions...)...)
	o.filters = filter.NewStore()
	o.spots = discovery.NewLoader(deps.Catalog,
		discovery.WithLoaderLogger(o.log.Named("spots")),
		discovery.WithLoaderMetrics(o.metrics),
	)
	o.resolver = discovery.NewResolver(discovery.WithResolverMetrics(o.metrics))
	o.renderer = heatmap.NewRenderer(o.viewport,
		heatmap.WithRendererLogger(o.log.Named("heatmap")),
		heatmap.WithRendererMetrics(o.metrics),
	)
	o.heat = heatmap.NewLoader(deps.Heatmap,
		heatmap.WithLoaderLogger(o.log.Named("heatmap")),
		heatmap.WithLoaderMetrics(o.metrics),
		heatmap.WithOnCommit(func(set heatmap.HeatSet) { o.renderer.SetPoints(set.Points) }),
	)
	o.picker = picker.New(picker.NavigatorFunc(o.navigate), append([]picker.Option{
		picker.WithLogger(o.log.Named("picker")),
		picker.WithMetrics(o.metrics),
	}, settings.PickerOptions...)...)

	o.unsubs = append(o.unsubs,
		o.geo.Subscribe(func(pos models.Position) { o.viewport.PanToPosition(pos) }),
		o.viewport.On(EventClick, func(e Event) { o.picker.Click(e.LatLng()) }),
		o.viewport.On(EventPointerDown, func(e Event) { o.picker.PointerDown(e.LatLng()) }),
		o.viewport.On(EventPointerMove, func(Event) { o.picker.PointerMove() }),
		o.viewport.On(EventPointerUp, func(Event) { o.picker.PointerUp() }),
	)
	return o
}

// Start issues the single initial position request and the first marker
// fetch. The returned channel closes once the position is reconciled.
func (o *Orchestrator) Start(ctx context.Context) (<-chan struct{}, error) {
	if o.isClosed() {
		return nil, ErrClosed
	}
	done := o.geo.Start()
	if err := o.refreshSpots(ctx); err != nil {
		// Surfaced on the view, the map stays usable.
		o.log.Warn(ctx, "initial spot fetch failed", logger.Error(err))
	}
	return done, nil
}

// SeedSpecies applies a deep-link species once per distinct value.
func (o *Orchestrator) SeedSpecies(ctx context.Context, param string) (bool, error) {
	if o.isClosed() {
		return false, ErrClosed
	}
	if !o.filters.SeedSpecies(param) {
		return false, nil
	}
	return true, o.refreshSpots(ctx)
}

// ToggleTechnique flips a technique and refetches the server-filtered list.
func (o *Orchestrator) ToggleTechnique(ctx context.Context, name string) (models.FilterCriteria, error) {
	if o.isClosed() {
		return models.FilterCriteria{}, ErrClosed
	}
	c := o.filters.ToggleTechnique(name)
	return c, o.refreshSpots(ctx)
}

// ToggleSpecies flips a species and refetches the server-filtered list.
func (o *Orchestrator) ToggleSpecies(ctx context.Context, name string) (models.FilterCriteria, error) {
	if o.isClosed() {
		return models.FilterCriteria{}, ErrClosed
	}
	c := o.filters.ToggleSpecies(name)
	return c, o.refreshSpots(ctx)
}

// SetRadius sets or clears the radius filter. No fetch is needed.
func (o *Orchestrator) SetRadius(km *float64) (models.FilterCriteria, error) {
	if o.isClosed() {
		return models.FilterCriteria{}, ErrClosed
	}
	return o.filters.SetRadius(km)
}

// SetSearchTerm sets the search term. No fetch is needed.
func (o *Orchestrator) SetSearchTerm(term string) (models.FilterCriteria, error) {
	if o.isClosed() {
		return models.FilterCriteria{}, ErrClosed
	}
	return o.filters.SetSearchTerm(term), nil
}

// ClearAll resets every filter and refetches when a server filter was set.
func (o *Orchestrator) ClearAll(ctx context.Context) (models.FilterCriteria, error) {
	if o.isClosed() {
		return models.FilterCriteria{}, ErrClosed
	}
	hadServer := o.filters.Criteria().HasServerFilter()
	c := o.filters.ClearAll()
	if !hadServer {
		return c, nil
	}
	return c, o.refreshSpots(ctx)
}

// Recenter asks for a fresh position. The viewport pans once on success.
func (o *Orchestrator) Recenter(ctx context.Context) (models.Position, error) {
	if o.isClosed() {
		return models.Position{}, ErrClosed
	}
	return o.geo.Recenter(ctx)
}

// SetMode switches between markers and heatmap.
func (o *Orchestrator) SetMode(mode Mode) error {
	if mode != ModeMarkers && mode != ModeHeatmap {
		return ErrInvalidMode
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.mode = mode
	o.mu.Unlock()

	o.renderer.SetVisible(mode == ModeHeatmap)
	return nil
}

// ToggleMode flips the mode and returns the new one.
func (o *Orchestrator) ToggleMode() (Mode, error) {
	next := ModeHeatmap
	if o.Mode() == ModeHeatmap {
		next = ModeMarkers
	}
	return next, o.SetMode(next)
}

// Mode returns the current mode.
func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// SetHeatmapQuery fetches heat points for species (empty for all) and
// month (0 for all). A fetch failure clears the points.
func (o *Orchestrator) SetHeatmapQuery(ctx context.Context, speciesID string, month int) error {
	if o.isClosed() {
		return ErrClosed
	}
	return o.heat.Load(ctx, speciesID, month)
}

// Dispatch feeds a map interaction into the viewport.
func (o *Orchestrator) Dispatch(e Event) error {
	if o.isClosed() {
		return ErrClosed
	}
	return o.viewport.Emit(e)
}

// SetZoom is a shorthand for a zoom event.
func (o *Orchestrator) SetZoom(zoom int) error {
	return o.Dispatch(Event{Type: EventZoom, Zoom: zoom})
}

// ArmPicker enters selection mode.
func (o *Orchestrator) ArmPicker(dest models.Destination) error {
	if o.isClosed() {
		return ErrClosed
	}
	return o.picker.Arm(dest)
}

// ConfirmPicker hands the pending point back to its destination.
func (o *Orchestrator) ConfirmPicker() (models.Navigation, error) {
	if o.isClosed() {
		return models.Navigation{}, ErrClosed
	}
	return o.picker.Confirm()
}

// CancelPicker leaves selection mode without coordinates.
func (o *Orchestrator) CancelPicker() (models.Navigation, error) {
	if o.isClosed() {
		return models.Navigation{}, ErrClosed
	}
	return o.picker.Cancel()
}

// Candidates resolves the visible markers from the committed spot set.
func (o *Orchestrator) Candidates() []models.SpotMarker {
	set := o.spots.Snapshot()
	criteria := o.filters.Criteria()
	var pos *models.Position
	if p, ok := o.geo.Current(); ok {
		pos = &p
	}
	return o.resolver.Resolve(discovery.Input{
		Spots:        set.Spots,
		SpotsVersion: set.Version,
		RadiusKm:     criteria.RadiusKm,
		SearchTerm:   criteria.SearchTerm,
		Position:     pos,
	})
}

// View snapshots the whole map. Reading a view never moves the viewport.
func (o *Orchestrator) View() View {
	set := o.spots.Snapshot()
	heat := o.heat.Snapshot()

	markers := MarkersView{
		Items:   o.Candidates(),
		Total:   len(set.Spots),
		Loading: set.Loading,
	}
	if set.Err != nil {
		markers.Error = set.Err.Error()
	}
	hv := HeatmapView{
		SpeciesID: heat.SpeciesID,
		Month:     heat.Month,
		Points:    heat.Points,
		Loading:   heat.Loading,
	}
	if heat.Err != nil {
		hv.Error = heat.Err.Error()
	}
	if cfg, ok := o.renderer.Current(); ok {
		hv.Layer = &cfg
	}

	o.mu.Lock()
	mode := o.mode
	var nav *models.Navigation
	if o.lastNav != nil {
		n := *o.lastNav
		nav = &n
	}
	o.mu.Unlock()

	return View{
		Viewer:         o.viewer,
		Position:       o.geo.State(),
		Viewport:       o.viewport.State(),
		Mode:           mode,
		Filters:        o.filters.Criteria(),
		Markers:        markers,
		Heatmap:        hv,
		Picker:         o.picker.Snapshot(),
		LastNavigation: nav,
	}
}

// Viewport exposes the map surface.
func (o *Orchestrator) Viewport() *Viewport { return o.viewport }

// Close removes every listener, the heat layer and pending timers, and
// cancels the position request. It is safe to call more than once.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	unsubs := o.unsubs
	o.unsubs = nil
	o.mu.Unlock()

	for _, fn := range unsubs {
		fn()
	}
	o.renderer.Close()
	o.picker.Close()
	o.geo.Close()
}

func (o *Orchestrator) navigate(nav models.Navigation) {
	o.mu.Lock()
	o.lastNav = &nav
	o.mu.Unlock()
	if o.external != nil {
		o.external.Navigate(nav)
	}
}

func (o *Orchestrator) refreshSpots(ctx context.Context) error {
	criteria, v := o.filters.Snapshot()
	if err := o.spots.RefreshVersion(ctx, criteria, v); err != nil {
		return fmt.Errorf("refresh spots: %w", err)
	}
	return nil
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

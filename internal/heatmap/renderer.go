package heatmap

import (
	"context"
	"sync"

	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// Layer is a heat layer attached to a map.
type Layer interface {
	Remove()
}

// Surface is the map the renderer draws on.
type Surface interface {
	AddHeatLayer(points []models.HeatPoint, cfg RenderConfig) (Layer, error)
	Zoom() int
	OnZoom(fn func(zoom int)) (unsubscribe func())
}

// Renderer owns at most one heat layer on a surface. The layer is torn down
// before any replacement is built, and rebuilt only when the points, the
// visibility or the zoom band change.
type Renderer struct {
	surface Surface
	log     logger.Logger
	metrics *metrics.Manager

	mu       sync.Mutex
	points   []models.HeatPoint
	visible  bool
	zoom     int
	band     int
	layer    Layer
	config   RenderConfig
	rebuilds int
	closed   bool
	unsub    func()
}

// NewRenderer attaches a renderer to surface. It starts hidden.
func NewRenderer(surface Surface, opts ...RendererOption) *Renderer {
	zoom := surface.Zoom()
	r := &Renderer{
		surface: surface,
		log:     logger.Discard(),
		zoom:    zoom,
		band:    BandForZoom(zoom),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.unsub = surface.OnZoom(r.handleZoom)
	return r
}

// SetPoints replaces the point set and redraws when visible.
func (r *Renderer) SetPoints(points []models.HeatPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.points = points
	r.redrawLocked()
}

// SetVisible shows or hides the layer.
func (r *Renderer) SetVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.visible == visible {
		return
	}
	r.visible = visible
	r.redrawLocked()
}

// Current returns the configuration of the attached layer, if any.
func (r *Renderer) Current() (RenderConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config, r.layer != nil
}

// Rebuilds counts layers built so far.
func (r *Renderer) Rebuilds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rebuilds
}

// Close detaches the zoom listener and removes the layer.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
	r.teardownLocked()
}

func (r *Renderer) handleZoom(zoom int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.zoom = zoom
	band := BandForZoom(zoom)
	if band == r.band {
		return
	}
	r.band = band
	r.redrawLocked()
}

func (r *Renderer) redrawLocked() {
	r.teardownLocked()
	if !r.visible || len(r.points) == 0 {
		return
	}

	cfg := ConfigForZoom(r.zoom)
	layer, err := r.surface.AddHeatLayer(r.points, cfg)
	if err != nil {
		r.log.Error(context.Background(), "failed to build heat layer", logger.Error(err))
		return
	}
	r.layer = layer
	r.config = cfg
	r.rebuilds++
	r.metrics.IncHeatLayerRebuilds()
}

func (r *Renderer) teardownLocked() {
	if r.layer != nil {
		r.layer.Remove()
		r.layer = nil
		r.config = RenderConfig{}
	}
}

package mapview

import (
	"errors"
	"sync"

	"github.com/jengzang/spots-backend-go/internal/heatmap"
	"github.com/jengzang/spots-backend-go/internal/models"
)

// EventType names a map interaction.
type EventType string

const (
	EventClick       EventType = "click"
	EventPointerDown EventType = "pointerdown"
	EventPointerMove EventType = "pointermove"
	EventPointerUp   EventType = "pointerup"
	EventZoom        EventType = "zoom"
	EventPan         EventType = "pan" // user drag finished at Lat/Lng
)

// ErrUnknownEvent is returned for unsupported event types.
var ErrUnknownEvent = errors.New("unknown map event")

// Event is one map interaction.
type Event struct {
	Type EventType `json:"type" binding:"required"`
	Lat  float64   `json:"lat"`
	Lng  float64   `json:"lng"`
	Zoom int       `json:"zoom"`
}

// LatLng returns the event coordinate.
func (e Event) LatLng() models.LatLng { return models.LatLng{Lat: e.Lat, Lng: e.Lng} }

// ViewportState is the observable center and zoom.
type ViewportState struct {
	Center models.LatLng `json:"center"`
	Zoom   int           `json:"zoom"`
	// Driver is whoever moved the map last: "init", "position" or "user".
	Driver string `json:"driver"`
}

// HeatLayerView is the heat layer currently attached to the map.
type HeatLayerView struct {
	Config heatmap.RenderConfig `json:"config"`
	Points []models.HeatPoint   `json:"points"`
}

// Viewport is the map: center, zoom, listeners and attached layers.
type Viewport struct {
	mu            sync.Mutex
	center        models.LatLng
	zoom          int
	driver        string
	lastPannedSeq uint64
	listeners     map[EventType]map[int]func(Event)
	nextID        int
	heat          *HeatLayerView
	heatID        int
	layers        int
}

// NewViewport creates a viewport.
func NewViewport(center models.LatLng, zoom int) *Viewport {
	return &Viewport{
		center:    center,
		zoom:      zoom,
		driver:    "init",
		listeners: make(map[EventType]map[int]func(Event)),
	}
}

// On registers fn for events of type t.
func (v *Viewport) On(t EventType, fn func(Event)) (unsubscribe func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.listeners[t] == nil {
		v.listeners[t] = make(map[int]func(Event))
	}
	id := v.nextID
	v.nextID++
	v.listeners[t][id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners[t], id)
		if len(v.listeners[t]) == 0 {
			delete(v.listeners, t)
		}
	}
}

// Emit applies the event to the viewport and runs its listeners outside
// the viewport lock.
func (v *Viewport) Emit(e Event) error {
	v.mu.Lock()
	switch e.Type {
	case EventZoom:
		v.zoom = e.Zoom
	case EventPan:
		v.center = e.LatLng()
		v.driver = "user"
	case EventClick, EventPointerDown, EventPointerMove, EventPointerUp:
	default:
		v.mu.Unlock()
		return ErrUnknownEvent
	}
	fns := make([]func(Event), 0, len(v.listeners[e.Type]))
	for _, fn := range v.listeners[e.Type] {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
	return nil
}

// PanToPosition recenters on pos once per position value. Repeated calls
// with an already applied position never move the map, so a user drag is
// not undone by unrelated refreshes.
func (v *Viewport) PanToPosition(pos models.Position) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos.Seq <= v.lastPannedSeq {
		return false
	}
	v.lastPannedSeq = pos.Seq
	v.center = pos.LatLng()
	v.driver = "position"
	return true
}

// State returns center and zoom.
func (v *Viewport) State() ViewportState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewportState{Center: v.center, Zoom: v.zoom, Driver: v.driver}
}

// Zoom implements heatmap.Surface.
func (v *Viewport) Zoom() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// OnZoom implements heatmap.Surface.
func (v *Viewport) OnZoom(fn func(zoom int)) func() {
	return v.On(EventZoom, func(e Event) { fn(e.Zoom) })
}

// AddHeatLayer implements heatmap.Surface. Only one heat layer can be
// attached at a time.
func (v *Viewport) AddHeatLayer(points []models.HeatPoint, cfg heatmap.RenderConfig) (heatmap.Layer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.heat != nil {
		return nil, errors.New("heat layer already attached")
	}
	v.heatID++
	v.heat = &HeatLayerView{Config: cfg, Points: points}
	v.layers++
	return &heatLayer{viewport: v, id: v.heatID}, nil
}

// HeatLayer returns the attached heat layer, if any.
func (v *Viewport) HeatLayer() *HeatLayerView {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.heat == nil {
		return nil
	}
	h := *v.heat
	return &h
}

// LayerCount is the number of layers currently attached.
func (v *Viewport) LayerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layers
}

// ListenerCount is the number of registered event listeners.
func (v *Viewport) ListenerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, m := range v.listeners {
		n += len(m)
	}
	return n
}

type heatLayer struct {
	viewport *Viewport
	id       int
	once     sync.Once
}

func (l *heatLayer) Remove() {
	l.once.Do(func() {
		v := l.viewport
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.heatID == l.id && v.heat != nil {
			v.heat = nil
			v.layers--
		}
	})
}

// Package picker implements the "pick a point on the map" selection mode
// used by the spot and catch creation flows.
package picker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// DefaultLongPress is the hold threshold for a long-press selection.
const DefaultLongPress = 700 * time.Millisecond

// State of the controller.
type State int

const (
	Inactive State = iota
	Armed
	Pending
)

func (s State) String() string {
	switch s {
	case Armed:
		return "ARMED"
	case Pending:
		return "PENDING"
	default:
		return "INACTIVE"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

var (
	ErrAlreadyActive = errors.New("selection mode already active")
	ErrNotActive     = errors.New("selection mode not active")
	ErrNotPending    = errors.New("no point selected")
	ErrNoRoute       = errors.New("destination route is required")
)

// Navigator hands control back to a creation flow.
type Navigator interface {
	Navigate(nav models.Navigation)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(nav models.Navigation)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(nav models.Navigation) { f(nav) }

// Stopper stops a scheduled callback. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Stopper

func realAfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

// Snapshot is the observable controller state.
type Snapshot struct {
	State       State               `json:"state"`
	Pending     *models.LatLng      `json:"pending,omitempty"`
	Destination *models.Destination `json:"destination,omitempty"`
	Pressing    bool                `json:"pressing"`
}

// Controller is the INACTIVE -> ARMED -> PENDING selection state machine.
type Controller struct {
	navigator Navigator
	afterFunc AfterFunc
	threshold time.Duration
	log       logger.Logger
	metrics   *metrics.Manager

	mu      sync.Mutex
	state   State
	dest    models.Destination
	pending *models.LatLng
	press   Stopper
	pressID uint64
}

// New creates an inactive controller.
func New(navigator Navigator, opts ...Option) *Controller {
	c := &Controller{
		navigator: navigator,
		afterFunc: realAfterFunc,
		threshold: DefaultLongPress,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Arm enters selection mode. dest names the route to return to and the
// contextual data merged into its navigation state.
func (c *Controller) Arm(dest models.Destination) error {
	if dest.Route == "" {
		return ErrNoRoute
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Inactive {
		return ErrAlreadyActive
	}
	c.dest = models.Destination{Route: dest.Route, State: copyState(dest.State)}
	c.state = Armed
	return nil
}

// Click captures a short click. Outside selection mode it is ignored and
// reported as not captured. A second click while PENDING moves the point.
func (c *Controller) Click(at models.LatLng) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPressLocked()
	return c.captureLocked(at)
}

// PointerDown starts long-press detection at the given coordinate.
func (c *Controller) PointerDown(at models.LatLng) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPressLocked()
	if c.state == Inactive {
		return
	}
	c.pressID++
	id := c.pressID
	c.press = c.afterFunc(c.threshold, func() { c.pressElapsed(id, at) })
}

// PointerMove cancels a long-press in progress; the gesture is a drag.
func (c *Controller) PointerMove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPressLocked()
}

// PointerUp cancels a long-press released before the threshold.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPressLocked()
}

// Confirm hands the pending point and the contextual data to the
// destination and leaves selection mode.
func (c *Controller) Confirm() (models.Navigation, error) {
	c.mu.Lock()
	if c.state != Pending || c.pending == nil {
		c.mu.Unlock()
		return models.Navigation{}, ErrNotPending
	}
	state := copyState(c.dest.State)
	state["lat"] = c.pending.Lat
	state["lng"] = c.pending.Lng
	nav := models.Navigation{Route: c.dest.Route, State: state}
	c.resetLocked()
	c.mu.Unlock()

	c.metrics.IncPointSelections("confirmed")
	c.log.Debug(context.Background(), "point selection confirmed", logger.String("route", nav.Route))
	if c.navigator != nil {
		c.navigator.Navigate(nav)
	}
	return nav, nil
}

// Cancel discards any captured point and returns control to the caller
// without coordinates.
func (c *Controller) Cancel() (models.Navigation, error) {
	c.mu.Lock()
	if c.state == Inactive {
		c.mu.Unlock()
		return models.Navigation{}, ErrNotActive
	}
	nav := models.Navigation{Route: c.dest.Route, State: copyState(c.dest.State)}
	c.resetLocked()
	c.mu.Unlock()

	c.metrics.IncPointSelections("cancelled")
	if c.navigator != nil {
		c.navigator.Navigate(nav)
	}
	return nav, nil
}

// Close leaves selection mode without navigating and stops any timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{State: c.state, Pressing: c.press != nil}
	if c.pending != nil {
		p := *c.pending
		s.Pending = &p
	}
	if c.state != Inactive {
		d := models.Destination{Route: c.dest.Route, State: copyState(c.dest.State)}
		s.Destination = &d
	}
	return s
}

func (c *Controller) pressElapsed(id uint64, at models.LatLng) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.press == nil || id != c.pressID {
		return
	}
	c.press = nil
	c.captureLocked(at)
}

func (c *Controller) captureLocked(at models.LatLng) bool {
	if c.state != Armed && c.state != Pending {
		return false
	}
	p := at
	c.pending = &p
	c.state = Pending
	return true
}

func (c *Controller) cancelPressLocked() {
	if c.press != nil {
		c.press.Stop()
		c.press = nil
	}
}

func (c *Controller) resetLocked() {
	c.cancelPressLocked()
	c.state = Inactive
	c.pending = nil
	c.dest = models.Destination{}
}

func copyState(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}

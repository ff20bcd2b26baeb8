// Package geolocation reconciles the device location with a fallback
// coordinate into a single current position.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// DefaultTimeout bounds a single position request.
const DefaultTimeout = 15 * time.Second

var (
	// ErrUnavailable is returned when no geolocation capability exists.
	ErrUnavailable = errors.New("geolocation unavailable")
	// ErrDenied is returned by locators when the user refused access.
	ErrDenied = errors.New("geolocation permission denied")
	// ErrTimeout is returned when the request outlives its timeout.
	ErrTimeout = errors.New("geolocation timed out")
	// ErrClosed is returned once the provider has been torn down.
	ErrClosed = errors.New("geolocation provider closed")
)

// Options mirror the device request options.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration // 0 forbids cached OS fixes
}

// Locator is the device geolocation capability.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (models.DeviceFix, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, opts Options) (models.DeviceFix, error)

// CurrentPosition implements Locator.
func (f LocatorFunc) CurrentPosition(ctx context.Context, opts Options) (models.DeviceFix, error) {
	return f(ctx, opts)
}

// Provider owns the current position of one map session.
type Provider struct {
	locator  Locator
	fallback models.LatLng
	timeout  time.Duration
	log      logger.Logger
	metrics  *metrics.Manager

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     models.PositionState
	seq       uint64
	listeners map[int]func(models.Position)
	nextID    int
	startOnce sync.Once
	done      chan struct{}
}

// New creates a provider. locator may be nil when the capability is absent.
func New(locator Locator, fallback models.LatLng, opts ...Option) *Provider {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Provider{
		locator:   locator,
		fallback:  fallback,
		timeout:   DefaultTimeout,
		log:       logger.Discard(),
		ctx:       ctx,
		cancel:    cancel,
		state:     models.PositionState{Loading: true},
		listeners: make(map[int]func(models.Position)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start issues the initial position request exactly once. The returned
// channel closes when the initial reconciliation has finished.
func (p *Provider) Start() <-chan struct{} {
	p.startOnce.Do(func() {
		go func() {
			defer close(p.done)
			fix, err := p.request(p.ctx)
			if errors.Is(err, ErrClosed) || p.ctx.Err() != nil {
				return
			}
			if err != nil {
				p.log.Warn(p.ctx, "falling back to default position", logger.Error(err))
				p.metrics.IncGeolocation("fallback")
				p.replace(models.Position{
					Latitude:  p.fallback.Lat,
					Longitude: p.fallback.Lng,
				}, err)
				return
			}
			p.metrics.IncGeolocation("fix")
			p.replace(fixPosition(fix), nil)
		}()
	})
	return p.done
}

// Recenter issues a fresh request independent of the initial one. On
// success the position is replaced and listeners are notified once; on
// failure the previous position is kept.
func (p *Provider) Recenter(ctx context.Context) (models.Position, error) {
	fix, err := p.request(ctx)
	if err != nil {
		p.metrics.IncGeolocation("failed")
		p.mu.Lock()
		p.state.Error = err.Error()
		p.mu.Unlock()
		return models.Position{}, fmt.Errorf("recenter: %w", err)
	}
	p.metrics.IncGeolocation("fix")
	return p.replace(fixPosition(fix), nil), nil
}

// State returns a copy of the current position state.
func (p *Provider) State() models.PositionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.state
	if st.Position != nil {
		pos := *st.Position
		st.Position = &pos
	}
	return st
}

// Current returns the position once one has been reconciled.
func (p *Provider) Current() (models.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Position == nil {
		return models.Position{}, false
	}
	return *p.state.Position, true
}

// Subscribe registers fn to run on every position replacement.
func (p *Provider) Subscribe(fn func(models.Position)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Close cancels any in-flight request and drops all listeners.
func (p *Provider) Close() {
	p.cancel()
	p.mu.Lock()
	p.listeners = make(map[int]func(models.Position))
	p.mu.Unlock()
}

func (p *Provider) request(ctx context.Context) (models.DeviceFix, error) {
	if p.ctx.Err() != nil {
		return models.DeviceFix{}, ErrClosed
	}
	if p.locator == nil {
		return models.DeviceFix{}, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	// Teardown cancels requests started through Recenter as well.
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	type result struct {
		fix models.DeviceFix
		err error
	}
	ch := make(chan result, 1)
	go func() {
		fix, err := p.locator.CurrentPosition(ctx, Options{
			HighAccuracy: true,
			Timeout:      p.timeout,
			MaximumAge:   0,
		})
		ch <- result{fix: fix, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return models.DeviceFix{}, r.err
		}
		return r.fix, nil
	case <-ctx.Done():
		if p.ctx.Err() != nil {
			return models.DeviceFix{}, ErrClosed
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.DeviceFix{}, ErrTimeout
		}
		return models.DeviceFix{}, ctx.Err()
	}
}

func (p *Provider) replace(pos models.Position, reason error) models.Position {
	p.mu.Lock()
	p.seq++
	pos.Seq = p.seq
	p.state = models.PositionState{
		Position:    &pos,
		Loading:     false,
		Approximate: !pos.IsUserLocation,
	}
	if reason != nil {
		p.state.Error = reason.Error()
	}
	listeners := make([]func(models.Position), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(pos)
	}
	return pos
}

func fixPosition(fix models.DeviceFix) models.Position {
	return models.Position{
		Latitude:       fix.Lat,
		Longitude:      fix.Lon,
		Accuracy:       fix.Accuracy,
		IsUserLocation: true,
	}
}

// Package session keeps one map per client and expires idle ones.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jengzang/spots-backend-go/internal/geolocation"
	"github.com/jengzang/spots-backend-go/internal/mapview"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// DefaultTTL is how long an untouched session lives.
const DefaultTTL = 30 * time.Minute

// ErrNotFound is returned for unknown, expired or foreign sessions.
var ErrNotFound = errors.New("session not found")

// Factory builds the map for a new session.
type Factory func(viewer mapview.Viewer, locator geolocation.Locator) *mapview.Orchestrator

// Session is one client's map.
type Session struct {
	ID        string
	Viewer    mapview.Viewer
	Map       *mapview.Orchestrator
	Locator   *geolocation.ClientLocator
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// CreateRequest describes a new session.
type CreateRequest struct {
	Viewer mapview.Viewer
	Fix    *models.DeviceFix // nil when the device reported no fix
	FixErr error
	// Species seeds the species filter once, as a deep link does.
	Species string
}

// Manager owns all live sessions.
type Manager struct {
	factory  Factory
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      logger.Logger
	metrics  *metrics.Manager

	mu       sync.Mutex
	sessions map[string]*Session

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a manager and starts its expiry sweeper.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		ttl:      DefaultTTL,
		now:      time.Now,
		log:      logger.Discard(),
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.interval == 0 {
		m.interval = m.ttl / 2
	}

	if m.interval > 0 {
		go m.sweeper()
	} else {
		close(m.done)
	}
	return m
}

// Create starts a map, waits for its initial position and applies the
// species seed. The initial marker fetch failing does not fail creation.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	locator := geolocation.NewClientLocator(req.Fix, req.FixErr)
	orch := m.factory(req.Viewer, locator)

	done, err := orch.Start(ctx)
	if err != nil {
		orch.Close()
		return nil, fmt.Errorf("start map: %w", err)
	}
	select {
	case <-done:
	case <-ctx.Done():
		orch.Close()
		return nil, ctx.Err()
	}
	if _, err := orch.SeedSpecies(ctx, req.Species); err != nil {
		m.log.Warn(ctx, "species seed fetch failed", logger.Error(err), logger.String("species", req.Species))
	}

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Viewer:    req.Viewer,
		Map:       orch,
		Locator:   locator,
		CreatedAt: now,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetSessionsActive(n)
	m.log.Info(ctx, "session created", logger.String("session_id", s.ID), logger.String("user_id", req.Viewer.UserID))
	return s, nil
}

// Get returns the session and marks it used. A session created by an
// authenticated user is only visible to that user.
func (m *Manager) Get(id, userID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || (s.Viewer.UserID != "" && s.Viewer.UserID != userID) {
		return nil, ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Delete tears a session down.
func (m *Manager) Delete(id, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || (s.Viewer.UserID != "" && s.Viewer.UserID != userID) {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	s.Map.Close()
	m.metrics.SetSessionsActive(n)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes every session idle for longer than the TTL and reports how
// many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		s.Map.Close()
		m.log.Debug(context.Background(), "session expired", logger.String("session_id", s.ID))
	}
	if len(expired) > 0 {
		m.metrics.SetSessionsActive(n)
	}
	return len(expired)
}

// Close stops the sweeper and tears down every session.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.done

		m.mu.Lock()
		all := m.sessions
		m.sessions = make(map[string]*Session)
		m.mu.Unlock()

		for _, s := range all {
			s.Map.Close()
		}
		m.metrics.SetSessionsActive(0)
	})
}

func (m *Manager) sweeper() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}
